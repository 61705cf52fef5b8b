/*
Package ports defines the driven ports (interfaces) around the cohort engine.

These interfaces decouple the simulation driver and the HTTP API from concrete
storage backends.

# Key Interfaces

  - SnapshotStore: persists the per-person summary produced after a run.
  - DistributedLocker: guarantees a person is advanced by one worker at a time
    when several processes share a store.
*/
package ports
