/*
Package domain contains the entities shared by the cohort registry and execution engine.

It defines the simulated Person and the attribute keys through which modules
communicate, the Snapshot used to persist execution results, lifecycle events
and the sentinel errors of the engine. This package is kept free of I/O and of
any knowledge about concrete state kinds.

# Key Entities

  - Person: the entity being simulated. Owns an open attribute map and a private random source.
  - Snapshot: a serializable summary of where a person stands in each module.
  - LifecycleHooks: callbacks emitted by the engine while it advances a person.
*/
package domain
