/*
Package state defines the capability contract between the execution engine and
the states of a module, together with the minimal set of state kinds needed to
load module definitions from disk.

A Template is the immutable, shared prototype of a named state. It never
changes after construction and exposes no mutating method. The only way to
obtain something runnable is Template.Clone, which returns a fresh Instance
owned by one person. Instances carry the execution-local fields (entered and
exited instants, a drawn delay) that must never leak across persons.

The engine only relies on Instance.Run, Instance.Transition, Instance.Exited
and Instance.Terminal. Everything else in this package is the state layer's
own business.
*/
package state
