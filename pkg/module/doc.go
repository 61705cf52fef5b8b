/*
Package module compiles module definitions into immutable Module templates.

A definition is a name, optional remarks and a map of named state objects. It
can be written in JSON or YAML. Build decodes every state through the state
package and validates the graph: exactly one state named "Initial", every
transition target present, and at least one Terminal state reachable from
Initial. The resulting *Module exposes only read accessors and is safe to share
across goroutines.
*/
package module
