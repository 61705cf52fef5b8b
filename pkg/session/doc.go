/*
Package session serializes access to a person's run and its stored snapshot.

A person is owned by one goroutine at a time. The Manager enforces that with a
reference-counted in-process lock per person ID and, when several processes
share a store, an optional distributed lock on top.
*/
package session
