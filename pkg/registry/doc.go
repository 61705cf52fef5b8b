/*
Package registry builds the process-wide catalog of module templates.

The catalog is seeded with the built-in modules under their short names and
then filled with every definition found under the library root, keyed by its
slash-separated relative path without extension ("medications/otc_antihistamine").
Definitions inside a subdirectory are submodules: they are retrievable by path
but left out of ListTopLevel.

Loading happens once, lazily, on first access. A definition that cannot be
read, parsed or validated is logged and skipped; it never aborts the load. After
loading the catalog is frozen and readers need no synchronization.
*/
package registry
