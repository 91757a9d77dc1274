// Package registry resolves command names into something the executor can
// run: an executable path, possibly with fixed arguments, or an in-process
// handler.
//
// Names resolve through alias chains to a terminal definition.  Unregistered
// names fall back to a system PATH lookup unless that is disabled, and names
// containing a path separator bypass the registry entirely.  Definitions can
// be registered programmatically, loaded from a YAML document, or installed
// as the built-in echo, cat, tee and glob handlers.
package registry
