// Package launcher runs par archives: it prepares the search path of the
// child interpreter through the runtime bootstrap, starts the interpreter on
// the archive (or its extraction directory) and reports the child exit code.
package launcher
