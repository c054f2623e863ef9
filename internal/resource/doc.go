// Package resource models the content stored in a par archive.
//
// A Resource knows its archive-relative stored path and how to write its
// bytes into a Container. FileBacked resources read a local file at write
// time, InMemory resources carry their bytes. A Set collects resources of a
// build and writes them in lexicographic stored-path order.
package resource
