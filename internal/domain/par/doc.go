// Package par holds the domain model shared by the compiler and the runtime
// bootstrap: the immutable build configuration, the reserved archive paths,
// the bootstrap descriptor stored inside every archive and the error taxonomy.
package par
