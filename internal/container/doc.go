// Package container reads and writes par archives: an ASCII launcher line
// ("#!<interpreter>\n") immediately followed by a ZIP container.
//
// Member offsets are recorded relative to the start of the file, so the
// archive stays readable by any standard ZIP reader without stripping the
// header first.
package container
