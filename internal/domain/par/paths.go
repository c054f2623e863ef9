package par

const (
	// RuntimePackage is the top-level package that carries runtime support files.
	RuntimePackage = "subpar"

	// MainPath is the stored path of the generated entry point.
	// It is owned by the compiler and may not appear in a manifest.
	MainPath = "__main__.py"

	// DescriptorPath is the stored path of the bootstrap descriptor.
	DescriptorPath = RuntimePackage + "/runtime/bootstrap.yaml"
)

// SupportPaths returns the stored paths of the runtime support files
// present in every archive. A manifest may shadow them.
func SupportPaths() []string {
	return []string{DescriptorPath}
}

// PackageMarkerPaths returns the zero-length package markers present in
// every archive unless the manifest supplies its own.
func PackageMarkerPaths() []string {
	return []string{
		RuntimePackage + "/__init__.py",
		RuntimePackage + "/runtime/__init__.py",
	}
}

// FixedMemberCount is the number of members every archive carries besides
// manifest entries and the entry point.
func FixedMemberCount() int {
	return len(SupportPaths()) + len(PackageMarkerPaths())
}
