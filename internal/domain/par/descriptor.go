package par

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DescriptorFormatVersion is bumped whenever the descriptor layout changes.
const DescriptorFormatVersion = 1

// Descriptor tells the runtime bootstrap how to prepare the process.
// It is stored at DescriptorPath inside the archive.
type Descriptor struct {
	// FormatVersion identifies the descriptor layout.
	FormatVersion int `yaml:"format_version"`
	// ImportRoots are archive-relative search roots in final search order.
	ImportRoots []string `yaml:"import_roots"`
	// ZipSafe reports whether contents may be loaded straight from the archive.
	ZipSafe bool `yaml:"zip_safe"`
	// Interpreter is the invocation written into the launcher header.
	Interpreter string `yaml:"interpreter"`
}

// NewDescriptor builds the descriptor for a build.
func NewDescriptor(spec *ArchiveSpec, importRoots []string) *Descriptor {
	return &Descriptor{
		FormatVersion: DescriptorFormatVersion,
		ImportRoots:   append([]string{}, importRoots...),
		ZipSafe:       spec.ZipSafe,
		Interpreter:   spec.Interpreter,
	}
}

// Marshal renders the descriptor as YAML.
func (d *Descriptor) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}

	return data, nil
}

// ParseDescriptor decodes a descriptor and checks its format version.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: decode descriptor: %w", ErrSyntax, err)
	}

	if d.FormatVersion != DescriptorFormatVersion {
		return nil, fmt.Errorf("%w: unsupported descriptor format %d", ErrConfiguration, d.FormatVersion)
	}

	return &d, nil
}
