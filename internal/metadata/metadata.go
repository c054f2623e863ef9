package metadata

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"
)

const (
	distInfoSuffix = ".dist-info"
	metadataFile   = "METADATA"
	unknownProject = "unknown"
)

// distNamePattern splits "<name>-<version>" directory stems.
var distNamePattern = regexp.MustCompile(`^(?P<name>[^-]+)(?:-(?P<version>[^-]+))?`)

// Distribution is one bundled distribution.
type Distribution struct {
	// Name is the project name.
	Name string
	// Version is the project version, empty when unknown.
	Version string
	// Location is the search path entry the distribution was found under.
	Location string
	// DistInfo is the archive-relative path of the .dist-info directory.
	DistInfo string
}

// String renders "name==version".
func (d Distribution) String() string {
	if d.Version == "" {
		return d.Name
	}

	return d.Name + "==" + d.Version
}

// Discover scans zr for .dist-info directories directly under the archive root
// and under each import root. base is the location the roots are resolved
// against (the archive path or the extraction directory). Results follow
// search order, then directory name.
func Discover(zr *zip.Reader, base string, importRoots []string) []Distribution {
	prefixes := make([]string, 0, len(importRoots)+1)
	prefixes = append(prefixes, "")

	for _, root := range importRoots {
		prefixes = append(prefixes, strings.TrimSuffix(root, "/")+"/")
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, file := range zr.File {
		files[file.Name] = file
	}

	var found []Distribution

	for _, prefix := range prefixes {
		dirs := distInfoDirs(zr, prefix)
		location := base
		if prefix != "" {
			location = filepath.Join(base, filepath.FromSlash(strings.TrimSuffix(prefix, "/")))
		}

		for _, dir := range dirs {
			dist := fromDirName(dir)
			dist.Location = location
			dist.DistInfo = prefix + dir

			if file, ok := files[prefix+dir+"/"+metadataFile]; ok {
				applyMetadata(&dist, file)
			}

			found = append(found, dist)
		}
	}

	return found
}

// distInfoDirs returns sorted .dist-info directory names directly under prefix.
func distInfoDirs(zr *zip.Reader, prefix string) []string {
	seen := make(map[string]struct{})

	for _, file := range zr.File {
		rest, ok := strings.CutPrefix(file.Name, prefix)
		if !ok {
			continue
		}

		dir, _, nested := strings.Cut(rest, "/")
		if !nested || !strings.HasSuffix(strings.ToLower(dir), distInfoSuffix) {
			continue
		}

		seen[dir] = struct{}{}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}

	slices.Sort(dirs)

	return dirs
}

// fromDirName derives name and version from the directory name.
func fromDirName(dir string) Distribution {
	stem := dir[:len(dir)-len(distInfoSuffix)]

	m := distNamePattern.FindStringSubmatch(stem)
	if m == nil {
		return Distribution{Name: unknownProject}
	}

	return Distribution{
		Name:    m[distNamePattern.SubexpIndex("name")],
		Version: m[distNamePattern.SubexpIndex("version")],
	}
}

// applyMetadata overrides name and version with the METADATA headers when present.
func applyMetadata(dist *Distribution, file *zip.File) {
	headers, err := readHeaders(file)
	if err != nil {
		return
	}

	if name := headers.Get("Name"); name != "" {
		dist.Name = name
	}

	if version := headers.Get("Version"); version != "" {
		dist.Version = version
	}
}

// readHeaders parses the RFC 822 style header block of a METADATA file.
func readHeaders(file *zip.File) (textproto.MIMEHeader, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close() //nolint:errcheck // Read-only member.

	headers, err := textproto.NewReader(bufio.NewReader(io.LimitReader(rc, 1<<20))).ReadMIMEHeader()
	if err != nil && len(headers) == 0 {
		return nil, fmt.Errorf("parse %s: %w", file.Name, err)
	}

	return headers, nil
}
