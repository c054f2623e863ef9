package container

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// headerPrefix starts every launcher line.
const headerPrefix = "#!"

// maxHeaderLength bounds the launcher line when reading it back.
const maxHeaderLength = 4096

var errNoHeader = errors.New("missing launcher line")

// Header returns the launcher line for the interpreter invocation.
// The interpreter must be printable ASCII on a single line.
func Header(interpreter string) ([]byte, error) {
	if interpreter == "" {
		return nil, fmt.Errorf("%w: empty interpreter", par.ErrConfiguration)
	}

	for i := range len(interpreter) {
		if c := interpreter[i]; c < 0x20 || c > 0x7e {
			return nil, fmt.Errorf("%w: interpreter %q is not printable ASCII", par.ErrConfiguration, interpreter)
		}
	}

	return []byte(headerPrefix + interpreter + "\n"), nil
}

// WriteHeader writes the launcher line and returns the number of bytes written.
func WriteHeader(w io.Writer, interpreter string) (int64, error) {
	header, err := Header(interpreter)
	if err != nil {
		return 0, err
	}

	n, err := w.Write(header)
	if err != nil {
		return int64(n), fmt.Errorf("write launcher line: %w", err)
	}

	return int64(n), nil
}

// ReadHeader reads the launcher line and returns the interpreter invocation.
func ReadHeader(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(io.LimitReader(r, maxHeaderLength), maxHeaderLength)

	line, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read launcher line: %w", errNoHeader)
	}

	if !strings.HasPrefix(line, headerPrefix) {
		return "", errNoHeader
	}

	return strings.TrimSpace(strings.TrimPrefix(line, headerPrefix)), nil
}
