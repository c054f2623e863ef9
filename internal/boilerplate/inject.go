package boilerplate

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// space is the set of bytes a latin-1 source treats as whitespace.
const space = `[\t\n\v\f\r \x1c-\x1f\x{85}\x{a0}]`

// insertionPattern splits a source file into the leading constructs and the rest.
// It runs over the latin-1 widening of the source, see widen.
var insertionPattern = regexp.MustCompile(`(?s)\A` +
	`(?P<before>(?:(?:` +
	`#[^\r\n]*` + // comment
	`|` + space + `*` + // whitespace
	`|from` + space + `+__future__` + space + `+import` + space + `+[^\r\n]+` + // future import
	`|'[^'].*?'` + // docstring, single quote
	`|"[^"].*?"` + // docstring, double quote
	`|'''.*?'''` + // docstring, triple single quote
	`|""".*?"""` + // docstring, triple double quote
	`)[\r\n]+)*)` +
	`(?P<after>.*)`)

var (
	beforeGroup = insertionPattern.SubexpIndex("before")
	afterGroup  = insertionPattern.SubexpIndex("after")
)

// Inject returns source with boilerplate inserted after the leading comments,
// blank lines, future imports and docstrings. Bytes outside the insertion are
// copied unchanged. Calling it twice inserts the boilerplate twice.
func Inject(source []byte, boilerplate string) ([]byte, error) {
	if err := CheckASCII(boilerplate); err != nil {
		return nil, err
	}

	wide, offsets := widen(source)

	loc := insertionPattern.FindSubmatchIndex(wide)
	if loc == nil {
		return nil, fmt.Errorf("%w: no boilerplate insertion point", par.ErrInternal)
	}

	beforeStart, beforeEnd := offsets[loc[2*beforeGroup]], offsets[loc[2*beforeGroup+1]]
	afterStart, afterEnd := offsets[loc[2*afterGroup]], offsets[loc[2*afterGroup+1]]

	if beforeStart != 0 || beforeEnd != afterStart || afterEnd != len(source) {
		return nil, fmt.Errorf("%w: insertion point match covers [%d:%d]+[%d:%d] of %d bytes",
			par.ErrInternal, beforeStart, beforeEnd, afterStart, afterEnd, len(source))
	}

	out := make([]byte, 0, len(source)+len(boilerplate))
	out = append(out, source[:beforeEnd]...)
	out = append(out, boilerplate...)
	out = append(out, source[afterStart:]...)

	return out, nil
}

// widen decodes source as latin-1 into UTF-8 so every byte is one rune.
// offsets[i] is the source offset of wide[i], with a final entry for the end.
func widen(source []byte) (wide []byte, offsets []int) {
	wide = make([]byte, 0, len(source))
	offsets = make([]int, 0, len(source)+1)

	for i, c := range source {
		if c < utf8.RuneSelf {
			wide = append(wide, c)
			offsets = append(offsets, i)

			continue
		}

		wide = utf8.AppendRune(wide, rune(c))
		offsets = append(offsets, i, i)
	}

	offsets = append(offsets, len(source))

	return wide, offsets
}

// CheckASCII reports an error when s holds anything but printable ASCII,
// tabs and line breaks.
func CheckASCII(s string) error {
	for i := range len(s) {
		c := s[i]
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7e) {
			continue
		}

		return fmt.Errorf("%w: boilerplate byte %#x at offset %d is not printable ASCII", par.ErrConfiguration, c, i)
	}

	return nil
}
