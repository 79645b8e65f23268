// Package annotation locates, parses and converts per-image detection labels.
//
// Two on-disk formats are understood:
//
//	txt: one object per line, "<category> <xmin> <ymin> <xmax> <ymax>",
//	     stored as <root>/labels/<image stem>.txt
//	xml: Pascal VOC style <annotation><object>...</object></annotation>,
//	     stored next to the image as <image stem>.xml
//
// Parsing is deliberately shallow: coordinate tokens are kept as raw strings
// and validated by the COCO builder, so that statistics can still be gathered
// from files whose numbers are broken.
package annotation

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects an annotation file layout.
type Format int

const (
	// TXT is the flat space-separated line format.
	TXT Format = iota
	// XML is the Pascal VOC layout.
	XML
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown annotation format")

// ParseFormat converts "txt" or "xml" (case-insensitive) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt":
		return TXT, nil
	case "xml":
		return XML, nil
	}
	return TXT, fmt.Errorf("%w: %q (want txt or xml)", ErrUnknownFormat, s)
}

// String returns the canonical lower-case name of f.
func (f Format) String() string {
	switch f {
	case TXT:
		return "txt"
	case XML:
		return "xml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}
