package annotation

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FieldsPerLine is the token count of a well-formed txt annotation line.
const FieldsPerLine = 5

// Object is one labelled instance as it appears in an annotation file.
// Box holds the raw xmin, ymin, xmax, ymax tokens; see Bounds.
type Object struct {
	Name string    `json:"name"`
	Box  [4]string `json:"box"`

	// Line is the 1-based source line (txt) or object position (xml).
	Line int `json:"line"`
	// Fields is the number of tokens found on a txt line. Always
	// FieldsPerLine for xml objects.
	Fields int `json:"fields"`
}

// Bounds converts the raw box tokens to integers.
func (o Object) Bounds() (xmin, ymin, xmax, ymax int, err error) {
	if o.Fields != FieldsPerLine {
		return 0, 0, 0, 0, fmt.Errorf("object %d: want %d fields, got %d", o.Line, FieldsPerLine, o.Fields)
	}
	var v [4]int
	for i, tok := range o.Box {
		v[i], err = strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("object %d: bad coordinate %q: %w", o.Line, tok, err)
		}
	}
	return v[0], v[1], v[2], v[3], nil
}

// Annotation is the parsed content of one annotation file.
type Annotation struct {
	Objects []Object `json:"objects"`
	// Negative is set when an xml file has no object element at all.
	Negative bool `json:"negative"`
}

// Categories returns the category name of every object, in file order.
// A negative annotation returns nil.
func (a *Annotation) Categories() []string {
	if a.Negative {
		return nil
	}
	names := make([]string, len(a.Objects))
	for i, o := range a.Objects {
		names[i] = o.Name
	}
	return names
}

// Count returns the number of object instances.
func (a *Annotation) Count() int {
	return len(a.Objects)
}

// Parser reads annotation records of a single format.
type Parser interface {
	Parse(r io.Reader) (*Annotation, error)
	Format() Format
}

// NewParser returns the parser for format.
func NewParser(format Format) (Parser, error) {
	switch format {
	case TXT:
		return txtParser{}, nil
	case XML:
		return xmlParser{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}

// ParseFile opens path and parses it with p.
func ParseFile(p Parser, path string) (*Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation: %w", err)
	}
	defer f.Close()

	ann, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ann, nil
}

// MaxLineBytes bounds one line of a txt annotation file.
const MaxLineBytes = 1024 * 1024

type txtParser struct{}

func (txtParser) Format() Format { return TXT }

// Parse reads one object per non-blank line. Tokens are separated by any run
// of spaces or tabs. Token counts and numbers are not checked here.
func (txtParser) Parse(r io.Reader) (*Annotation, error) {
	ann := &Annotation{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens := strings.Fields(line)
		obj := Object{Name: tokens[0], Line: lineNo, Fields: len(tokens)}
		copy(obj.Box[:], tokens[1:])
		ann.Objects = append(ann.Objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotation: %w", err)
	}
	return ann, nil
}

// vocAnnotation mirrors the parts of a Pascal VOC file we use. Objects is a
// slice so that one <object> and many decode the same way.
type vocAnnotation struct {
	XMLName xml.Name    `xml:"annotation"`
	Objects []vocObject `xml:"object"`
}

type vocObject struct {
	Name   string `xml:"name"`
	BndBox struct {
		XMin string `xml:"xmin"`
		YMin string `xml:"ymin"`
		XMax string `xml:"xmax"`
		YMax string `xml:"ymax"`
	} `xml:"bndbox"`
}

type xmlParser struct{}

func (xmlParser) Format() Format { return XML }

func (xmlParser) Parse(r io.Reader) (*Annotation, error) {
	var doc vocAnnotation
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode VOC xml: %w", err)
	}
	if len(doc.Objects) == 0 {
		return &Annotation{Negative: true}, nil
	}

	ann := &Annotation{Objects: make([]Object, len(doc.Objects))}
	for i, o := range doc.Objects {
		b := o.BndBox
		ann.Objects[i] = Object{
			Name:   strings.TrimSpace(o.Name),
			Box:    [4]string{strings.TrimSpace(b.XMin), strings.TrimSpace(b.YMin), strings.TrimSpace(b.XMax), strings.TrimSpace(b.YMax)},
			Line:   i + 1,
			Fields: FieldsPerLine,
		}
	}
	return ann, nil
}
