package stackusage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/stackdepth/pkg/diag"
)

var (
	// ErrTooFewFields is returned by [ParseLine] when a line has no size field.
	ErrTooFewFields = errors.New("expected identifier and size fields")

	// ErrNoFunctionName is returned by [ParseLine] when the identifier has
	// fewer than four colon-separated components.
	ErrNoFunctionName = errors.New("identifier has no function name field")

	// ErrInvalidSize is returned by [ParseLine] when the size is not a
	// non-negative integer.
	ErrInvalidSize = errors.New("invalid frame size")
)

// nameField is the index of the function name in the colon-separated identifier.
const nameField = 3

// Record is one parsed frame-size record.
type Record struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Skipped describes a line that could not be parsed.
type Skipped struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// File is the parse result of one .su input.
type File struct {
	Records []Record  `json:"records"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// ParseLine parses one record line.
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Record{}, ErrTooFewFields
	}
	parts := strings.Split(fields[0], ":")
	if len(parts) <= nameField || parts[nameField] == "" {
		return Record{}, ErrNoFunctionName
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil || size < 0 {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidSize, fields[1])
	}
	return Record{Name: parts[nameField], Size: size}, nil
}

// Parse reads every line of r. Malformed lines are collected in
// [File.Skipped] and never stop the parse. Blank lines are ignored.
// The only error returned is a read error from r.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := ParseLine(text)
		if err != nil {
			f.Skipped = append(f.Skipped, Skipped{Line: lineNo, Text: text, Reason: err.Error()})
			continue
		}
		f.Records = append(f.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return f, nil
}

// Warn records one local warning per skipped line, attributed to source.
func (f *File) Warn(source string, w *diag.Warnings) {
	for _, s := range f.Skipped {
		w.Local(source, s.Line, "skipping malformed stack usage line %q: %s", s.Text, s.Reason)
	}
}
