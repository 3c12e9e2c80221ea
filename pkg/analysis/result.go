package analysis

import (
	"fmt"
	"strings"
)

// Result is the worst-case stack usage from one function.
//
// A finite result carries the total in bytes and the call path that reaches
// it. An unbounded result means recursion is reachable: Path leads from the
// start function to the call that closes the cycle, and Cycle holds the
// minimal cyclic sub-path proving it (first and last element are equal).
type Result struct {
	Total     int      `json:"total"`
	Unbounded bool     `json:"unbounded"`
	Path      []string `json:"path"`
	Cycle     []string `json:"cycle,omitempty"`
}

// Greater reports whether r is strictly worse than o. Any unbounded result is
// greater than every finite one; two unbounded results are equal.
func (r Result) Greater(o Result) bool {
	switch {
	case r.Unbounded:
		return !o.Unbounded
	case o.Unbounded:
		return false
	default:
		return r.Total > o.Total
	}
}

// String formats the result for logs.
func (r Result) String() string {
	if r.Unbounded {
		return fmt.Sprintf("unbounded (cycle %s)", strings.Join(r.Cycle, " -> "))
	}
	return fmt.Sprintf("%d bytes (%s)", r.Total, strings.Join(r.Path, " -> "))
}

// Frame is one step of a finite worst-case path.
type Frame struct {
	Function   string `json:"function"`
	Size       int    `json:"size"`
	Cumulative int    `json:"cumulative"`
}

// Breakdown returns the path with each function's own frame size and the
// running total from the start function.
func Breakdown(path []string, sizes SizeTable) []Frame {
	frames := make([]Frame, 0, len(path))
	sum := 0
	for _, fn := range path {
		size := sizes.FrameSize(fn)
		sum += size
		frames = append(frames, Frame{Function: fn, Size: size, Cumulative: sum})
	}
	return frames
}
