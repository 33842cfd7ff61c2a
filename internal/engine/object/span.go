package object

import "fmt"

// SourceSpan is the line range a structural object occupies in one file.
// Spans are comparable; two spans are equal iff path, start and end match.
type SourceSpan struct {
	path  string
	start int
	end   int
}

func NewSourceSpan(path string, start, end int) SourceSpan {
	return SourceSpan{path: path, start: start, end: end}
}

func (s SourceSpan) Path() string { return s.path }
func (s SourceSpan) Start() int   { return s.start }
func (s SourceSpan) End() int     { return s.end }

// Position drops the end line, keeping only the definition point.
func (s SourceSpan) Position() Position {
	return Position{Filename: s.path, Start: s.start}
}

func (s SourceSpan) String() string {
	return fmt.Sprintf("%s:%d-%d", s.path, s.start, s.end)
}

// Position identifies an object by file and start line. It is the coarser
// key used when only the definition point matters.
type Position struct {
	Filename string
	Start    int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Start)
}
