// Copyright 2026 The Gradual Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package token maps byte offsets of contract annotations to printable
// source positions.
package token // import "gradual.dev/go/token"

import (
	"fmt"
	"sort"
	"sync"
)

// -----------------------------------------------------------------------------
// Positions

// Position describes a printable source position within a file,
// including offset, line, and column location.
//
// A Position is valid if the line number is > 0.
type Position struct {
	Filename string // filename, if any
	Offset   int    // offset, starting at 0
	Line     int    // line number, starting at 1
	Column   int    // column number, starting at 1 (byte count)
}

// IsValid reports whether the position is valid.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

// String returns a human-readable form of a position in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a byte offset within a File. The zero value, NoPos, has no file.
type Pos struct {
	file   *File
	offset int
}

// NoPos is the zero value for Pos; there is no file and line information
// associated with it, and Pos.IsValid is false.
var NoPos = Pos{}

// IsValid reports whether p refers to a file.
func (p Pos) IsValid() bool { return p.file != nil }

// File returns the file that contains p, or nil for NoPos.
func (p Pos) File() *File { return p.file }

// Offset reports the byte offset relative to the file.
func (p Pos) Offset() int { return p.offset }

// Position unpacks the position information into a flat struct.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.Position(p.offset)
}

// String returns a human-readable form of p.
func (p Pos) String() string {
	return p.Position().String()
}

// -----------------------------------------------------------------------------
// Spans

// A Span is the half-open byte range [Left, Right) of a File that an
// obligation was created for.
type Span struct {
	File  *File
	Left  int
	Right int
}

// Start returns the position of the first byte of s.
func (s Span) Start() Pos { return s.File.Pos(s.Left) }

// End returns the position just past the last byte of s.
func (s Span) End() Pos { return s.File.Pos(s.Right) }

// Len returns the number of bytes covered by s.
func (s Span) Len() int {
	if s.Right < s.Left {
		return 0
	}
	return s.Right - s.Left
}

// String formats s as file:line:col-line:col, or as a bare offset range
// when s has no file.
func (s Span) String() string {
	if s.File == nil {
		return fmt.Sprintf("[%d,%d)", s.Left, s.Right)
	}
	start := s.Start().Position()
	end := s.End().Position()
	if start.Line == end.Line {
		return fmt.Sprintf("%s-%d", start, end.Column)
	}
	return fmt.Sprintf("%s-%d:%d", start, end.Line, end.Column)
}

// -----------------------------------------------------------------------------
// File

// A File has a name, size, and line offset table.
type File struct {
	name string
	size int

	mutex sync.RWMutex
	lines []int // offset of the first byte of each line; lines[0] == 0
}

// NewFile returns a new file with the given name. The size is the size of
// the whole file in bytes.
func NewFile(filename string, size int) *File {
	return &File{
		name:  filename,
		size:  size,
		lines: []int{0},
	}
}

// NewFileContent returns a file with its line table computed from content.
func NewFileContent(filename string, content []byte) *File {
	f := NewFile(filename, len(content))
	f.SetLinesForContent(content)
	return f
}

// Name returns the file name of f.
func (f *File) Name() string { return f.name }

// Size returns the size of f as passed to NewFile.
func (f *File) Size() int { return f.size }

// LineCount returns the number of lines in f.
func (f *File) LineCount() int {
	f.mutex.RLock()
	n := len(f.lines)
	f.mutex.RUnlock()
	return n
}

// AddLine adds the line offset for a new line.
// The line offset must be larger than the offset for the previous line
// and smaller than the file size; otherwise the line offset is ignored.
func (f *File) AddLine(offset int) {
	f.mutex.Lock()
	if i := len(f.lines); (i == 0 || f.lines[i-1] < offset) && offset < f.size {
		f.lines = append(f.lines, offset)
	}
	f.mutex.Unlock()
}

// SetLinesForContent sets the line offsets for the given file content.
func (f *File) SetLinesForContent(content []byte) {
	lines := []int{0}
	for offset, b := range content {
		if b == '\n' && offset+1 < len(content) {
			lines = append(lines, offset+1)
		}
	}
	f.mutex.Lock()
	f.lines = lines
	f.mutex.Unlock()
}

// Pos returns the Pos value for the given file offset. Offsets outside the
// file are clamped to its bounds. A nil File yields NoPos.
func (f *File) Pos(offset int) Pos {
	if f == nil {
		return NoPos
	}
	return Pos{f, f.fixOffset(offset)}
}

func (f *File) fixOffset(offset int) int {
	switch {
	case offset < 0:
		return 0
	case offset > f.size:
		return f.size
	default:
		return offset
	}
}

// Position returns the Position value for the given file offset.
func (f *File) Position(offset int) (pos Position) {
	offset = f.fixOffset(offset)
	pos.Filename = f.name
	pos.Offset = offset
	f.mutex.RLock()
	if i := searchInts(f.lines, offset); i >= 0 {
		pos.Line, pos.Column = i+1, offset-f.lines[i]+1
	}
	f.mutex.RUnlock()
	return pos
}

func searchInts(a []int, x int) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > x }) - 1
}
