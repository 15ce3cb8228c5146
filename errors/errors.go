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

// Package errors defines shared types for positioned errors.
package errors // import "gradual.dev/go/errors"

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/xerrors"

	"gradual.dev/go/token"
)

// New is a convenience wrapper for errors.New in the core library.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Error is the common error message.
type Error interface {
	// Position returns where the error occurred.
	Position() token.Position

	// Error reports the error message without position information.
	Error() string
}

// posError is an error with an optional position and underlying cause.
type posError struct {
	pos token.Position
	msg string

	// The underlying error that triggered this one, if any.
	err error
}

// Newf creates an Error at the given position.
func Newf(pos token.Position, format string, args ...any) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...)}
}

// Wrapf creates an Error at the given position that wraps err.
func Wrapf(err error, pos token.Position, format string, args ...any) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...), err: err}
}

// Promote converts a regular Go error to an Error if it isn't already one.
func Promote(err error, msg string) Error {
	switch x := err.(type) {
	case Error:
		return x
	default:
		return Wrapf(err, token.Position{}, "%s", msg)
	}
}

func (e *posError) Position() token.Position { return e.pos }

func (e *posError) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *posError) Unwrap() error { return e.err }

// List is a list of Errors.
// The zero value for a List is an empty List ready to use.
type List []Error

// AddNew adds an Error with given position and error message to a List.
func (p *List) AddNew(pos token.Position, msg string) {
	*p = append(*p, &posError{pos: pos, msg: msg})
}

// Add adds err to the List. Lists are flattened.
func (p *List) Add(err error) {
	switch x := err.(type) {
	case nil:
	case List:
		*p = append(*p, x...)
	case Error:
		*p = append(*p, x)
	default:
		*p = append(*p, &posError{err: err})
	}
}

// List implements the sort Interface.
func (p List) Len() int      { return len(p) }
func (p List) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p List) Less(i, j int) bool {
	e := p[i].Position()
	f := p[j].Position()
	if e.Filename != f.Filename {
		return e.Filename < f.Filename
	}
	if e.Line != f.Line {
		return e.Line < f.Line
	}
	if e.Column != f.Column {
		return e.Column < f.Column
	}
	return p[i].Error() < p[j].Error()
}

// Sort sorts a List by file, line and column, and then by message.
func (p List) Sort() {
	sort.Sort(p)
}

// An List implements the error interface.
func (p List) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Print is a utility function that prints a list of errors to w,
// one error per line, if the err parameter is a List. Otherwise
// it prints the err string.
func Print(w io.Writer, err error) {
	var list List
	if errors.As(err, &list) {
		for _, e := range list {
			printError(w, e)
		}
	} else if err != nil {
		printError(w, err)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%v", err)
	printedColon := false
	seen := map[token.Position]bool{}
	for ; err != nil; err = xerrors.Unwrap(err) {
		x, ok := err.(interface{ Position() token.Position })
		if !ok {
			continue
		}
		pos := x.Position()
		if !pos.IsValid() || seen[pos] {
			continue
		}
		seen[pos] = true
		if !printedColon {
			fmt.Fprint(w, ":")
			printedColon = true
		}
		fmt.Fprintf(w, "\n    %v", pos)
	}
	fmt.Fprintln(w)
}
