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

package label

import (
	"context"
	"fmt"
	"log/slog"

	"gradual.dev/go/errors"
	"gradual.dev/go/internal/labeldebug"
	"gradual.dev/go/token"
)

// A Blame is the outcome of a resolution that reached a root obligation.
// Root.Polarity is the polarity in effect on arrival.
//
// A Blame does not by itself mean the contract was violated: it means no
// rule discharged the obligation, so the caller must enforce it.
type Blame struct {
	Root Root
}

// Error implements the error interface.
func (b *Blame) Error() string {
	return fmt.Sprintf("blame %s (%s) at %s", b.Root.Tag, b.Root.Polarity, b.Root.Span())
}

// Position returns the start of the blamed span.
func (b *Blame) Position() token.Position {
	return b.Root.Span().Start().Position()
}

var _ errors.Error = (*Blame)(nil)

// AsBlame reports whether err is, or wraps, a Blame.
func AsBlame(err error) (*Blame, bool) {
	var b *Blame
	ok := errors.As(err, &b)
	return b, ok
}

// Discharged reports whether the result of Solve discharged the obligation.
func Discharged(err error) bool { return err == nil }

// Solve resolves the obligation rooted at n under polarity p. It returns nil
// if the obligation is discharged and a *Blame if resolution reaches a root.
// The only side effect is setting flags.
//
// Within a single call each flag write happens before the read of its
// paired flag. Other errors are reported only for handles that are not
// part of t, or for malformed trees when LABEL_DEBUG=strict is in effect.
func (t *Tree) Solve(n Node, p Polarity) error {
	if labeldebug.Flags.Strict {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if !t.validNode(n) {
		return fmt.Errorf("solve %v: %w", n, ErrInvalid)
	}
	// Children always precede their parent, so n decreases on every step.
	for {
		x := t.at(n)
		in := p
		switch x.kind {
		case RootKind:
			r := x.root
			r.Polarity = p
			t.trace(n, x.kind, p, "blame")
			return &Blame{Root: r}

		case DomainKind:
			t.flags[x.a-1] = true
			p = p.Flip()

		case CodomainKind:
			if t.flags[x.a-1] {
				t.trace(n, x.kind, in, "discharged")
				return nil
			}

		case GuardKind:
			if !t.flags[x.a-1] && p == Negative {
				t.trace(n, x.kind, in, "discharged")
				return nil
			}

		case IntersectionKind:
			if p == Negative && !t.rendezvous(x) {
				t.trace(n, x.kind, in, "discharged")
				return nil
			}

		case UnionKind:
			if p == Positive && !t.rendezvous(x) {
				t.trace(n, x.kind, in, "discharged")
				return nil
			}
		}
		t.trace(n, x.kind, in, "descend")
		n = x.child
	}
}

// rendezvous marks x's own flag and reports whether its counterpart has
// already marked the other.
func (t *Tree) rendezvous(x *node) bool {
	t.flags[x.a-1] = true
	return t.flags[x.b-1]
}

func (t *Tree) trace(n Node, k Kind, p Polarity, outcome string) {
	if t.logger == nil {
		return
	}
	t.logger.LogAttrs(context.Background(), slog.LevelDebug, "solve",
		slog.String("node", n.String()),
		slog.String("kind", k.String()),
		slog.String("polarity", p.Sign()),
		slog.String("outcome", outcome),
	)
}
