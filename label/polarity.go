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

import "fmt"

// Polarity records on which side of a contract boundary an obligation
// currently sits. It flips at every function domain.
type Polarity bool

const (
	// Positive is the covariant polarity: the value's provider is at fault.
	Positive Polarity = true

	// Negative is the contravariant polarity: the value's context is at fault.
	Negative Polarity = false
)

// Flip returns the opposite polarity.
func (p Polarity) Flip() Polarity { return !p }

func (p Polarity) String() string {
	if p {
		return "positive"
	}
	return "negative"
}

// Sign returns "+" or "-".
func (p Polarity) Sign() string {
	if p {
		return "+"
	}
	return "-"
}

// ParsePolarity accepts "+", "-", "positive", "negative", "true" and "false".
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "+", "positive", "true":
		return Positive, nil
	case "-", "negative", "false":
		return Negative, nil
	}
	return false, fmt.Errorf("invalid polarity %q", s)
}
