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

import "sync"

// A Contract serializes resolutions against one logical contract instance,
// so that paired flags are never observed half-updated by a concurrent
// check.
type Contract struct {
	mu   sync.Mutex
	tree *Tree
}

// NewContract returns a Contract guarding t. The caller must not use t
// directly afterwards.
func NewContract(t *Tree) *Contract {
	return &Contract{tree: t}
}

// Check runs Solve to completion while holding the contract's lock.
func (c *Contract) Check(n Node, p Polarity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Solve(n, p)
}

// Snapshot returns a copy of the flag table.
func (c *Contract) Snapshot() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.FlagTable()
}
