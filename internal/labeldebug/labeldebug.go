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

// Package labeldebug holds the LABEL_DEBUG switches.
package labeldebug

import (
	"sync"

	"gradual.dev/go/internal/envflag"
)

// Flags holds the set of global LABEL_DEBUG flags. It is initialized by Init.
var Flags Config

// Config holds the set of known LABEL_DEBUG flags.
//
// When adding, deleting, or modifying entries below,
// update the help text of cmd/labelsolve as well.
type Config struct {
	// LogSolve logs every resolution rule that fires, at debug level.
	LogSolve bool

	// Strict validates a tree before each resolution.
	Strict bool
}

// Init initializes Flags. It is safe to call more than once; only the
// first call reads the environment.
func Init() error {
	return initOnce()
}

var initOnce = sync.OnceValue(func() error {
	return envflag.Init(&Flags, "LABEL_DEBUG")
})
