// Copyright (C) 2024 The Megrez Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package megrez

import "github.com/lineCode/Megrez/internal/xlog"

// Config controls how a Parser behaves. A nil Config, or any zero fields
// within one, falls back to the defaults documented on each field.
type Config struct {
	// Logger receives parse diagnostics. Defaults to xlog.Discard.
	Logger xlog.Logger

	// MaxNestingDepth bounds how deeply a data literal may nest structs,
	// infos and vectors inside one another before Parse fails rather than
	// recursing further. Zero means DefaultMaxNestingDepth.
	MaxNestingDepth int
}

// DefaultMaxNestingDepth is the nesting bound applied when Config is nil
// or its MaxNestingDepth is zero.
const DefaultMaxNestingDepth = 200

func (c *Config) logger() xlog.Logger {
	if c == nil || c.Logger == nil {
		return xlog.Discard
	}
	return c.Logger
}

func (c *Config) maxNestingDepth() int {
	if c == nil || c.MaxNestingDepth == 0 {
		return DefaultMaxNestingDepth
	}
	return c.MaxNestingDepth
}
