// Copyright 2025 Google LLC
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

// Package fmt provides utility methods for building string representations of expressions and forms.
package fmt

import (
	"fmt"
	"strings"
)

// Number prefixes every line of a string with its line number.
// Numbers are padded with zeros to have the same width.
func Number(x string) string {
	lines := strings.SplitAfter(x, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	width := len(fmt.Sprint(len(lines)))
	var s strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&s, "%0*d %s", width, i+1, line)
	}
	return s.String()
}

// IndentSkip indents all the lines of a string with a tabulation
// except the first skip lines.
func IndentSkip(skip int, x string) string {
	var y strings.Builder
	for n, line := range strings.SplitAfter(x, "\n") {
		if line == "" {
			continue
		}
		if n >= skip {
			y.WriteByte('\t')
		}
		y.WriteString(line)
	}
	return y.String()
}

// Indent the given string by a tabulation.
func Indent(x string) string {
	return IndentSkip(0, x)
}
