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

package expr

import (
	"fmt"
	"strings"

	"github.com/gx-org/varform/base/uname"
)

// Graph returns a listing of the nodes of an expression graph, one node per
// line, with operands listed before the nodes using them. A node shared by
// several parents is listed once and referred to by its name.
func Graph(root *Expr) string {
	names := uname.New()
	nodeNames := make(map[ID]string)
	var s strings.Builder
	for e := range PostOrder(root) {
		name := names.Name(e.kind.String())
		nodeNames[e.id] = name
		fmt.Fprintf(&s, "%s = ", name)
		if e.IsTerminal() {
			s.WriteString(e.terminalString())
		} else {
			ops := make([]string, len(e.operands))
			for i, op := range e.operands {
				ops[i] = nodeNames[op.id]
			}
			s.WriteString(e.kind.String())
			s.WriteString("(")
			s.WriteString(strings.Join(ops, ", "))
			if len(e.indices) > 0 {
				fmt.Fprintf(&s, "; %s", e.indices)
			}
			s.WriteString(")")
		}
		if len(e.shape) > 0 || len(e.free) > 0 {
			fmt.Fprintf(&s, " : %s%s", e.shape, e.free)
		}
		s.WriteString("\n")
	}
	return s.String()
}
