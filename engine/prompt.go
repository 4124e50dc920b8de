package engine

import (
	"fmt"
	"regexp"

	"github.com/signalmesh/reactor/signal"
)

// bindingPattern matches "{{.State.field}}", "{{.Signal.Name}}", and
// "{{.Signal.ID}}" bindings in an agent's prompt template.
//
// A hand-rolled expander is used here rather than text/template (seen
// throughout the teacher repo, e.g. agent_tools.go's WithTemplate): spec.md
// §4.5 requires missing bindings to render as an empty string, but
// text/template's missingkey=zero option renders a missing map entry's zero
// value ("<nil>"/"<no value>"), not "". Getting that one literal requirement
// right outweighs reusing text/template for a two-binding-kind expander.
var bindingPattern = regexp.MustCompile(`\{\{\s*\.(State\.(\w+)|Signal\.(Name|ID))\s*\}\}`)

// expandPrompt substitutes {state, signal} bindings into prompt, per
// spec.md §4.5 step 4a. Missing state fields render as "".
func expandPrompt(prompt string, state map[string]any, sig signal.Signal) string {
	return bindingPattern.ReplaceAllStringFunc(prompt, func(match string) string {
		groups := bindingPattern.FindStringSubmatch(match)
		switch {
		case groups[2] != "": // State.<field>
			v, ok := state[groups[2]]
			if !ok || v == nil {
				return ""
			}
			return fmt.Sprintf("%v", v)
		case groups[3] == "Name":
			return sig.Name
		case groups[3] == "ID":
			return sig.ID
		default:
			return ""
		}
	})
}
