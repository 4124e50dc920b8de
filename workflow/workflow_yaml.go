package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalmesh/reactor/harness"
)

type (
	// Registry resolves the named references a YAML document can make but
	// cannot itself express: Go predicates and harness adapters. A
	// predicate over state, in particular, has no YAML representation, so
	// Parse/LoadFile wire a named EndWhen from the Registry the caller
	// supplies (SPEC_FULL.md §1.4).
	Registry struct {
		EndWhens  map[string]EndWhen
		Harnesses map[string]harness.Adapter
		Guards    map[string]Guard
	}

	// yamlDoc mirrors the on-disk shape of a workflow YAML document. Agents
	// is kept as a raw yaml.Node (a YAML mapping), not a Go map, because map
	// iteration order is randomized and spec.md §4.5's tie-break rule
	// requires agents to be registered — and so scheduled, when multiple
	// match the same signal — in the order they appear in the document.
	yamlDoc struct {
		InitialState   map[string]any `yaml:"initialState"`
		EndWhen        string         `yaml:"endWhen"`
		DefaultHarness string         `yaml:"defaultHarness"`
		Agents         yaml.Node      `yaml:"agents"`
	}

	yamlAgent struct {
		Prompt     string   `yaml:"prompt"`
		ActivateOn []string `yaml:"activateOn"`
		Emits      []string `yaml:"emits"`
		When       string   `yaml:"when"`
		Updates    string   `yaml:"updates"`
		Harness    string   `yaml:"harness"`
	}
)

// NewRegistry returns an empty Registry ready for population.
func NewRegistry() *Registry {
	return &Registry{
		EndWhens:  map[string]EndWhen{},
		Harnesses: map[string]harness.Adapter{},
		Guards:    map[string]Guard{},
	}
}

// LoadFile reads path and parses it as a workflow document, resolving named
// references against reg.
func LoadFile(path string, reg *Registry) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	return Parse(data, reg)
}

// Parse decodes a workflow YAML document and resolves its named endWhen,
// default harness, per-agent harness overrides, and per-agent guards
// against reg, then builds and validates the resulting Workflow.
func Parse(data []byte, reg *Registry) (*Workflow, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow: parse: %w", err)
	}

	b := NewBuilder().WithInitialState(doc.InitialState)

	if doc.EndWhen != "" {
		fn, ok := reg.EndWhens[doc.EndWhen]
		if !ok {
			return nil, fmt.Errorf("workflow: endWhen %q not found in registry", doc.EndWhen)
		}
		b = b.WithEndWhen(fn)
	}

	if doc.DefaultHarness != "" {
		h, ok := reg.Harnesses[doc.DefaultHarness]
		if !ok {
			return nil, fmt.Errorf("workflow: defaultHarness %q not found in registry", doc.DefaultHarness)
		}
		b = b.WithDefaultHarness(h)
	}

	agents, err := decodeAgentsInOrder(doc.Agents)
	if err != nil {
		return nil, err
	}

	for _, na := range agents {
		name, ya := na.name, na.agent
		agent := Agent{
			Name:       name,
			Prompt:     ya.Prompt,
			ActivateOn: ya.ActivateOn,
			Emits:      ya.Emits,
			Updates:    ya.Updates,
		}
		if ya.When != "" {
			g, ok := reg.Guards[ya.When]
			if !ok {
				return nil, fmt.Errorf("workflow: agent %q: when %q not found in registry", name, ya.When)
			}
			agent.When = g
		}
		if ya.Harness != "" {
			h, ok := reg.Harnesses[ya.Harness]
			if !ok {
				return nil, fmt.Errorf("workflow: agent %q: harness %q not found in registry", name, ya.Harness)
			}
			agent.Harness = h
		}
		b = b.AddAgent(agent)
	}

	return b.Build()
}

type namedAgent struct {
	name  string
	agent yamlAgent
}

// decodeAgentsInOrder walks node's mapping content in document order
// (alternating key node, value node) rather than through a Go map, so the
// agents slice preserves the YAML source's declaration order exactly.
func decodeAgentsInOrder(node yaml.Node) ([]namedAgent, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("workflow: agents must be a mapping")
	}
	agents := make([]namedAgent, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var ya yamlAgent
		if err := valNode.Decode(&ya); err != nil {
			return nil, fmt.Errorf("workflow: agent %q: %w", keyNode.Value, err)
		}
		agents = append(agents, namedAgent{name: keyNode.Value, agent: ya})
	}
	return agents, nil
}
