package plan

import (
	"fmt"
	"slices"
	"strings"
)

// Definition is a YAML-defined set of named graphs.
type Definition struct {
	// Name identifies the plan in logs and traces.
	Name string `yaml:"name" validate:"required"`
	// Output names the graph whose rows the plan produces.
	Output string `yaml:"output" validate:"required"`
	// Graphs holds the graph definitions by name.
	Graphs map[string]GraphDef `yaml:"graphs" validate:"required,min=1,dive"`
}

// GraphDef defines one graph. It either reads a named input or extends
// another graph of the same plan.
type GraphDef struct {
	// Input is the binding name this graph reads.
	Input string `yaml:"input,omitempty" validate:"required_without=From,excluded_with=From"`
	// From names the graph this one continues.
	From string `yaml:"from,omitempty"`
	// Stages are appended in order.
	Stages []StageDef `yaml:"stages,omitempty" validate:"dive"`
}

// StageDef defines a single stage. Exactly one of Map, Reduce, Sort and
// Join is set.
type StageDef struct {
	// Map is the registered mapper name.
	Map string `yaml:"map,omitempty"`
	// Reduce is the registered reducer name.
	Reduce string `yaml:"reduce,omitempty"`
	// Sort lists the sort key fields.
	Sort []string `yaml:"sort,omitempty"`
	// Join names the right-hand graph.
	Join string `yaml:"join,omitempty"`
	// Keys are the Reduce or Join key fields.
	Keys []string `yaml:"keys,omitempty"`
	// Strategy is the join strategy; inner when empty.
	Strategy string `yaml:"strategy,omitempty" validate:"omitempty,oneof=inner left right full"`
	// Suffixes overrides the join collision suffixes as [left, right].
	Suffixes []string `yaml:"suffixes,omitempty" validate:"omitempty,len=2,dive,required"`
	// Args are passed to the mapper or reducer factory.
	Args Args `yaml:"args,omitempty"`
}

// Kind returns which stage kind s defines, or "" when none or several are set.
func (s StageDef) Kind() string {
	var kinds []string
	if s.Map != "" {
		kinds = append(kinds, "map")
	}
	if s.Reduce != "" {
		kinds = append(kinds, "reduce")
	}
	if len(s.Sort) > 0 {
		kinds = append(kinds, "sort")
	}
	if s.Join != "" {
		kinds = append(kinds, "join")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Validate checks struct tags and the cross references between graphs.
func (d *Definition) Validate() error {
	if err := validateStruct(d); err != nil {
		return err
	}
	var problems []string
	if _, ok := d.Graphs[d.Output]; !ok {
		problems = append(problems, fmt.Sprintf("output graph %q is not defined", d.Output))
	}
	for _, name := range sortedKeys(d.Graphs) {
		g := d.Graphs[name]
		if g.From != "" {
			if _, ok := d.Graphs[g.From]; !ok {
				problems = append(problems, fmt.Sprintf("graph %q extends undefined graph %q", name, g.From))
			}
		}
		for i, s := range g.Stages {
			if s.Kind() == "" {
				problems = append(problems, fmt.Sprintf("graph %q stage %d must set exactly one of map, reduce, sort, join", name, i))
				continue
			}
			if s.Join != "" {
				if _, ok := d.Graphs[s.Join]; !ok {
					problems = append(problems, fmt.Sprintf("graph %q stage %d joins undefined graph %q", name, i, s.Join))
				}
			}
		}
	}
	if len(problems) > 0 {
		return invalid(strings.Join(problems, "; "))
	}
	return nil
}

// Inputs returns the sorted binding names the plan reads.
func (d *Definition) Inputs() []string {
	var names []string
	for _, g := range d.Graphs {
		if g.Input != "" && !slices.Contains(names, g.Input) {
			names = append(names, g.Input)
		}
	}
	slices.Sort(names)
	return names
}
