package template

import (
	"fmt"
	"sort"
	"strings"
)

// Pseudo parameters understood by the evaluator. Account and region are
// never read from live state; without an explicit override they widen to
// a wildcard segment.
const (
	PseudoAccountID = "AWS::AccountId"
	PseudoRegion    = "AWS::Region"
	PseudoPartition = "AWS::Partition"
	PseudoStackName = "AWS::StackName"
	PseudoNoValue   = "AWS::NoValue"
	PseudoURLSuffix = "AWS::URLSuffix"
)

// Parameter is a template parameter definition.
type Parameter struct {
	Name       string
	Type       string
	Default    string
	HasDefault bool
}

// Output is a template output definition.
type Output struct {
	Name  string
	Value Value
}

// Resource is one declared infrastructure entity. Immutable once parsed;
// lifetime is a single synthesis run.
type Resource struct {
	LogicalID  string
	Type       string
	Properties Map
	DependsOn  []string
}

// Template is the in-memory representation of a parsed CloudFormation
// template. ResourceIDs preserves declaration order so synthesis output
// is stable across runs.
type Template struct {
	Transforms  []string
	Parameters  map[string]Parameter
	Resources   map[string]*Resource
	ResourceIDs []string
	Outputs     map[string]Output
}

// IsPseudo reports whether a Ref target is a pseudo parameter.
func IsPseudo(target string) bool {
	switch target {
	case PseudoAccountID, PseudoRegion, PseudoPartition,
		PseudoStackName, PseudoNoValue, PseudoURLSuffix:
		return true
	}
	return strings.HasPrefix(target, "AWS::")
}

// MalformedError is the only fatal error class of a synthesis run: the
// template graph is structurally invalid and no partial policy is produced.
type MalformedError struct {
	LogicalIDs []string
	Reasons    []string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed template (%s): %s",
		strings.Join(e.LogicalIDs, ", "), strings.Join(e.Reasons, "; "))
}

// Validate checks the structural invariants: every resource has a type and
// every reference resolves to a declared resource, parameter, or pseudo
// parameter. Duplicate logical ids are caught earlier, at decode time.
func (t *Template) Validate() error {
	var bad []string
	var reasons []string

	flag := func(id, reason string) {
		bad = append(bad, id)
		reasons = append(reasons, reason)
	}

	for _, id := range t.ResourceIDs {
		res := t.Resources[id]
		if res.Type == "" {
			flag(id, fmt.Sprintf("resource %q has no Type", id))
		}
		for _, target := range collectRefs(res.Properties) {
			if !t.declares(target) {
				flag(id, fmt.Sprintf("resource %q references undeclared %q", id, target))
			}
		}
		for _, dep := range res.DependsOn {
			if _, ok := t.Resources[dep]; !ok {
				flag(id, fmt.Sprintf("resource %q depends on undeclared %q", id, dep))
			}
		}
	}

	for _, name := range sortedOutputNames(t.Outputs) {
		out := t.Outputs[name]
		for _, target := range collectRefs(out.Value) {
			if !t.declares(target) {
				flag(name, fmt.Sprintf("output %q references undeclared %q", name, target))
			}
		}
	}

	if len(bad) > 0 {
		return &MalformedError{LogicalIDs: dedupe(bad), Reasons: reasons}
	}
	return nil
}

func (t *Template) declares(target string) bool {
	if IsPseudo(target) {
		return true
	}
	if _, ok := t.Resources[target]; ok {
		return true
	}
	_, ok := t.Parameters[target]
	return ok
}

func sortedOutputNames(outputs map[string]Output) []string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
