// Package assemble merges per-resource grants into the smallest correct
// statement set: one statement per action-set equivalence class, with
// deduplicated, subsumption-reduced resource patterns and deterministic
// ordering.
package assemble

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DrSkyle/stackmint/pkg/engine/policy"
	"github.com/DrSkyle/stackmint/pkg/engine/resolver"
)

// Grant couples one resource's required actions with its resolved pattern.
type Grant struct {
	Actions []string
	Pattern resolver.Pattern
}

// Widening records one budget-forced degradation: a statement's resource
// list replaced by the type namespaces (or the full wildcard).
type Widening struct {
	Sid  string
	From []string
	To   []string
}

// Outcome is the assembly result. OverBudget is set when even a fully
// widened document exceeds the budget; actions are never dropped to fit.
type Outcome struct {
	Document   policy.Document
	Widenings  []Widening
	OverBudget bool
}

// Assemble builds the policy document. budget <= 0 disables the size
// check. Output is byte-identical across runs for the same input.
func Assemble(grants []Grant, budget int) (Outcome, error) {
	groups := groupGrants(grants)

	statements := make([]policy.Statement, len(groups))
	for i, g := range groups {
		statements[i] = policy.Statement{
			Effect:   policy.EffectAllow,
			Action:   g.actions,
			Resource: g.resources,
		}
	}
	// Sids are positional after the final sort, so they are stable too.
	for i := range statements {
		statements[i].Sid = sid(i)
		groups[i].sid = statements[i].Sid
	}

	out := Outcome{Document: policy.New(statements)}
	if budget <= 0 {
		return out, nil
	}

	size, err := out.Document.CompactSize()
	if err != nil {
		return Outcome{}, err
	}
	for size > budget {
		idx := nextWidening(groups, out.Document.Statement)
		if idx < 0 {
			out.OverBudget = true
			break
		}
		stmt := &out.Document.Statement[idx]
		widened := groups[idx].namespaces()
		out.Widenings = append(out.Widenings, Widening{
			Sid:  stmt.Sid,
			From: stmt.Resource,
			To:   widened,
		})
		stmt.Resource = widened
		groups[idx].widened = true

		size, err = out.Document.CompactSize()
		if err != nil {
			return Outcome{}, err
		}
	}
	return out, nil
}

type group struct {
	sig       string
	sid       string
	actions   []string
	patterns  []resolver.Pattern
	resources []string
	widened   bool
}

// namespaces is the widened resource list for a group.
func (g *group) namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range g.patterns {
		ns := p.Namespace
		if ns == "" {
			ns = "*"
		}
		if !seen[ns] {
			seen[ns] = true
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}

// hasDerived reports whether any pattern in the group still carries
// name-derived scoping worth trading away first.
func (g *group) hasDerived() bool {
	for _, p := range g.patterns {
		if p.Confidence == resolver.Derived {
			return true
		}
	}
	return false
}

func groupGrants(grants []Grant) []*group {
	bySig := make(map[string]*group)
	for _, grant := range grants {
		actions := dedupeSorted(grant.Actions)
		if len(actions) == 0 {
			continue
		}
		sig := strings.Join(actions, "\x00")
		g, ok := bySig[sig]
		if !ok {
			g = &group{sig: sig, actions: actions}
			bySig[sig] = g
		}
		g.patterns = append(g.patterns, grant.Pattern)
	}

	groups := make([]*group, 0, len(bySig))
	for _, g := range bySig {
		g.resources = reducePatterns(g.patterns)
		groups = append(groups, g)
	}
	// Stable output order: action-set signature, then first pattern.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].sig != groups[j].sig {
			return groups[i].sig < groups[j].sig
		}
		return groups[i].resources[0] < groups[j].resources[0]
	})
	return groups
}

// reducePatterns deduplicates pattern values, collapses multiple distinct
// unresolved patterns to the full wildcard, and drops any value already
// covered by a wildcard pattern in the same set. Merging never invents a
// broader prefix: distinct exact names stay listed side by side.
func reducePatterns(patterns []resolver.Pattern) []string {
	unresolved := make(map[string]bool)
	seen := make(map[string]bool)
	var values []string
	for _, p := range patterns {
		v := p.Value
		if v == "" {
			v = "*"
		}
		if p.Confidence == resolver.Unresolved {
			unresolved[v] = true
		}
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}

	// Two or more distinct unresolved namespaces under one action set
	// collapse to the full wildcard.
	if len(unresolved) > 1 && !seen["*"] {
		values = append(values, "*")
	}

	// Keep broader patterns first so anything they cover drops out.
	sort.Slice(values, func(i, j int) bool {
		if len(values[i]) != len(values[j]) {
			return len(values[i]) < len(values[j])
		}
		return values[i] < values[j]
	})
	var reduced []string
	for _, v := range values {
		if !coveredByAny(v, reduced) {
			reduced = append(reduced, v)
		}
	}
	sort.Strings(reduced)
	return reduced
}

// coveredByAny reports whether a kept pattern already matches everything
// v matches.
func coveredByAny(v string, kept []string) bool {
	for _, other := range kept {
		if strings.HasSuffix(other, "*") && strings.HasPrefix(v, strings.TrimSuffix(other, "*")) {
			return true
		}
	}
	return false
}

// nextWidening picks the statement to widen: derived-bearing groups go
// first (least specific content), larger resource lists first within a
// class, index order as the final tie-break.
func nextWidening(groups []*group, statements []policy.Statement) int {
	best := -1
	bestDerived := false
	bestLen := -1
	for i, g := range groups {
		if g.widened {
			continue
		}
		if equalStrings(statements[i].Resource, g.namespaces()) {
			continue // nothing to trade
		}
		derived := g.hasDerived()
		length := totalLen(statements[i].Resource)
		if best < 0 ||
			(derived && !bestDerived) ||
			(derived == bestDerived && length > bestLen) {
			best, bestDerived, bestLen = i, derived, length
		}
	}
	return best
}

func totalLen(values []string) int {
	n := 0
	for _, v := range values {
		n += len(v)
	}
	return n
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func sid(i int) string {
	return "Stmt" + strconv.Itoa(i)
}
