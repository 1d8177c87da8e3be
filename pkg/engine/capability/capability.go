// Package capability inspects the resource graph for types that require
// orchestrator-level acknowledgement. Capabilities come off the same
// catalog data the action lookup uses, so caller overrides apply to both
// axes.
package capability

import (
	"sort"

	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
	"github.com/DrSkyle/stackmint/pkg/template"
)

// Set is a monotonic capability set: flags accumulate and are never
// removed for a template.
type Set map[string]struct{}

// Add inserts a capability flag.
func (s Set) Add(cap string) {
	s[cap] = struct{}{}
}

// Has reports whether a flag is present.
func (s Set) Has(cap string) bool {
	_, ok := s[cap]
	return ok
}

// Sorted serializes the set to a stable flat list for the deploy call.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for cap := range s {
		out = append(out, cap)
	}
	sort.Strings(out)
	return out
}

// Detect walks every resource and emits the minimal capability set.
// An identity/access type with a literal name upgrades CAPABILITY_IAM to
// CAPABILITY_NAMED_IAM; template transforms add CAPABILITY_AUTO_EXPAND
// since their expansion is not enumerable statically.
func Detect(tmpl *template.Template, cat *catalog.Catalog) Set {
	set := make(Set)

	for _, id := range tmpl.ResourceIDs {
		res := tmpl.Resources[id]
		entry, ok := cat.Entry(res.Type)
		if !ok {
			continue
		}
		for _, cap := range entry.Capabilities {
			set.Add(cap)
			if cap == catalog.CapabilityIAM && hasLiteralName(res, entry) {
				set.Add(catalog.CapabilityNamedIAM)
			}
		}
	}

	if len(tmpl.Transforms) > 0 {
		set.Add(catalog.CapabilityAutoExpand)
	}
	return set
}

func hasLiteralName(res *template.Resource, entry catalog.Entry) bool {
	if entry.NameProperty == "" {
		return false
	}
	_, ok := res.Properties[entry.NameProperty].(template.String)
	return ok
}
