// Package catalog is the data-driven registry mapping CloudFormation
// resource types to the IAM actions a deployment role needs per lifecycle
// phase, plus the capability flags each type demands. One data source,
// two lookup axes.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Phase is a resource lifecycle phase.
type Phase string

const (
	PhaseCreate Phase = "create"
	PhaseUpdate Phase = "update"
	PhaseDelete Phase = "delete"
	PhaseRead   Phase = "read"
)

// Phases lists all phases in canonical order.
var Phases = []Phase{PhaseCreate, PhaseUpdate, PhaseDelete, PhaseRead}

// ErrUnknownResourceType is returned on a catalog miss. Callers must treat
// it as a soft failure and substitute the service-wide fallback; templates
// routinely carry types newer than the catalog.
var ErrUnknownResourceType = errors.New("unknown resource type")

// ARNShape describes how a resource type's ARN is assembled from its
// physical name. Format carries a single %s for the name segment.
type ARNShape struct {
	Service   string `yaml:"service"`
	Format    string `yaml:"format"`
	NoRegion  bool   `yaml:"no_region"`
	NoAccount bool   `yaml:"no_account"`
}

// Entry is the catalog record for one resource type. NameProperty is empty
// for types whose physical identifier is generated at deploy time; their
// patterns can never be better than the namespace wildcard.
type Entry struct {
	NameProperty string
	ARN          ARNShape
	Actions      map[Phase][]string
	Capabilities []string
}

// Catalog is read-only after construction. Refreshing entries happens by
// building a new catalog and swapping it between runs, never in place.
type Catalog struct {
	version string
	entries map[string]Entry
}

// Builtin returns the built-in catalog.
func Builtin() *Catalog {
	return &Catalog{version: builtinVersion, entries: builtinEntries}
}

// Version identifies the catalog data revision.
func (c *Catalog) Version() string {
	return c.version
}

// Lookup returns the actions required for (resourceType, phase). A miss on
// the type returns ErrUnknownResourceType; a known type with no actions
// for the phase returns an empty set.
func (c *Catalog) Lookup(resourceType string, phase Phase) ([]string, error) {
	e, ok := c.entries[resourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResourceType, resourceType)
	}
	actions := e.Actions[phase]
	out := make([]string, len(actions))
	copy(out, actions)
	return out, nil
}

// Entry returns the full record for a resource type. The record is a deep
// copy; callers cannot reach the shared table through it.
func (c *Catalog) Entry(resourceType string) (Entry, bool) {
	e, ok := c.entries[resourceType]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

func (e Entry) clone() Entry {
	out := e
	if e.Actions != nil {
		out.Actions = make(map[Phase][]string, len(e.Actions))
		for p, a := range e.Actions {
			out.Actions[p] = append([]string(nil), a...)
		}
	}
	out.Capabilities = append([]string(nil), e.Capabilities...)
	return out
}

// NameProperty is the evaluator hook: which property names a resource of
// the given type.
func (c *Catalog) NameProperty(resourceType string) (string, bool) {
	e, ok := c.entries[resourceType]
	if !ok || e.NameProperty == "" {
		return "", false
	}
	return e.NameProperty, true
}

// Types returns the known resource types, sorted.
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// WithOverrides derives a new catalog in which the supplied entries win
// over built-ins per (type, phase) and per capability axis. The receiver
// is never mutated, so in-flight syntheses keep their snapshot.
func (c *Catalog) WithOverrides(overrides map[string]Entry) *Catalog {
	if len(overrides) == 0 {
		return c
	}
	merged := make(map[string]Entry, len(c.entries)+len(overrides))
	for t, e := range c.entries {
		merged[t] = e
	}
	for t, o := range overrides {
		merged[t] = mergeEntry(merged[t], o)
	}
	return &Catalog{version: c.version + "+overrides", entries: merged}
}

func mergeEntry(base, o Entry) Entry {
	out := base
	if o.NameProperty != "" {
		out.NameProperty = o.NameProperty
	}
	if o.ARN.Service != "" {
		out.ARN = o.ARN
	}
	if len(o.Actions) > 0 {
		actions := make(map[Phase][]string, len(base.Actions)+len(o.Actions))
		for p, a := range base.Actions {
			actions[p] = a
		}
		for p, a := range o.Actions {
			actions[p] = a
		}
		out.Actions = actions
	}
	if o.Capabilities != nil {
		out.Capabilities = o.Capabilities
	}
	return out
}

// ServiceOf extracts the service namespace from a resource type string,
// e.g. "AWS::SQS::Queue" -> "sqs". Used for the unknown-type fallback.
func ServiceOf(resourceType string) string {
	parts := strings.Split(resourceType, "::")
	if len(parts) < 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}
