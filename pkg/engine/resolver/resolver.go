// Package resolver turns a resource's declared identity into a scoped
// ARN pattern. Resolution is deterministic and side-effect-free: no
// network calls and no assumptions about account state.
package resolver

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws/arn"

	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
	"github.com/DrSkyle/stackmint/pkg/template"
)

// Confidence grades how tightly a pattern is scoped. It governs which
// patterns the assembler may merge.
type Confidence string

const (
	Exact      Confidence = "exact"
	Derived    Confidence = "derived"
	Unresolved Confidence = "unresolved"
)

// Pattern is a resource-matching ARN pattern. Namespace is the full
// wildcard for the resource type, kept alongside so budget widening can
// degrade Value without recomputing catalog data.
type Pattern struct {
	Value      string
	Namespace  string
	Confidence Confidence

	// Cycle carries the logical ids of a circular name reference hit
	// during resolution, if any.
	Cycle []string
	// UnsupportedFn names an intrinsic outside the evaluable grammar
	// that forced this pattern to unresolved, if any.
	UnsupportedFn string
}

// Resolver resolves patterns against one catalog snapshot and one set of
// parameter/pseudo values. Safe for concurrent use; it holds no mutable
// state.
type Resolver struct {
	cat    *catalog.Catalog
	params map[string]string
	pseudo map[string]string
}

// New builds a resolver. params are externally supplied parameter values
// (these win over template defaults); pseudo optionally pins
// AWS::Partition, AWS::Region, AWS::AccountId or AWS::StackName.
func New(cat *catalog.Catalog, params, pseudo map[string]string) *Resolver {
	return &Resolver{cat: cat, params: params, pseudo: pseudo}
}

// Resolve computes the pattern for one resource. Unknown types and
// undeterminable names fall back to the broadest safe pattern rather than
// failing.
func (r *Resolver) Resolve(res *template.Resource, tmpl *template.Template) Pattern {
	entry, ok := r.cat.Entry(res.Type)
	if !ok || entry.ARN.Service == "" {
		return Pattern{Value: "*", Namespace: "*", Confidence: Unresolved}
	}

	namespace := r.arnFor(entry.ARN, "*")
	if entry.NameProperty == "" {
		// Physical id is generated at deploy time.
		return Pattern{Value: namespace, Namespace: namespace, Confidence: Unresolved}
	}

	// A name property declared as a direct literal string is the only
	// case graded exact; everything recovered through a reference chain
	// is at best derived.
	if lit, ok := res.Properties[entry.NameProperty].(template.String); ok {
		if lit == "" {
			return Pattern{Value: namespace, Namespace: namespace, Confidence: Unresolved}
		}
		return Pattern{
			Value:      r.arnFor(entry.ARN, string(lit)),
			Namespace:  namespace,
			Confidence: Exact,
		}
	}

	env := &template.Env{
		Template:     tmpl,
		Parameters:   r.params,
		Pseudo:       r.pseudo,
		NameProperty: r.cat.NameProperty,
	}
	resolution := env.ResolveName(res.LogicalID)

	p := Pattern{
		Namespace:     namespace,
		Cycle:         resolution.Cycle,
		UnsupportedFn: resolution.UnsupportedFn,
	}

	// A circular name derivation can never be trusted, whatever prefix
	// survived the walk.
	if len(resolution.Cycle) > 0 {
		p.Value = namespace
		p.Confidence = Unresolved
		return p
	}

	switch resolution.Kind {
	case template.KindLiteral:
		if resolution.Text == "" {
			p.Value = namespace
			p.Confidence = Unresolved
			return p
		}
		// Chain terminated in literals: the value is complete but the
		// derivation passed through references.
		p.Value = r.arnFor(entry.ARN, resolution.Text)
		p.Confidence = Derived
	case template.KindPrefix:
		p.Value = r.arnFor(entry.ARN, resolution.Text+"*")
		p.Confidence = Derived
	default:
		p.Value = namespace
		p.Confidence = Unresolved
	}
	return p
}

// arnFor assembles the ARN for a shape and physical name. Region and
// account segments widen to "*" unless pinned via pseudo values; the
// resource's identity lives in the name segment.
func (r *Resolver) arnFor(shape catalog.ARNShape, name string) string {
	partition := r.pseudoValue(template.PseudoPartition, "aws")

	a := arn.ARN{
		Partition: partition,
		Service:   shape.Service,
		Resource:  fmt.Sprintf(shape.Format, name),
	}
	if !shape.NoRegion {
		a.Region = r.pseudoValue(template.PseudoRegion, "*")
	}
	if !shape.NoAccount {
		a.AccountID = r.pseudoValue(template.PseudoAccountID, "*")
	}
	return a.String()
}

func (r *Resolver) pseudoValue(key, fallback string) string {
	if v, ok := r.pseudo[key]; ok && v != "" {
		return v
	}
	return fallback
}
