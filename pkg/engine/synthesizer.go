// Package engine orchestrates template-to-policy synthesis: validate the
// template, look up actions and resolve patterns per resource, detect
// capabilities, and assemble the final document. Synthesis is a pure,
// single-threaded computation over an immutable template and one catalog
// snapshot; runs are independent and may be parallelized by the caller.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/stackmint/pkg/engine/assemble"
	"github.com/DrSkyle/stackmint/pkg/engine/capability"
	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
	"github.com/DrSkyle/stackmint/pkg/engine/policy"
	"github.com/DrSkyle/stackmint/pkg/engine/resolver"
	"github.com/DrSkyle/stackmint/pkg/template"
)

// DefaultBudget is the inline role policy size limit in bytes.
const DefaultBudget = 10240

// Warning codes. Everything here is non-fatal: synthesis computes
// something usable and makes the imprecision explicit.
const (
	WarnUnknownResourceType   = "UnknownResourceType"
	WarnCircularNameReference = "CircularNameReference"
	WarnOpaqueExpansion       = "OpaqueExpansion"
	WarnPolicyBudgetExceeded  = "PolicyBudgetExceeded"
)

// Warning is one non-fatal degradation, attributed to a logical id where
// one applies.
type Warning struct {
	Code      string
	LogicalID string
	Detail    string
}

func (w Warning) String() string {
	if w.LogicalID == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", w.Code, w.LogicalID, w.Detail)
}

// Options configures one synthesis run.
type Options struct {
	// Catalog snapshot; Builtin when nil.
	Catalog *catalog.Catalog
	// Overrides is the caller-supplied correction table, applied on top
	// of the catalog for this run only.
	Overrides map[string]catalog.Entry
	// Parameters are externally supplied parameter values; they win
	// over template defaults.
	Parameters map[string]string
	// Pseudo pins pseudo parameter values (partition, region, account,
	// stack name). Unpinned segments widen to "*".
	Pseudo map[string]string
	// Budget is the policy size budget in bytes; DefaultBudget when 0,
	// negative disables the check.
	Budget int

	Logger *slog.Logger
}

// Result is the synthesis output handed to the provisioning collaborator.
type Result struct {
	Policy       policy.Document
	Capabilities capability.Set
	Warnings     []Warning
}

// Synthesize derives the least-privilege policy document and capability
// set for a template. The only fatal failure is a structurally invalid
// template; every other degradation lands in Result.Warnings.
func Synthesize(ctx context.Context, tmpl *template.Template, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tr := otel.Tracer("stackmint/engine")
	ctx, span := tr.Start(ctx, "synthesize")
	span.SetAttributes(attribute.Int("template.resources", len(tmpl.ResourceIDs)))
	defer span.End()

	if err := validate(ctx, tmpl); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Builtin()
	}
	if len(opts.Overrides) > 0 {
		cat = cat.WithOverrides(opts.Overrides)
	}

	budget := opts.Budget
	switch {
	case budget == 0:
		budget = DefaultBudget
	case budget < 0:
		budget = 0
	}

	grants, warnings := resolveGrants(ctx, tr, tmpl, cat, opts, logger)

	_, capSpan := tr.Start(ctx, "capabilities")
	caps := capability.Detect(tmpl, cat)
	capSpan.End()

	for _, transform := range tmpl.Transforms {
		warnings = append(warnings, Warning{
			Code:   WarnOpaqueExpansion,
			Detail: fmt.Sprintf("transform %q expands server-side; emitting conservative scope", transform),
		})
		grants = append(grants, transformGrants(transform)...)
	}

	_, asmSpan := tr.Start(ctx, "assemble")
	outcome, err := assemble.Assemble(grants, budget)
	asmSpan.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("assembling policy: %w", err)
	}

	for _, w := range outcome.Widenings {
		warnings = append(warnings, Warning{
			Code: WarnPolicyBudgetExceeded,
			Detail: fmt.Sprintf("statement %s widened from [%s] to [%s] to fit the %d byte budget",
				w.Sid, strings.Join(w.From, " "), strings.Join(w.To, " "), budget),
		})
	}
	if outcome.OverBudget {
		warnings = append(warnings, Warning{
			Code:   WarnPolicyBudgetExceeded,
			Detail: fmt.Sprintf("document exceeds the %d byte budget even fully widened; no action was dropped", budget),
		})
	}

	sortWarnings(warnings)
	logger.Info("Synthesis complete",
		"statements", len(outcome.Document.Statement),
		"capabilities", caps.Sorted(),
		"warnings", len(warnings))

	return &Result{Policy: outcome.Document, Capabilities: caps, Warnings: warnings}, nil
}

func validate(ctx context.Context, tmpl *template.Template) error {
	tr := otel.Tracer("stackmint/engine")
	_, span := tr.Start(ctx, "validate")
	defer span.End()

	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("rejecting template: %w", err)
	}
	return nil
}

// resolveGrants walks the template's resources in declaration order and
// produces one grant per resource, plus the CloudFormation baseline.
func resolveGrants(ctx context.Context, tr trace.Tracer, tmpl *template.Template, cat *catalog.Catalog, opts Options, logger *slog.Logger) ([]assemble.Grant, []Warning) {
	_, span := tr.Start(ctx, "resolve")
	defer span.End()

	graph := template.NewRefGraph(tmpl)
	if order, err := graph.TopologicalOrder(); err == nil {
		logger.Debug("Reference order established", "order", order)
	} else {
		logger.Debug("Reference graph is cyclic", "error", err)
	}

	res := resolver.New(cat, opts.Parameters, opts.Pseudo)

	grants := []assemble.Grant{{
		Actions: catalog.BaselineActions(),
		Pattern: resolver.Pattern{
			Value:      catalog.BaselineResource(),
			Namespace:  catalog.BaselineResource(),
			Confidence: resolver.Exact,
		},
	}}

	var warnings []Warning
	for _, id := range tmpl.ResourceIDs {
		rsrc := tmpl.Resources[id]

		if _, ok := cat.Entry(rsrc.Type); !ok {
			grants = append(grants, fallbackGrant(rsrc.Type))
			warnings = append(warnings, Warning{
				Code:      WarnUnknownResourceType,
				LogicalID: id,
				Detail:    fmt.Sprintf("no catalog entry for %s; granted service-wide fallback", rsrc.Type),
			})
			logger.Debug("Catalog miss", "logical_id", id, "type", rsrc.Type)
			continue
		}

		actions := allPhaseActions(cat, rsrc.Type)
		if len(actions) == 0 {
			logger.Debug("No actions for type", "logical_id", id, "type", rsrc.Type)
			continue
		}

		pattern := res.Resolve(rsrc, tmpl)
		if len(pattern.Cycle) > 0 {
			warnings = append(warnings, Warning{
				Code:      WarnCircularNameReference,
				LogicalID: id,
				Detail:    fmt.Sprintf("name derivation cycles through %s; using namespace pattern", strings.Join(pattern.Cycle, " -> ")),
			})
		}
		if pattern.UnsupportedFn != "" {
			logger.Debug("Unsupported intrinsic in name derivation",
				"logical_id", id, "fn", pattern.UnsupportedFn)
		}
		logger.Debug("Resolved resource",
			"logical_id", id, "type", rsrc.Type,
			"pattern", pattern.Value, "confidence", pattern.Confidence)

		grants = append(grants, assemble.Grant{Actions: actions, Pattern: pattern})
	}
	span.SetAttributes(attribute.Int("grants", len(grants)))
	return grants, warnings
}

// allPhaseActions unions a type's actions across every lifecycle phase:
// the deployment role must carry create, update, delete and read rights
// for the stack's whole life, not just the initial deploy.
func allPhaseActions(cat *catalog.Catalog, resourceType string) []string {
	var actions []string
	for _, phase := range catalog.Phases {
		a, err := cat.Lookup(resourceType, phase)
		if err != nil {
			return nil
		}
		actions = append(actions, a...)
	}
	return actions
}

// fallbackGrant is the conservative stance for a type the catalog does
// not know: every action in the type's service namespace, unscoped.
func fallbackGrant(resourceType string) assemble.Grant {
	action := "*"
	if svc := catalog.ServiceOf(resourceType); svc != "" {
		action = svc + ":*"
	}
	return assemble.Grant{
		Actions: []string{action},
		Pattern: resolver.Pattern{Value: "*", Namespace: "*", Confidence: resolver.Unresolved},
	}
}

// transformGrants covers the services a macro's server-side expansion may
// touch. The expansion is opaque pre-deploy, so scoping stops at the
// service level.
func transformGrants(transform string) []assemble.Grant {
	var grants []assemble.Grant
	for _, svc := range catalog.TransformScope(transform) {
		action := "*"
		if svc != "*" {
			action = svc + ":*"
		}
		grants = append(grants, assemble.Grant{
			Actions: []string{action},
			Pattern: resolver.Pattern{Value: "*", Namespace: "*", Confidence: resolver.Unresolved},
		})
	}
	return grants
}

func sortWarnings(warnings []Warning) {
	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Code != warnings[j].Code {
			return warnings[i].Code < warnings[j].Code
		}
		if warnings[i].LogicalID != warnings[j].LogicalID {
			return warnings[i].LogicalID < warnings[j].LogicalID
		}
		return warnings[i].Detail < warnings[j].Detail
	})
}
