package template

import "strings"

// ResolutionKind classifies how much of a value could be computed statically.
type ResolutionKind int

const (
	// KindLiteral means the value evaluated to a complete literal string.
	KindLiteral ResolutionKind = iota
	// KindPrefix means a non-empty literal prefix was recovered; the
	// remainder of the value is only known at deploy time.
	KindPrefix
	// KindUnknown means nothing about the value is known statically.
	KindUnknown
)

// Resolution is the outcome of evaluating a Value. Evaluation is
// deterministic and side-effect-free: no network calls, no account state.
type Resolution struct {
	Kind ResolutionKind
	Text string

	// Cycle holds the logical ids implicated in a circular name
	// reference, if one was hit during evaluation.
	Cycle []string
	// UnsupportedFn names the first intrinsic outside the evaluable
	// grammar encountered during evaluation, if any.
	UnsupportedFn string
}

// Env supplies everything evaluation may consult: the template, supplied
// parameter values (which win over defaults), pseudo parameter overrides,
// and a hook telling the evaluator which property names a resource of a
// given type. The hook keeps this package free of catalog knowledge.
type Env struct {
	Template     *Template
	Parameters   map[string]string
	Pseudo       map[string]string
	NameProperty func(resourceType string) (string, bool)
}

// Eval evaluates a property value against the environment.
func (e *Env) Eval(v Value) Resolution {
	s := &evalState{env: e, visiting: make(map[string]bool)}
	return s.eval(v)
}

// ResolveName evaluates the physical name of a resource by evaluating its
// name-bearing property. Resources whose name CloudFormation generates
// (no name property set) resolve to unknown.
func (e *Env) ResolveName(logicalID string) Resolution {
	s := &evalState{env: e, visiting: make(map[string]bool)}
	return s.resourceName(logicalID)
}

type evalState struct {
	env      *Env
	visiting map[string]bool
	stack    []string
}

func (s *evalState) eval(v Value) Resolution {
	switch val := v.(type) {
	case String:
		return Resolution{Kind: KindLiteral, Text: string(val)}
	case Ref:
		return s.ref(val.Target)
	case Sub:
		return s.concat(parseSub(val.Template), "")
	case Join:
		return s.concat(val.Parts, val.Delimiter)
	case GetAtt:
		// Attributes are runtime values.
		return Resolution{Kind: KindUnknown}
	case Unknown:
		return Resolution{Kind: KindUnknown, UnsupportedFn: val.Fn}
	default:
		// Maps and lists are not name material.
		return Resolution{Kind: KindUnknown}
	}
}

func (s *evalState) ref(target string) Resolution {
	if IsPseudo(target) {
		return s.pseudo(target)
	}
	if p, ok := s.env.Template.Parameters[target]; ok {
		if supplied, ok := s.env.Parameters[target]; ok {
			return Resolution{Kind: KindLiteral, Text: supplied}
		}
		if p.HasDefault {
			return Resolution{Kind: KindLiteral, Text: p.Default}
		}
		return Resolution{Kind: KindUnknown}
	}
	if _, ok := s.env.Template.Resources[target]; ok {
		return s.resourceName(target)
	}
	return Resolution{Kind: KindUnknown}
}

func (s *evalState) pseudo(target string) Resolution {
	if v, ok := s.env.Pseudo[target]; ok {
		return Resolution{Kind: KindLiteral, Text: v}
	}
	switch target {
	case PseudoNoValue:
		return Resolution{Kind: KindLiteral, Text: ""}
	case PseudoPartition:
		return Resolution{Kind: KindLiteral, Text: "aws"}
	case PseudoURLSuffix:
		return Resolution{Kind: KindLiteral, Text: "amazonaws.com"}
	default:
		// AccountId, Region, StackName: unknowable without live state.
		return Resolution{Kind: KindUnknown}
	}
}

// resourceName follows a Ref chain into another resource's name property.
// The visiting set guarantees termination on circular references.
func (s *evalState) resourceName(logicalID string) Resolution {
	if s.visiting[logicalID] {
		return Resolution{Kind: KindUnknown, Cycle: s.cycleFrom(logicalID)}
	}
	res, ok := s.env.Template.Resources[logicalID]
	if !ok {
		return Resolution{Kind: KindUnknown}
	}
	if s.env.NameProperty == nil {
		return Resolution{Kind: KindUnknown}
	}
	prop, ok := s.env.NameProperty(res.Type)
	if !ok {
		return Resolution{Kind: KindUnknown}
	}
	nameVal, ok := res.Properties[prop]
	if !ok {
		return Resolution{Kind: KindUnknown}
	}

	s.visiting[logicalID] = true
	s.stack = append(s.stack, logicalID)
	r := s.eval(nameVal)
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.visiting, logicalID)
	return r
}

func (s *evalState) cycleFrom(logicalID string) []string {
	for i, id := range s.stack {
		if id == logicalID {
			cycle := make([]string, len(s.stack)-i)
			copy(cycle, s.stack[i:])
			return cycle
		}
	}
	return []string{logicalID}
}

// concat evaluates parts left to right, accumulating literal text until
// the first non-literal part. A trailing unknown degrades the result to a
// prefix; an unknown with no preceding literal degrades it to unknown.
func (s *evalState) concat(parts []Value, delim string) Resolution {
	var b strings.Builder
	out := Resolution{Kind: KindLiteral}

	for i, part := range parts {
		if i > 0 && delim != "" {
			b.WriteString(delim)
		}
		r := s.eval(part)
		if len(r.Cycle) > 0 && len(out.Cycle) == 0 {
			out.Cycle = r.Cycle
		}
		if r.UnsupportedFn != "" && out.UnsupportedFn == "" {
			out.UnsupportedFn = r.UnsupportedFn
		}
		switch r.Kind {
		case KindLiteral:
			b.WriteString(r.Text)
		case KindPrefix:
			b.WriteString(r.Text)
			out.Kind = KindPrefix
		case KindUnknown:
			out.Kind = KindPrefix
		}
		if out.Kind == KindPrefix {
			break
		}
	}

	out.Text = b.String()
	if out.Kind == KindPrefix && out.Text == "" {
		out.Kind = KindUnknown
	}
	return out
}

// parseSub splits an Fn::Sub template into literal and reference parts.
// "${!escaped}" emits a literal "${escaped}".
func parseSub(tmpl string) []Value {
	var parts []Value
	for len(tmpl) > 0 {
		open := strings.Index(tmpl, "${")
		if open < 0 {
			parts = append(parts, String(tmpl))
			break
		}
		if open > 0 {
			parts = append(parts, String(tmpl[:open]))
		}
		rest := tmpl[open+2:]
		end := strings.Index(rest, "}")
		if end < 0 {
			parts = append(parts, String(tmpl[open:]))
			break
		}
		inner := rest[:end]
		switch {
		case strings.HasPrefix(inner, "!"):
			parts = append(parts, String("${"+inner[1:]+"}"))
		case strings.Contains(inner, "."):
			dot := strings.Index(inner, ".")
			parts = append(parts, GetAtt{LogicalID: inner[:dot], Attribute: inner[dot+1:]})
		default:
			parts = append(parts, Ref{Target: inner})
		}
		tmpl = rest[end+1:]
	}
	return parts
}
