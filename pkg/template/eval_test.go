package template

import (
	"testing"
)

func nameHook(resourceType string) (string, bool) {
	switch resourceType {
	case "AWS::S3::Bucket":
		return "BucketName", true
	case "AWS::SQS::Queue":
		return "QueueName", true
	}
	return "", false
}

func TestEvalLiteralAndParameters(t *testing.T) {
	tmpl := &Template{
		Parameters: map[string]Parameter{
			"Env":    {Name: "Env", Type: "String", Default: "prod", HasDefault: true},
			"Suffix": {Name: "Suffix", Type: "String"},
		},
		Resources: map[string]*Resource{},
	}
	env := &Env{Template: tmpl, NameProperty: nameHook}

	r := env.Eval(String("reports-bucket"))
	if r.Kind != KindLiteral || r.Text != "reports-bucket" {
		t.Errorf("literal: got kind=%v text=%q", r.Kind, r.Text)
	}

	r = env.Eval(Ref{Target: "Env"})
	if r.Kind != KindLiteral || r.Text != "prod" {
		t.Errorf("param default: got kind=%v text=%q", r.Kind, r.Text)
	}

	// Supplied values win over defaults.
	env.Parameters = map[string]string{"Env": "staging"}
	r = env.Eval(Ref{Target: "Env"})
	if r.Text != "staging" {
		t.Errorf("supplied param: got %q", r.Text)
	}

	// No default, nothing supplied.
	env.Parameters = nil
	r = env.Eval(Ref{Target: "Suffix"})
	if r.Kind != KindUnknown {
		t.Errorf("defaultless param: expected unknown, got %v", r.Kind)
	}
}

func TestEvalConcatenation(t *testing.T) {
	tmpl := &Template{
		Parameters: map[string]Parameter{
			"Env": {Name: "Env", Type: "String", Default: "prod", HasDefault: true},
		},
		Resources: map[string]*Resource{},
	}
	env := &Env{Template: tmpl, NameProperty: nameHook}

	// Fully literal join.
	r := env.Eval(Join{Delimiter: "-", Parts: []Value{String("app"), Ref{Target: "Env"}}})
	if r.Kind != KindLiteral || r.Text != "app-prod" {
		t.Errorf("join: got kind=%v text=%q", r.Kind, r.Text)
	}

	// Unknown suffix degrades to a prefix.
	r = env.Eval(Join{Delimiter: "-", Parts: []Value{String("app"), Ref{Target: PseudoAccountID}}})
	if r.Kind != KindPrefix || r.Text != "app-" {
		t.Errorf("join with unknown: got kind=%v text=%q", r.Kind, r.Text)
	}

	// Unknown head leaves nothing usable.
	r = env.Eval(Join{Delimiter: "", Parts: []Value{Ref{Target: PseudoRegion}, String("-app")}})
	if r.Kind != KindUnknown {
		t.Errorf("unknown head: expected unknown, got kind=%v text=%q", r.Kind, r.Text)
	}
}

func TestEvalSub(t *testing.T) {
	tmpl := &Template{
		Parameters: map[string]Parameter{
			"Env": {Name: "Env", Type: "String", Default: "dev", HasDefault: true},
		},
		Resources: map[string]*Resource{},
	}
	env := &Env{Template: tmpl, NameProperty: nameHook}

	r := env.Eval(Sub{Template: "queue-${Env}-jobs"})
	if r.Kind != KindLiteral || r.Text != "queue-dev-jobs" {
		t.Errorf("sub literal: got kind=%v text=%q", r.Kind, r.Text)
	}

	// Partition resolves without live state; account does not.
	r = env.Eval(Sub{Template: "${AWS::Partition}:${AWS::AccountId}"})
	if r.Kind != KindPrefix || r.Text != "aws:" {
		t.Errorf("sub pseudo: got kind=%v text=%q", r.Kind, r.Text)
	}

	// Escape form stays literal.
	r = env.Eval(Sub{Template: "keep-${!Raw}"})
	if r.Kind != KindLiteral || r.Text != "keep-${Raw}" {
		t.Errorf("sub escape: got kind=%v text=%q", r.Kind, r.Text)
	}
}

func TestEvalUnsupportedIntrinsic(t *testing.T) {
	env := &Env{Template: &Template{Resources: map[string]*Resource{}}}
	r := env.Eval(Unknown{Fn: "Fn::ImportValue"})
	if r.Kind != KindUnknown || r.UnsupportedFn != "Fn::ImportValue" {
		t.Errorf("got kind=%v fn=%q", r.Kind, r.UnsupportedFn)
	}
}

// Two resources whose names reference each other must terminate and
// resolve to unknown, carrying the implicated ids.
func TestEvalCycleTerminates(t *testing.T) {
	tmpl := &Template{
		Resources: map[string]*Resource{
			"BucketA": {
				LogicalID: "BucketA",
				Type:      "AWS::S3::Bucket",
				Properties: Map{
					"BucketName": Join{Parts: []Value{String("a-"), Ref{Target: "BucketB"}}},
				},
			},
			"BucketB": {
				LogicalID: "BucketB",
				Type:      "AWS::S3::Bucket",
				Properties: Map{
					"BucketName": Join{Parts: []Value{String("b-"), Ref{Target: "BucketA"}}},
				},
			},
		},
		ResourceIDs: []string{"BucketA", "BucketB"},
	}
	env := &Env{Template: tmpl, NameProperty: nameHook}

	for _, id := range tmpl.ResourceIDs {
		r := env.ResolveName(id)
		if len(r.Cycle) == 0 {
			t.Errorf("%s: expected cycle members, got none", id)
		}
		if r.Kind == KindLiteral {
			t.Errorf("%s: cycle must not resolve to a literal", id)
		}
	}
}

func TestResolveNameGeneratedWhenAbsent(t *testing.T) {
	tmpl := &Template{
		Resources: map[string]*Resource{
			"Queue": {LogicalID: "Queue", Type: "AWS::SQS::Queue", Properties: Map{}},
		},
		ResourceIDs: []string{"Queue"},
	}
	env := &Env{Template: tmpl, NameProperty: nameHook}
	if r := env.ResolveName("Queue"); r.Kind != KindUnknown {
		t.Errorf("generated name: expected unknown, got %v", r.Kind)
	}
}
