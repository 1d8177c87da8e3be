package resolver

import (
	"testing"

	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
	"github.com/DrSkyle/stackmint/pkg/template"
)

func singleResource(res *template.Resource, params map[string]template.Parameter) *template.Template {
	return &template.Template{
		Parameters:  params,
		Resources:   map[string]*template.Resource{res.LogicalID: res},
		ResourceIDs: []string{res.LogicalID},
	}
}

func TestResolveExactLiteralName(t *testing.T) {
	res := &template.Resource{
		LogicalID: "Reports",
		Type:      "AWS::S3::Bucket",
		Properties: template.Map{
			"BucketName": template.String("reports-bucket"),
		},
	}
	r := New(catalog.Builtin(), nil, nil)
	p := r.Resolve(res, singleResource(res, nil))

	if p.Confidence != Exact {
		t.Fatalf("confidence: got %s", p.Confidence)
	}
	if p.Value != "arn:aws:s3:::reports-bucket" {
		t.Errorf("value: got %q", p.Value)
	}
}

func TestResolveDerivedFromParameterDefault(t *testing.T) {
	res := &template.Resource{
		LogicalID: "Orders",
		Type:      "AWS::SQS::Queue",
		Properties: template.Map{
			"QueueName": template.Join{Delimiter: "-", Parts: []template.Value{
				template.Ref{Target: "QueueName"},
				template.Ref{Target: template.PseudoAccountID},
			}},
		},
	}
	tmpl := singleResource(res, map[string]template.Parameter{
		"QueueName": {Name: "QueueName", Type: "String", Default: "queue-orders", HasDefault: true},
	})

	p := New(catalog.Builtin(), nil, nil).Resolve(res, tmpl)
	if p.Confidence != Derived {
		t.Fatalf("confidence: got %s", p.Confidence)
	}
	if p.Value != "arn:aws:sqs:*:*:queue-orders-*" {
		t.Errorf("value: got %q", p.Value)
	}
}

// A name that is a plain Ref to a defaulted parameter resolves to the
// complete value but is graded derived, not exact.
func TestResolveDerivedCompleteLiteralChain(t *testing.T) {
	res := &template.Resource{
		LogicalID: "Orders",
		Type:      "AWS::SQS::Queue",
		Properties: template.Map{
			"QueueName": template.Ref{Target: "QueueName"},
		},
	}
	tmpl := singleResource(res, map[string]template.Parameter{
		"QueueName": {Name: "QueueName", Type: "String", Default: "queue-orders", HasDefault: true},
	})

	p := New(catalog.Builtin(), nil, nil).Resolve(res, tmpl)
	if p.Confidence != Derived {
		t.Fatalf("confidence: got %s", p.Confidence)
	}
	if p.Value != "arn:aws:sqs:*:*:queue-orders" {
		t.Errorf("value: got %q", p.Value)
	}
}

func TestResolvePinnedPseudoValues(t *testing.T) {
	res := &template.Resource{
		LogicalID: "Orders",
		Type:      "AWS::SQS::Queue",
		Properties: template.Map{
			"QueueName": template.String("orders"),
		},
	}
	pseudo := map[string]string{
		template.PseudoRegion:    "eu-west-1",
		template.PseudoAccountID: "123456789012",
	}
	p := New(catalog.Builtin(), nil, pseudo).Resolve(res, singleResource(res, nil))
	if p.Value != "arn:aws:sqs:eu-west-1:123456789012:orders" {
		t.Errorf("value: got %q", p.Value)
	}
}

func TestResolveGeneratedIdentifier(t *testing.T) {
	res := &template.Resource{
		LogicalID:  "Box",
		Type:       "AWS::EC2::Instance",
		Properties: template.Map{"InstanceType": template.String("t3.micro")},
	}
	p := New(catalog.Builtin(), nil, nil).Resolve(res, singleResource(res, nil))
	if p.Confidence != Unresolved {
		t.Fatalf("confidence: got %s", p.Confidence)
	}
	if p.Value != "arn:aws:ec2:*:*:instance/*" {
		t.Errorf("value: got %q", p.Value)
	}
}

func TestResolveUnknownTypeFullWildcard(t *testing.T) {
	res := &template.Resource{
		LogicalID:  "Mystery",
		Type:       "AWS::Quantum::Widget",
		Properties: template.Map{},
	}
	p := New(catalog.Builtin(), nil, nil).Resolve(res, singleResource(res, nil))
	if p.Confidence != Unresolved || p.Value != "*" {
		t.Errorf("got confidence=%s value=%q", p.Confidence, p.Value)
	}
}

func TestResolveCycleFallsBackUnresolved(t *testing.T) {
	a := &template.Resource{
		LogicalID: "BucketA",
		Type:      "AWS::S3::Bucket",
		Properties: template.Map{
			"BucketName": template.Join{Parts: []template.Value{
				template.String("a-"), template.Ref{Target: "BucketB"},
			}},
		},
	}
	b := &template.Resource{
		LogicalID: "BucketB",
		Type:      "AWS::S3::Bucket",
		Properties: template.Map{
			"BucketName": template.Join{Parts: []template.Value{
				template.String("b-"), template.Ref{Target: "BucketA"},
			}},
		},
	}
	tmpl := &template.Template{
		Resources:   map[string]*template.Resource{"BucketA": a, "BucketB": b},
		ResourceIDs: []string{"BucketA", "BucketB"},
	}

	r := New(catalog.Builtin(), nil, nil)
	for _, res := range []*template.Resource{a, b} {
		p := r.Resolve(res, tmpl)
		if p.Confidence != Unresolved {
			t.Errorf("%s: confidence got %s", res.LogicalID, p.Confidence)
		}
		if len(p.Cycle) == 0 {
			t.Errorf("%s: expected cycle members", res.LogicalID)
		}
		if p.Value != "arn:aws:s3:::*" {
			t.Errorf("%s: value got %q", res.LogicalID, p.Value)
		}
	}
}

func TestResolveUnsupportedIntrinsic(t *testing.T) {
	res := &template.Resource{
		LogicalID: "Imported",
		Type:      "AWS::SQS::Queue",
		Properties: template.Map{
			"QueueName": template.Unknown{Fn: "Fn::ImportValue"},
		},
	}
	p := New(catalog.Builtin(), nil, nil).Resolve(res, singleResource(res, nil))
	if p.Confidence != Unresolved {
		t.Fatalf("confidence: got %s", p.Confidence)
	}
	if p.UnsupportedFn != "Fn::ImportValue" {
		t.Errorf("unsupported fn: got %q", p.UnsupportedFn)
	}
}
