// Package loader parses deployment templates into the template model.
// JSON templates are valid YAML, so one decode path handles both, and the
// YAML short-form intrinsic tags (!Ref, !Sub, !GetAtt, ...) decode to the
// same values as their long-form spellings.
package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DrSkyle/stackmint/pkg/template"
)

// LoadFile reads and parses a template file.
func LoadFile(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return Parse(data)
}

// Parse decodes template bytes. Duplicate logical ids are a decode-time
// failure; the model cannot represent them.
func Parse(data []byte) (*template.Template, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding template: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("decoding template: empty document")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decoding template: top level is not a mapping")
	}

	tmpl := &template.Template{
		Parameters: make(map[string]template.Parameter),
		Resources:  make(map[string]*template.Resource),
		Outputs:    make(map[string]template.Output),
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i].Value, doc.Content[i+1]
		var err error
		switch key {
		case "Transform":
			tmpl.Transforms, err = stringOrList(val)
		case "Parameters":
			err = parseParameters(val, tmpl)
		case "Resources":
			err = parseResources(val, tmpl)
		case "Outputs":
			err = parseOutputs(val, tmpl)
		}
		if err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

func parseParameters(node *yaml.Node, tmpl *template.Template) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("decoding template: Parameters is not a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		p := template.Parameter{Name: name}
		for j := 0; j+1 < len(body.Content); j += 2 {
			switch body.Content[j].Value {
			case "Type":
				p.Type = body.Content[j+1].Value
			case "Default":
				p.Default = body.Content[j+1].Value
				p.HasDefault = true
			}
		}
		tmpl.Parameters[name] = p
	}
	return nil
}

func parseResources(node *yaml.Node, tmpl *template.Template) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("decoding template: Resources is not a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		id, body := node.Content[i].Value, node.Content[i+1]
		if _, dup := tmpl.Resources[id]; dup {
			return &template.MalformedError{
				LogicalIDs: []string{id},
				Reasons:    []string{fmt.Sprintf("duplicate logical id %q", id)},
			}
		}

		res := &template.Resource{LogicalID: id, Properties: template.Map{}}
		for j := 0; j+1 < len(body.Content); j += 2 {
			key, val := body.Content[j].Value, body.Content[j+1]
			switch key {
			case "Type":
				res.Type = val.Value
			case "Properties":
				props, err := decodeValue(val)
				if err != nil {
					return err
				}
				if m, ok := props.(template.Map); ok {
					res.Properties = m
				}
			case "DependsOn":
				deps, err := stringOrList(val)
				if err != nil {
					return err
				}
				res.DependsOn = deps
			}
		}
		tmpl.Resources[id] = res
		tmpl.ResourceIDs = append(tmpl.ResourceIDs, id)
	}
	return nil
}

func parseOutputs(node *yaml.Node, tmpl *template.Template) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("decoding template: Outputs is not a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		out := template.Output{Name: name}
		for j := 0; j+1 < len(body.Content); j += 2 {
			if body.Content[j].Value == "Value" {
				v, err := decodeValue(body.Content[j+1])
				if err != nil {
					return err
				}
				out.Value = v
			}
		}
		tmpl.Outputs[name] = out
	}
	return nil
}

// decodeValue turns a YAML node into a template value. Intrinsics outside
// the evaluable grammar decode to Unknown rather than failing, so one
// exotic property never sinks a whole synthesis.
func decodeValue(node *yaml.Node) (template.Value, error) {
	if tag := shortTag(node.Tag); tag != "" {
		return decodeIntrinsic(tag, node)
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return template.String(node.Value), nil
	case yaml.MappingNode:
		if fn, ok := longFormIntrinsic(node); ok {
			return decodeIntrinsic(fn, node.Content[1])
		}
		m := template.Map{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := decodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[node.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		l := make(template.List, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		return l, nil
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	}
	return template.Unknown{}, nil
}

// shortTag maps a YAML custom tag to the intrinsic it abbreviates.
// "!Ref" -> "Ref", "!GetAtt" -> "Fn::GetAtt", anything standard -> "".
func shortTag(tag string) string {
	if !strings.HasPrefix(tag, "!") || strings.HasPrefix(tag, "!!") {
		return ""
	}
	name := tag[1:]
	if name == "Ref" || name == "Condition" {
		return name
	}
	return "Fn::" + name
}

// longFormIntrinsic detects single-key mappings like {"Fn::Join": [...]}.
func longFormIntrinsic(node *yaml.Node) (string, bool) {
	if len(node.Content) != 2 {
		return "", false
	}
	key := node.Content[0].Value
	if key == "Ref" || strings.HasPrefix(key, "Fn::") {
		return key, true
	}
	return "", false
}

func decodeIntrinsic(fn string, node *yaml.Node) (template.Value, error) {
	switch fn {
	case "Ref":
		return template.Ref{Target: node.Value}, nil

	case "Fn::Sub":
		if node.Kind == yaml.ScalarNode {
			return template.Sub{Template: node.Value}, nil
		}
		// The two-element form carries a local substitution map whose
		// entries the evaluator cannot see; treat it as opaque.
		return template.Unknown{Fn: fn}, nil

	case "Fn::GetAtt":
		if node.Kind == yaml.ScalarNode {
			dot := strings.Index(node.Value, ".")
			if dot < 0 {
				return template.Unknown{Fn: fn}, nil
			}
			return template.GetAtt{LogicalID: node.Value[:dot], Attribute: node.Value[dot+1:]}, nil
		}
		if node.Kind == yaml.SequenceNode && len(node.Content) == 2 {
			return template.GetAtt{
				LogicalID: node.Content[0].Value,
				Attribute: node.Content[1].Value,
			}, nil
		}
		return template.Unknown{Fn: fn}, nil

	case "Fn::Join":
		if node.Kind != yaml.SequenceNode || len(node.Content) != 2 ||
			node.Content[1].Kind != yaml.SequenceNode {
			return template.Unknown{Fn: fn}, nil
		}
		join := template.Join{Delimiter: node.Content[0].Value}
		for _, c := range node.Content[1].Content {
			part, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			join.Parts = append(join.Parts, part)
		}
		return join, nil

	default:
		return template.Unknown{Fn: fn}, nil
	}
}

// stringOrList accepts the scalar-or-sequence shorthand used by
// Transform and DependsOn.
func stringOrList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			out = append(out, c.Value)
		}
		return out, nil
	}
	return nil, fmt.Errorf("decoding template: expected string or list at line %d", node.Line)
}
