package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadParametersFile reads externally supplied parameter values. Two
// layouts are accepted: the provider's JSON list form
//
//	[{"ParameterKey": "QueueBase", "ParameterValue": "queue-orders"}]
//
// and a flat YAML/JSON map of name to value.
func LoadParametersFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameters: %w", err)
	}
	return ParseParameters(data)
}

// ParseParameters decodes parameter values from either accepted layout.
func ParseParameters(data []byte) (map[string]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding parameters: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return map[string]string{}, nil
	}
	doc := root.Content[0]

	params := make(map[string]string)
	switch doc.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(doc.Content); i += 2 {
			params[doc.Content[i].Value] = doc.Content[i+1].Value
		}
	case yaml.SequenceNode:
		for _, item := range doc.Content {
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("decoding parameters: list entries must be objects")
			}
			var key, value string
			for i := 0; i+1 < len(item.Content); i += 2 {
				switch item.Content[i].Value {
				case "ParameterKey":
					key = item.Content[i+1].Value
				case "ParameterValue":
					value = item.Content[i+1].Value
				}
			}
			if key == "" {
				return nil, fmt.Errorf("decoding parameters: entry missing ParameterKey")
			}
			params[key] = value
		}
	default:
		return nil, fmt.Errorf("decoding parameters: expected a map or a list")
	}
	return params, nil
}
