package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override file format:
//
//	types:
//	  AWS::Fancy::Widget:
//	    name_property: WidgetName
//	    arn: {service: fancy, format: "widget/%s"}
//	    actions:
//	      create: ["fancy:CreateWidget"]
//	      delete: ["fancy:DeleteWidget"]
//	    capabilities: []
type overrideFile struct {
	Types map[string]overrideEntry `yaml:"types"`
}

type overrideEntry struct {
	NameProperty string              `yaml:"name_property"`
	ARN          ARNShape            `yaml:"arn"`
	Actions      map[string][]string `yaml:"actions"`
	Capabilities []string            `yaml:"capabilities"`
}

// ParseOverrides decodes a caller-supplied override table. Overrides exist
// to correct catalog gaps without touching the catalog data itself.
func ParseOverrides(data []byte) (map[string]Entry, error) {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	out := make(map[string]Entry, len(file.Types))
	for resourceType, o := range file.Types {
		entry := Entry{
			NameProperty: o.NameProperty,
			ARN:          o.ARN,
			Capabilities: o.Capabilities,
		}
		if len(o.Actions) > 0 {
			entry.Actions = make(map[Phase][]string, len(o.Actions))
			for phase, actions := range o.Actions {
				p := Phase(phase)
				if !validPhase(p) {
					return nil, fmt.Errorf("overrides for %s: unknown phase %q", resourceType, phase)
				}
				entry.Actions[p] = actions
			}
		}
		out[resourceType] = entry
	}
	return out, nil
}

// LoadOverridesFile reads and parses an override table from disk.
func LoadOverridesFile(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}
	return ParseOverrides(data)
}

func validPhase(p Phase) bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}
