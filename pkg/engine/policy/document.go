// Package policy holds the provider-native IAM policy document grammar
// and the operator lint rules that run over synthesized documents.
package policy

import "encoding/json"

// Version is the IAM policy language version.
const Version = "2012-10-17"

// EffectAllow is the only effect the synthesizer emits.
const EffectAllow = "Allow"

// Statement is one policy statement. Condition is optional and keyed as
// operator -> condition key -> values.
type Statement struct {
	Sid       string                         `json:"Sid,omitempty"`
	Effect    string                         `json:"Effect"`
	Action    []string                       `json:"Action"`
	Resource  []string                       `json:"Resource"`
	Condition map[string]map[string][]string `json:"Condition,omitempty"`
}

// Document is an ordered list of statements. Ordering is significant:
// repeated synthesis of an unchanged template must be byte-identical.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// New builds a document with the standard version header.
func New(statements []Statement) Document {
	return Document{Version: Version, Statement: statements}
}

// MarshalIndent renders the document in the form handed to the role.
func (d Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// CompactSize is the byte size counted against the policy size budget,
// measured on the compact encoding the provider stores.
func (d Document) CompactSize() (int, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
