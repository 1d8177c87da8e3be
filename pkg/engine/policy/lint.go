package policy

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"gopkg.in/yaml.v3"
)

// Rule is an operator-defined constraint over a synthesized statement,
// e.g. `wildcard && actions.exists(a, a.startsWith("iam:"))`.
type Rule struct {
	ID        string `yaml:"id"`
	Condition string `yaml:"condition"`
	Severity  string `yaml:"severity"` // "warn" or "error"
}

// Finding is one rule match against one statement.
type Finding struct {
	RuleID   string
	Sid      string
	Severity string
}

// Linter compiles rules once and evaluates them per statement.
type Linter struct {
	env      *cel.Env
	programs map[string]compiledRule
	order    []string
}

type compiledRule struct {
	program  cel.Program
	severity string
}

// NewLinter initializes the CEL environment with the statement-shaped
// variable declarations.
func NewLinter() (*Linter, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("sid", decls.String),
			decls.NewVar("effect", decls.String),
			decls.NewVar("actions", decls.NewListType(decls.String)),
			decls.NewVar("resources", decls.NewListType(decls.String)),
			decls.NewVar("wildcard", decls.Bool),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &Linter{env: env, programs: make(map[string]compiledRule)}, nil
}

// Compile compiles a list of rules into executable programs.
func (l *Linter) Compile(rules []Rule) error {
	for _, r := range rules {
		ast, issues := l.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		prg, err := l.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}
		severity := r.Severity
		if severity == "" {
			severity = "warn"
		}
		l.programs[r.ID] = compiledRule{program: prg, severity: severity}
		l.order = append(l.order, r.ID)
	}
	return nil
}

// Check evaluates every compiled rule against every statement and returns
// the matches. Evaluation errors skip the rule for that statement.
func (l *Linter) Check(doc Document) []Finding {
	var findings []Finding
	for _, stmt := range doc.Statement {
		vars := map[string]interface{}{
			"sid":       stmt.Sid,
			"effect":    stmt.Effect,
			"actions":   stmt.Action,
			"resources": stmt.Resource,
			"wildcard":  hasWildcard(stmt.Resource),
		}
		for _, id := range l.order {
			rule := l.programs[id]
			out, _, err := rule.program.Eval(vars)
			if err != nil {
				slog.Error("Rule evaluation failed", "rule_id", id, "sid", stmt.Sid, "error", err)
				continue
			}
			if match, ok := out.Value().(bool); ok && match {
				findings = append(findings, Finding{RuleID: id, Sid: stmt.Sid, Severity: rule.severity})
			}
		}
	}
	return findings
}

func hasWildcard(resources []string) bool {
	for _, r := range resources {
		if strings.Contains(r, "*") {
			return true
		}
	}
	return false
}

// LoadRulesFile reads lint rules from a YAML file:
//
//	rules:
//	  - id: no-iam-wildcard
//	    condition: wildcard && actions.exists(a, a.startsWith("iam:"))
//	    severity: error
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var file struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return file.Rules, nil
}
