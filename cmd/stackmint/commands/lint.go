package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stackmint/pkg/engine"
	"github.com/DrSkyle/stackmint/pkg/engine/policy"
	"github.com/DrSkyle/stackmint/pkg/loader"
)

// defaultRules run when no rule file is given.
var defaultRules = []policy.Rule{
	{
		ID:        "iam_wildcard_resource",
		Condition: `wildcard && actions.exists(a, a.startsWith("iam:"))`,
		Severity:  "error",
	},
	{
		ID:        "star_resource",
		Condition: `resources.exists(r, r == "*")`,
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint <template>",
	Short: "Synthesize a policy and check it against lint rules",
	Long: `Runs synthesis, then evaluates each statement of the resulting policy
against CEL lint rules. Findings with severity "error" fail the command.

Example:
  stackmint lint stack.yaml
  stackmint lint stack.yaml --rules team-rules.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions()
		if err != nil {
			return err
		}
		tmpl, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}
		result, err := engine.Synthesize(cmd.Context(), tmpl, opts)
		if err != nil {
			return err
		}

		rules := defaultRules
		if config.RulesFile != "" {
			rules, err = policy.LoadRulesFile(config.RulesFile)
			if err != nil {
				return err
			}
		}

		linter, err := policy.NewLinter()
		if err != nil {
			return err
		}
		if err := linter.Compile(rules); err != nil {
			return err
		}

		findings := linter.Check(result.Policy)
		if len(findings) == 0 {
			fmt.Println(okStyle.Render("[CLEAN] No findings."))
			return nil
		}

		failed := false
		for _, f := range findings {
			line := fmt.Sprintf("[%s] %s: statement %s", f.Severity, f.RuleID, f.Sid)
			if f.Severity == "error" {
				failed = true
				fmt.Fprintln(os.Stderr, line)
			} else {
				fmt.Fprintln(os.Stderr, warnStyle.Render(line))
			}
		}
		if failed {
			return fmt.Errorf("lint failed with %d findings", len(findings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().StringVar(&config.RulesFile, "rules", "", "Lint rule file (YAML)")
}
