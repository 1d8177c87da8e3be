package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/DrSkyle/stackmint/internal/pool"
	"github.com/DrSkyle/stackmint/pkg/engine"
	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
	"github.com/DrSkyle/stackmint/pkg/loader"
)

var warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFCC00"))
var okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF99"))

var synthCmd = &cobra.Command{
	Use:   "synth <template> [template...]",
	Short: "Synthesize the deployment policy for templates",
	Long: `Derives the least-privilege policy document and capability set a
deployment role needs for the given templates.

Example:
  stackmint synth stack.yaml
  stackmint synth stack.yaml --parameters params.json --region eu-west-1
  stackmint synth stacks/*.yaml --out-dir policies/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions()
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out-dir")
		workers, _ := cmd.Flags().GetInt("max-workers")

		if len(args) == 1 && outDir == "" {
			return synthOne(cmd.Context(), args[0], opts, "")
		}
		return synthMany(cmd.Context(), args, opts, outDir, workers)
	},
}

func init() {
	rootCmd.AddCommand(synthCmd)
	synthCmd.Flags().String("out-dir", "", "Write one policy file per template into this directory")
	synthCmd.Flags().Int("max-workers", 4, "Concurrent syntheses when given multiple templates")
}

// rendered is one template's synthesis output. Computation happens in
// parallel; emission is serialized afterwards.
type rendered struct {
	path     string
	policy   []byte
	warnings []engine.Warning
	caps     []string
}

func synthesizeTemplate(ctx context.Context, path string, opts engine.Options) (*rendered, error) {
	tmpl, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := engine.Synthesize(ctx, tmpl, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := result.Policy.MarshalIndent()
	if err != nil {
		return nil, err
	}
	return &rendered{
		path:     path,
		policy:   data,
		warnings: result.Warnings,
		caps:     result.Capabilities.Sorted(),
	}, nil
}

// emit prints warnings and capabilities to stderr and the policy to
// stdout, or to a file under outDir.
func emit(r *rendered, outDir string) error {
	for _, w := range r.warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("[WARN] "+w.String()))
	}
	if len(r.caps) > 0 {
		fmt.Fprintln(os.Stderr, okStyle.Render("[CAPABILITIES] "+strings.Join(r.caps, " ")))
	}
	if outDir == "" {
		fmt.Println(string(r.policy))
		return nil
	}
	out := filepath.Join(outDir, policyFileName(r.path))
	if err := os.WriteFile(out, append(r.policy, '\n'), 0644); err != nil {
		return err
	}
	slog.Info("Policy written", "template", r.path, "policy", out)
	return nil
}

func synthOne(ctx context.Context, path string, opts engine.Options, outDir string) error {
	r, err := synthesizeTemplate(ctx, path, opts)
	if err != nil {
		return err
	}
	return emit(r, outDir)
}

// synthMany fans the syntheses out over the worker pool; each task fills
// only its own result slot, so runs need no coordination. Output is
// emitted afterwards, in submission order.
func synthMany(ctx context.Context, paths []string, opts engine.Options, outDir string, workers int) error {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	results := make([]*rendered, len(paths))
	p := pool.New(workers)
	p.Start(ctx)
	for i, path := range paths {
		i, path := i, path
		p.Submit(func(ctx context.Context) error {
			r, err := synthesizeTemplate(ctx, path, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	errs := p.Wait()

	for _, r := range results {
		if r == nil {
			continue
		}
		if err := emit(r, outDir); err != nil {
			errs = append(errs, err)
		}
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d templates failed", len(errs), len(paths))
	}
	slog.Info("All templates synthesized", "count", p.Completed())
	return nil
}

func policyFileName(templatePath string) string {
	base := filepath.Base(templatePath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".policy.json"
}

// buildOptions assembles engine options from the persistent flags.
func buildOptions() (engine.Options, error) {
	opts := engine.Options{
		Pseudo: pseudoValues(),
		Budget: config.Budget,
	}
	if config.Budget == 0 {
		opts.Budget = -1 // flag 0 means no size check
	}
	if config.ParametersFile != "" {
		params, err := loader.LoadParametersFile(config.ParametersFile)
		if err != nil {
			return opts, err
		}
		opts.Parameters = params
	}
	if config.OverridesFile != "" {
		overrides, err := catalog.LoadOverridesFile(config.OverridesFile)
		if err != nil {
			return opts, err
		}
		opts.Overrides = overrides
	}
	return opts, nil
}
