package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DrSkyle/stackmint/pkg/engine"
	"github.com/DrSkyle/stackmint/pkg/telemetry"
	"github.com/DrSkyle/stackmint/pkg/template"
	"github.com/DrSkyle/stackmint/pkg/version"
)

type runConfig struct {
	ParametersFile string
	OverridesFile  string
	RulesFile      string
	Budget         int
	Partition      string
	Region         string
	AccountID      string
	Verbose        bool
	JSONLogs       bool
	OtelEndpoint   string
}

var (
	cfgFile string
	config  runConfig

	shutdownTelemetry func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "stackmint",
	Short: "Template-to-Policy Synthesis",
	Long: `stackmint - Least-Privilege Deployment Policies

Parse. Resolve. Mint.`,
	Version: version.Current,
	// Run: nil (Forces help output).
	Run: nil,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.stackmint.yaml)")
	rootCmd.PersistentFlags().StringVar(&config.ParametersFile, "parameters", "", "Parameter values file (JSON list or YAML map)")
	rootCmd.PersistentFlags().StringVar(&config.OverridesFile, "overrides", "", "Catalog override file (YAML)")
	rootCmd.PersistentFlags().IntVar(&config.Budget, "budget", engine.DefaultBudget, "Policy size budget in bytes (0 disables)")
	rootCmd.PersistentFlags().StringVar(&config.Partition, "partition", "", "Pin the partition segment of emitted ARNs")
	rootCmd.PersistentFlags().StringVar(&config.Region, "region", "", "Pin the region segment of emitted ARNs")
	rootCmd.PersistentFlags().StringVar(&config.AccountID, "account", "", "Pin the account segment of emitted ARNs")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&config.JSONLogs, "json-logs", false, "Emit logs as JSON")

	// Hidden Flags
	rootCmd.PersistentFlags().StringVar(&config.OtelEndpoint, "otel-endpoint", "", "OTLP trace endpoint")
	rootCmd.PersistentFlags().MarkHidden("otel-endpoint")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging()
		shutdown, err := telemetry.Init(cmd.Context(), version.AppName, version.Current, config.OtelEndpoint)
		if err != nil {
			slog.Warn("Telemetry init failed", "error", err)
			return
		}
		shutdownTelemetry = shutdown
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(cmd.Context())
		}
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.JSONLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// pseudoValues collects the pinned ARN segments off the flags.
func pseudoValues() map[string]string {
	pseudo := make(map[string]string)
	if config.Partition != "" {
		pseudo[template.PseudoPartition] = config.Partition
	}
	if config.Region != "" {
		pseudo[template.PseudoRegion] = config.Region
	}
	if config.AccountID != "" {
		pseudo[template.PseudoAccountID] = config.AccountID
	}
	return pseudo
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".stackmint.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("STACKMINT %s", version.Current)))
	fmt.Println("Least-privilege deployment policies from infrastructure templates.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  stackmint synth stack.yaml                   # Policy JSON to stdout")
	fmt.Println("  stackmint synth stack.yaml --region eu-west-1 --account 123456789012")
	fmt.Println("  stackmint capabilities stack.yaml            # Required capability flags")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
