package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [resource-type]",
	Short: "Inspect the action catalog",
	Long: `Lists the resource types the catalog knows, or the full record for
one type.

Example:
  stackmint catalog
  stackmint catalog AWS::S3::Bucket
  stackmint catalog --overrides fixes.yaml AWS::Fancy::Widget`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Builtin()
		if config.OverridesFile != "" {
			overrides, err := catalog.LoadOverridesFile(config.OverridesFile)
			if err != nil {
				return err
			}
			cat = cat.WithOverrides(overrides)
		}

		if len(args) == 0 {
			fmt.Printf("catalog %s (%d types)\n\n", cat.Version(), len(cat.Types()))
			for _, t := range cat.Types() {
				fmt.Println(t)
			}
			return nil
		}

		entry, ok := cat.Entry(args[0])
		if !ok {
			return fmt.Errorf("%s is not in the catalog; synthesis would fall back to %s:*",
				args[0], catalog.ServiceOf(args[0]))
		}

		if entry.NameProperty != "" {
			fmt.Printf("Name property: %s\n", entry.NameProperty)
		} else {
			fmt.Println("Name property: (generated at deploy time)")
		}
		fmt.Printf("ARN shape:     service=%s format=%q\n", entry.ARN.Service, entry.ARN.Format)
		if len(entry.Capabilities) > 0 {
			fmt.Printf("Capabilities:  %s\n", strings.Join(entry.Capabilities, " "))
		}
		for _, phase := range catalog.Phases {
			actions := entry.Actions[phase]
			if len(actions) == 0 {
				continue
			}
			fmt.Printf("%-7s %s\n", phase+":", strings.Join(actions, " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
