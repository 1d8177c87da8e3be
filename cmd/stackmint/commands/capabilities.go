package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stackmint/pkg/engine/capability"
	"github.com/DrSkyle/stackmint/pkg/engine/catalog"
	"github.com/DrSkyle/stackmint/pkg/loader"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities <template>",
	Short: "Print the capability flags a template requires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpl, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}
		if err := tmpl.Validate(); err != nil {
			return err
		}

		cat := catalog.Builtin()
		if config.OverridesFile != "" {
			overrides, err := catalog.LoadOverridesFile(config.OverridesFile)
			if err != nil {
				return err
			}
			cat = cat.WithOverrides(overrides)
		}

		caps := capability.Detect(tmpl, cat).Sorted()
		if len(caps) == 0 {
			fmt.Println("none")
			return nil
		}
		for _, c := range caps {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}
