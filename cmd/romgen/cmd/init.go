package cmd

import (
	"fmt"
	"os"

	"github.com/anupcshan/romgen/artifact"
	"github.com/anupcshan/romgen/config"
	"github.com/anupcshan/romgen/rombuild"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a SystemVerilog ROM module ready for romgen build",
		Long: `Write a minimal SystemVerilog ROM module with a size parameter and an empty
data block between the data markers. romgen build fills it in.

Example:
  romgen init -m boot_rom -r 1000 -o rtl/bootrom/boot_rom.sv`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	initCmd.Flags().StringP("module", "m", "rom", "Module name")
	initCmd.Flags().StringP("out", "o", "", "Output file (defaults to MODULE.sv)")
	initCmd.Flags().Int64P("capacity", "c", config.DefaultCapacity, "ROM size in bytes")
	initCmd.Flags().Int64P("rom-words", "r", 0, "ROM size in 32-bit words, overrides --capacity")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	addMarkerFlags(initCmd)
	return initCmd
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyMarkerFlags(cmd, cfg)

	module, _ := cmd.Flags().GetString("module")
	out, _ := cmd.Flags().GetString("out")
	force, _ := cmd.Flags().GetBool("force")
	capacity, _ := cmd.Flags().GetInt64("capacity")
	if cmd.Flags().Changed("rom-words") {
		words, _ := cmd.Flags().GetInt64("rom-words")
		capacity = words * 4
	}
	out = outputName(module, out, ".sv")

	if !force {
		if _, err := os.Stat(out); err == nil {
			return errors.Errorf("%s already exists (use --force to overwrite)", out)
		}
	}

	data, err := artifact.NewTemplate(artifact.TemplateData{
		Module:   module,
		Capacity: capacity,
		Markers:  cfg.Markers,
	})
	if err != nil {
		return err
	}
	if err := rombuild.WriteFileAtomic(out, data, 0644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ROM template '%s' written for module %s.\n", out, module)
	return nil
}
