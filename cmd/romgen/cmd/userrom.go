package cmd

import (
	"fmt"

	"github.com/anupcshan/romgen/config"
	"github.com/anupcshan/romgen/rombuild"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/spf13/cobra"
)

func newUserROMCmd() *cobra.Command {
	userROMCmd := &cobra.Command{
		Use:   "userrom",
		Short: "Build a ROM holding a string",
		Long: `Store a UTF-8 string in a ROM, zero padded and truncated to the ROM size.
The output is a $readmemh word file, or a patched SystemVerilog source when
--template is given or --out ends in .sv.

Example:
  romgen userrom -s "my ASIC v0.1.0" -r 8 -o rtl/user_domain/user_rom.hex`,
		Args: cobra.NoArgs,
		RunE: runUserROM,
	}

	userROMCmd.Flags().StringP("string", "s", "", "String to write to the ROM")
	userROMCmd.Flags().StringP("out", "o", "user_rom.hex", "Output file")
	userROMCmd.Flags().StringP("template", "t", "", "Template source to patch")
	userROMCmd.Flags().Int64P("rom-words", "r", 8, "ROM size in 32-bit words")
	userROMCmd.Flags().String("byte-order", "little", "Byte order of the words: little or big")
	addMarkerFlags(userROMCmd)
	//nolint:errcheck
	userROMCmd.MarkFlagRequired("string")
	return userROMCmd
}

func runUserROM(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, _ := cmd.Flags().GetString("string")
	out, _ := cmd.Flags().GetString("out")
	tmpl, _ := cmd.Flags().GetString("template")
	words, _ := cmd.Flags().GetInt64("rom-words")
	order, _ := cmd.Flags().GetString("byte-order")

	format := ""
	if tmpl != "" {
		format = config.FormatSV
	}

	applyMarkerFlags(cmd, cfg)
	r, err := cfg.Resolve(config.Target{
		Name:      "userrom",
		Template:  tmpl,
		Output:    out,
		Format:    format,
		ByteOrder: order,
	})
	if err != nil {
		return err
	}
	r.Capacity = words * wordenc.WordSize

	res, err := rombuild.BuildString(cmd.Context(), s, rombuild.Options{
		Resolved: r,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "User ROM file '%s' created with size %d bytes (%d words).\n",
		res.Output, res.Layout.Size, res.Layout.Words())
	return nil
}
