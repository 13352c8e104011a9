package cmd

import (
	"fmt"

	"github.com/anupcshan/romgen/config"
	"github.com/anupcshan/romgen/rombuild"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Embed a hex image into a SystemVerilog ROM source",
		Long: `Parse a hex image, pad it to the ROM capacity and rewrite the ROM source:
the size parameter gets the new size and the lines between the data markers
are replaced with the image words. The rest of the source is kept as is. The
output is only replaced when every step succeeded.

Without --in, every target of the --config file is built.

Example:
  romgen build -i sw/bootrom/bootrom.hex -o rtl/bootrom/boot_rom.sv -r 1000
  romgen build --config romgen.yaml`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}

	addImageFlags(buildCmd)
	addMarkerFlags(buildCmd)
	buildCmd.Flags().StringP("template", "t", "", "Template source (defaults to --out)")
	return buildCmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	in, _ := cmd.Flags().GetString("in")
	if in == "" {
		return buildConfigTargets(cmd, cfg)
	}

	out, _ := cmd.Flags().GetString("out")
	tmpl, _ := cmd.Flags().GetString("template")
	if out == "" && tmpl == "" {
		return errors.New("--out is required")
	}
	if out == "" {
		if err := cmd.Flags().Set("out", tmpl); err != nil {
			return err
		}
	}

	o, err := targetFromFlags(cmd, cfg, config.FormatSV)
	if err != nil {
		return err
	}
	res, err := rombuild.Build(cmd.Context(), o)
	if err != nil {
		return err
	}
	printResult(cmd, res)
	return writeMetrics(cmd, cfg, []*rombuild.Result{res})
}

func buildConfigTargets(cmd *cobra.Command, cfg *config.Config) error {
	if len(cfg.Targets) == 0 {
		return errors.New("--in is required unless --config lists targets")
	}
	resolved, err := cfg.ResolveAll()
	if err != nil {
		return err
	}

	records, _ := cmd.Flags().GetString("records-format")
	targets := make([]rombuild.Options, 0, len(resolved))
	for _, r := range resolved {
		targets = append(targets, rombuild.Options{
			Resolved:      r,
			RecordsFormat: records,
			Logger:        logger,
		})
	}

	results, err := rombuild.BuildAll(cmd.Context(), targets, cfg.Parallelism)
	if err != nil {
		return err
	}
	for _, res := range results {
		printResult(cmd, res)
	}
	return writeMetrics(cmd, cfg, results)
}

func printResult(cmd *cobra.Command, res *rombuild.Result) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"ROM file '%s' created with size %d bytes (%d words) from '%s'.\n",
		res.Output, res.Layout.DataSize, wordenc.Count(res.Layout.DataSize), res.Input)
}
