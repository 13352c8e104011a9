package cmd

import (
	"github.com/anupcshan/romgen/config"
	"github.com/anupcshan/romgen/rombuild"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var imageExts = map[string]string{
	config.FormatMemh: ".memh",
	config.FormatIHex: ".ihex",
	config.FormatBin:  ".bin",
}

func newImageCmd() *cobra.Command {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Convert a hex image to a standalone memory image",
		Long: `Parse a hex image, pad it to the ROM capacity and write it as a standalone
memory image:

  memh  one 32-bit word per line, as read by $readmemh
  ihex  Intel HEX, loaded at --base
  bin   raw bytes

Example:
  romgen image -i sw/bootrom/bootrom.hex -o rtl/bootrom/bootrom.hex -r 1000`,
		Args: cobra.NoArgs,
		RunE: runImage,
	}

	addImageFlags(imageCmd)
	imageCmd.Flags().StringP("format", "f", config.FormatMemh, "Output format: memh, ihex or bin")
	imageCmd.Flags().Uint32("base", 0, "Load address of ihex output")
	//nolint:errcheck
	imageCmd.MarkFlagRequired("in")
	return imageCmd
}

func runImage(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	ext, ok := imageExts[format]
	if !ok {
		return errors.Errorf("unknown image format %q", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	if err := cmd.Flags().Set("out", outputName(in, out, ext)); err != nil {
		return err
	}

	o, err := targetFromFlags(cmd, cfg, format)
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
