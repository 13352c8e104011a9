package cmd

import (
	"path/filepath"
	"strings"

	"github.com/anupcshan/romgen/artifact"
	"github.com/anupcshan/romgen/config"
	"github.com/anupcshan/romgen/rombuild"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("in", "i", "", "Input hex file")
	cmd.Flags().StringP("out", "o", "", "Output file")
	cmd.Flags().String("name", "", "ROM name used in logs and metrics (defaults to the input file name)")
	cmd.Flags().Int64P("capacity", "c", config.DefaultCapacity, "ROM size in bytes (a multiple of 4)")
	cmd.Flags().Int64P("rom-words", "r", 0, "ROM size in 32-bit words, overrides --capacity")
	cmd.Flags().String("byte-order", wordenc.LittleEndian.String(), "Byte order of the words: little or big")
	cmd.Flags().String("padding", "capacity", "Pad the image to the full capacity or only to a whole word: capacity or word")
	cmd.Flags().Bool("lenient", false, "Skip data lines that are not valid hex instead of failing")
	cmd.Flags().String("records", "", "Write the parsed records to this file")
	cmd.Flags().String("records-format", rombuild.RecordsJSON, "Records file encoding: json or cbor")
	cmd.Flags().String("metrics", "", "Write build metrics in Prometheus textfile format to this file")
}

func addMarkerFlags(cmd *cobra.Command) {
	cmd.Flags().String("size-param", "", "Name of the size parameter (any hex valued parameter if empty)")
	cmd.Flags().String("begin", artifact.DefaultMarkers.Begin, "Line opening the data block")
	cmd.Flags().String("end", artifact.DefaultMarkers.End, "Line closing the data block")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyMarkerFlags overrides the configured markers with explicitly set flags.
func applyMarkerFlags(cmd *cobra.Command, cfg *config.Config) {
	for flag, dst := range map[string]*string{
		"size-param": &cfg.Markers.SizeParam,
		"begin":      &cfg.Markers.Begin,
		"end":        &cfg.Markers.End,
	} {
		if cmd.Flags().Lookup(flag) != nil && (cmd.Flags().Changed(flag) || *dst == "") {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
}

// outputName derives an output file name from the input when out is empty.
func outputName(in, out, ext string) string {
	if out != "" {
		return out
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ext
}

func targetFromFlags(cmd *cobra.Command, cfg *config.Config, format string) (rombuild.Options, error) {
	flags := cmd.Flags()
	in, _ := flags.GetString("in")
	out, _ := flags.GetString("out")
	name, _ := flags.GetString("name")
	if name == "" && in != "" {
		name = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}

	t := config.Target{
		Name:   name,
		Input:  in,
		Output: out,
		Format: format,
	}
	if flags.Lookup("template") != nil {
		t.Template, _ = flags.GetString("template")
	}
	if flags.Lookup("base") != nil {
		t.Base, _ = flags.GetUint32("base")
	}

	switch {
	case flags.Changed("rom-words"):
		words, _ := flags.GetInt64("rom-words")
		t.Capacity = words * wordenc.WordSize
	case flags.Changed("capacity"):
		t.Capacity, _ = flags.GetInt64("capacity")
	}
	if t.Capacity < 0 {
		return rombuild.Options{}, errors.Errorf("negative ROM size %d", t.Capacity)
	}
	if flags.Changed("byte-order") {
		t.ByteOrder, _ = flags.GetString("byte-order")
	}
	if flags.Changed("padding") {
		t.Padding, _ = flags.GetString("padding")
	}
	if flags.Changed("lenient") {
		lenient, _ := flags.GetBool("lenient")
		strict := !lenient
		t.Strict = &strict
	}

	applyMarkerFlags(cmd, cfg)
	r, err := cfg.Resolve(t)
	if err != nil {
		return rombuild.Options{}, err
	}

	o := rombuild.Options{
		Resolved: r,
		Logger:   logger,
	}
	o.Records, _ = flags.GetString("records")
	o.RecordsFormat, _ = flags.GetString("records-format")
	return o, nil
}

func writeMetrics(cmd *cobra.Command, cfg *config.Config, results []*rombuild.Result) error {
	path, _ := cmd.Flags().GetString("metrics")
	if path == "" {
		path = cfg.MetricsPath()
	}
	if path == "" {
		return nil
	}
	return rombuild.WriteMetrics(path, results)
}
