package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/anupcshan/romgen/membuf"
	"github.com/anupcshan/romgen/memh"
	"github.com/anupcshan/romgen/rombuild"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect HEXFILE",
		Short: "Show the records, size and checksums of a hex image",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	inspectCmd.Flags().Bool("lenient", false, "Skip data lines that are not valid hex instead of failing")
	inspectCmd.Flags().Bool("records", false, "List every record")
	inspectCmd.Flags().Int64P("capacity", "c", 0, "Fail once the image grows past this many bytes (0 for no limit)")
	return inspectCmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	lenient, _ := cmd.Flags().GetBool("lenient")
	listRecords, _ := cmd.Flags().GetBool("records")
	limit, _ := cmd.Flags().GetInt64("capacity")

	buf, records, err := rombuild.LoadImage(args[0], limit, !lenient, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if listRecords {
		fmt.Fprintln(w, "LINE\tKIND\tADDRESS\tOFFSET\tLENGTH")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t0x%08X\t0x%08X\t%d\n", r.Line, r.Kind, r.Address, r.Offset, r.Length)
		}
		fmt.Fprintln(w)
	}

	image := buf.Bytes()
	var skipped int
	for _, r := range records {
		if r.Kind == memh.SkippedRecord {
			skipped++
		}
	}
	fmt.Fprintf(w, "size:\t%d bytes (%d words)\n", buf.Len(), wordenc.Count(buf.Len()))
	fmt.Fprintf(w, "written:\t%d bytes\n", buf.Written())
	fmt.Fprintf(w, "gap filled:\t%d bytes\n", buf.Filled())
	fmt.Fprintf(w, "skipped lines:\t%d\n", skipped)
	fmt.Fprintf(w, "checksum:\t0x%02X\n", membuf.Checksum(image))
	fmt.Fprintf(w, "sum16:\t0x%04X\n", membuf.Sum16(image))
	return w.Flush()
}
