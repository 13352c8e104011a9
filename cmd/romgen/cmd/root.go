package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
)

// NewRootCmd builds the romgen command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "romgen",
		Short: "Build ROM images for hardware designs",
		Long: `romgen turns $readmemh style hex images ("@address" lines followed by hex
data lines) into ROM contents for a hardware design. The image is checked
against the ROM capacity, zero padded, and either embedded into a SystemVerilog
source as a word array plus a size parameter, or written out as a standalone
memory image.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logLevel.Set(slog.LevelDebug)
			} else {
				logLevel.Set(slog.LevelInfo)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every address record and gap")
	rootCmd.PersistentFlags().String("config", "", "romgen.yaml with defaults and build targets")

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newImageCmd())
	rootCmd.AddCommand(newUserROMCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

// Execute runs the command line and exits non-zero on any error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
