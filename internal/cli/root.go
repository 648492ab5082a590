// Package cli provides the printdeck command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/five82/printdeck/internal/app"
	"github.com/five82/printdeck/internal/logging"
)

// Version is set by the main package at build time.
var Version = "dev"

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	prefsPath  string
	device     string
	verbose    bool
}

func (f *rootFlags) appOptions() app.Options {
	return app.Options{
		ConfigPath: f.configPath,
		PrefsPath:  f.prefsPath,
		Device:     f.device,
		Verbose:    f.verbose,
	}
}

// NewRootCmd creates the root command. Without a subcommand it opens the
// terminal console.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "printdeck",
		Short: "Terminal console for a networked 3D printer",
		Long: `printdeck drives a 3D printer over its HTTP API and status socket.

Run without arguments to open the console. The subcommands perform a single
operation, print the resulting file list or printer status, and exit
non-zero with the device's message when the operation fails.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbose(flags.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.appOptions())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.device, "device", "", "Printer address as host[:port] or URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "Console preferences file path")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version

	rootCmd.AddCommand(
		newFilesCmd(flags),
		newSelectCmd(flags),
		newDeleteCmd(flags),
		newPrintCmd(flags),
		newSendCmd(flags),
		newStatusCmd(flags),
		newUploadCmd(flags),
	)
	return rootCmd
}

// Execute runs the command line until it finishes or ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
