package cli

import (
	"fmt"

	"pooledlist/pkg/config"

	"github.com/spf13/cobra"
)

var (
	// Version information
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"

	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pooledlist",
	Short: "pooledlist - pooled instances behind a virtualized list view",
	Long: `pooledlist - keyed instance pools and a recycling list view

Only the visible slice of a long list is materialized; rows scrolling out
of view go back to a shared pool and are reused for rows scrolling in.

Configuration:
  First time: Run 'pooledlist config init' to write ~/.pooledlist/config.yaml
  Flags override values from the config file

Examples:
  pooledlist simulate --count 10000 --steps 20   # Sweep a synthetic list
  pooledlist simulate --snap items --format yaml # Snapped sweep, YAML stats
  pooledlist serve --address :8080               # Serve list sessions over websocket
  pooledlist config show                         # Show the configuration`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.pooledlist/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(versionCmd)
	// config, simulate and serve add themselves in their init() functions
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pooledlist\n")
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(out, "Version:     %s\n", Version)
		fmt.Fprintf(out, "Git Commit:  %s\n", GitCommit)
		fmt.Fprintf(out, "Build Time:  %s\n", BuildTime)
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	},
}

// loadConfig returns the config file at --config, or the defaults when none exists
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configPath)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version information
func SetVersion(version, commit, buildTime string) {
	Version = version
	GitCommit = commit
	BuildTime = buildTime
}
