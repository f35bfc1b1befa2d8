package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calbridge/internal/config"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the server.
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "calbridge",
		Short: "Books appointments on Google Calendar for conversational agents",
		Long: `calbridge connects a conversational agent to a Google Calendar.

It answers availability questions with free slots and books appointments,
through a Dialogflow-style webhook, a small REST API, or MCP tools.

Settings are resolved from flags, then environment variables, then an
optional config file (calbridge.yaml in . or /etc/calbridge), then defaults.`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "calbridge version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file")
	config.RegisterFlags(rootCmd.PersistentFlags())

	loadConfig := func(cmd *cobra.Command) (config.Config, error) {
		return config.Load(cmd.Flags(), configFile)
	}

	rootCmd.AddCommand(newServeCmd(loadConfig))
	rootCmd.AddCommand(newMCPCmd(loadConfig))
	rootCmd.AddCommand(newSlotsCmd(loadConfig))
	rootCmd.AddCommand(newBookCmd(loadConfig))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())

	return rootCmd
}

// configLoader resolves the configuration for a running command.
type configLoader func(cmd *cobra.Command) (config.Config, error)

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd := newRootCmd()

	// If no subcommand is provided, run the serve command by default
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
