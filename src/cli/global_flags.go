package cli

import (
	"github.com/spf13/cobra"

	"webstack-optimizer/src/logging"
	"webstack-optimizer/src/safety"
)

// addGlobalFlags adds persistent flags shared by every command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	cmd.PersistentFlags().String("config", "", "Settings file (default <project-dir>/webstack-optimizer.yaml when present)")
	cmd.PersistentFlags().String("project-dir", "", "Application checkout the tool operates on (default from settings, else .)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().Bool("debug", false, "Shorthand for --log-level debug")
}

// getSafetyOptions reads global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	return safety.Options{DryRun: dry, Yes: yes}
}

func getLogOptions(cmd *cobra.Command) logging.Options {
	level, _ := cmd.Root().PersistentFlags().GetString("log-level")
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
	return logging.Options{Level: level, Verbose: debug}
}
