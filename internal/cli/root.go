// Package cli wires configuration, storage and the HTTP server into the
// students-api commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records-api/internal/config"
)

// Version is reported by the version command and logged at startup.
var Version = "1.0.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the students-api CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "students-api",
		Short: "Student records REST API",
		Long: `A REST API for creating, listing, reading, updating and deleting
student records in MongoDB, DynamoDB or SQLite.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		"path to the configuration file (overridden by "+config.ConfigPathEnv+")")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	path, err := config.ResolvePath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}
