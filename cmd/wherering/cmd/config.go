package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/config"
)

// errConfigExists is returned when init would overwrite a settings file.
var errConfigExists = errors.New("settings file already exists, use --force to overwrite")

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file.",
	}

	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with default values.",
		Long: `Writes every setting with its default value to the --config path, or to
` + config.DefaultConfigFilename + ` in the current directory. --server replaces the default address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := writeDefaultConfig(configPath, serverAddress, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", path)

			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")
	cmd.AddCommand(initCmd)

	return cmd
}

// writeDefaultConfig saves default settings and returns the path written.
func writeDefaultConfig(path, address string, force bool) (string, error) {
	if path == "" {
		path = config.DefaultConfigFilename
	}

	path = filepath.Clean(path)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s: %w", path, errConfigExists)
		}
	}

	settings := config.Default()
	if address != "" {
		settings.ServerAddress = address
	}

	if err := config.Save(path, settings); err != nil {
		return "", err
	}

	return path, nil
}
