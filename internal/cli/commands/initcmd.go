package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapchunk/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter leapchunk.yaml in the current directory",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	for _, name := range []string{config.ConfigFileName, config.ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", name)
		}
	}

	starter := config.Config{
		MaxTokens:   config.DefaultMaxTokens,
		Dialect:     config.DefaultDialect,
		Port:        config.DefaultPort,
		CatalogPath: config.DefaultCatalogPath,
	}

	data, err := yaml.Marshal(starter)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	header := []byte("# leapchunk configuration\n# Values here are overridden by LEAPCHUNK_* environment variables and flags.\n")
	if err := os.WriteFile(config.ConfigFileName, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.ConfigFileName)
	return nil
}
