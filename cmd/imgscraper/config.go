package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"imgscraper/pkg/config"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage imgscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IMGSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with the default values",
		Long: `Create a configuration file holding every option at its default value.

The file is created as 'imgscraper.yaml' in the current directory unless
a different path is given with the --config flag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, global)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, global)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration from all sources and check it.

This command checks:
  - YAML syntax
  - Value ranges and enumerations
  - Whether the output directory can be created`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, global)
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, global *globalOptions) error {
	configPath := global.configFile
	if configPath == "" {
		configPath = "imgscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit crawl.seeds and crawl.num_images")
	fmt.Fprintf(out, "2. Run 'imgscraper config validate --config %s'\n", configPath)
	fmt.Fprintf(out, "3. Start with 'imgscraper crawl --config %s'\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, global *globalOptions) error {
	cfg, err := config.Load(global.configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	if global.configFile != "" {
		fmt.Fprintf(out, "\n# Configuration file: %s\n", global.configFile)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, global *globalOptions) error {
	cfg, err := config.Load(global.configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if len(cfg.Crawl.Seeds) == 0 {
		warnings = append(warnings, "no seeds configured, pass URLs on the command line")
	}
	if cfg.Crawl.NumImages == 0 {
		warnings = append(warnings, "num_images is 0, runs will not download anything")
	}
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "  Mode: %s\n", cfg.Crawl.Mode)
	fmt.Fprintf(out, "  Images: %d\n", cfg.Crawl.NumImages)
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(out, "  Frontier: %s\n", cfg.Frontier.Backend)
	fmt.Fprintf(out, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
