package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "imgscraper",
		Short: "Download images and captions from websites",
		Long: `imgscraper downloads a bounded number of images from one or more websites.

Modes:
  crawl   breadth-first crawl of same-origin pages, saving figure images
          together with their captions (caption_<i>.txt)
  scrape  every <img> on each seed page, without following links

Files are written as image_<i>.jpg in the output directory (default
scraped_images), numbered in the order the images were found.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./.imgscraper.yaml or ~/.config/imgscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only print errors and the final summary")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show logs and run statistics")

	rootCmd.SetVersionTemplate(`imgscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newRunCmd(opts, modeCrawl))
	rootCmd.AddCommand(newRunCmd(opts, modePage))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
