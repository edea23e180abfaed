// Package cli implements the server's command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:     "hr-recruiter",
	Short:   "AI-assisted voice interview platform",
	Long:    "hr-recruiter runs spoken screening interviews: invite links, microphone checks, recorded answers and transcripts.",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (optional; HRR_* env vars override)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
