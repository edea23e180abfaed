package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/config"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/mcptools"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve recruiting data as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return mcptools.Run(ctx, st, Version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
