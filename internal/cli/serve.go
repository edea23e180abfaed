package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/agent"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/config"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/httpapi"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}

		var gen httpapi.QuestionGenerator
		if cfg.LLMModel != "" {
			gen = agent.NewClient(agent.Options{
				BaseURL:  cfg.LLMBaseURL,
				APIKey:   cfg.LLMAPIKey,
				Model:    cfg.LLMModel,
				Fallback: cfg.LLMFallbackModel,
			})
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logging.Infow("serve: starting", "version", Version, "addr", cfg.ListenAddr)
		return httpapi.New(cfg, st, gen).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
