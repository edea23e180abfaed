package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/config"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, database and backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		fmt.Println("config: ok")

		if _, err := store.Open(cfg.DBPath); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		fmt.Printf("database: ok (%s)\n", cfg.DBPath)

		if cfg.InviteSecret == "" {
			fmt.Println("invite tokens: DISABLED (invite_secret is empty; flow routes are unauthenticated)")
		} else {
			fmt.Println("invite tokens: ok")
		}

		client := &http.Client{Timeout: 5 * time.Second}
		probe := func(name, url string) {
			if url == "" {
				fmt.Printf("%s: not configured\n", name)
				return
			}
			resp, err := client.Get(url)
			if err != nil {
				fmt.Printf("%s: UNREACHABLE (%v)\n", name, err)
				return
			}
			resp.Body.Close()
			fmt.Printf("%s: reachable (%s)\n", name, url)
		}
		probe("stt backend", cfg.STTBaseURL)
		probe("llm backend", cfg.LLMBaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
