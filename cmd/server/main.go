package main

import (
	"github.com/joho/godotenv"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/cli"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

func main() {
	if err := godotenv.Load(); err == nil {
		logging.Debugw("loaded environment from .env")
	}
	cli.Execute()
}
