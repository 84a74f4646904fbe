package main

import (
	"flag"
	"os"

	"github.com/DRSN-tech/movie-chat/internal/app"
	config "github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	skipIngest := flag.Bool("skip-insert", false, "skip initial dataset ingestion")
	flag.Parse()

	log := logger.NewSlogLogger()

	if err := godotenv.Load(); err != nil {
		log.Debugf(".env file not loaded: %v", err)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application := app.New(cfg, log, *skipIngest)
	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
