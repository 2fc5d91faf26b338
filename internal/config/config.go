package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	APIBaseURL string
	StateDSN   string
	LogFile    string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	api := os.Getenv("API_BASE_URL")
	if api == "" {
		api = "http://localhost:5000/api"
	}
	dsn := os.Getenv("STATE_DSN")
	if dsn == "" {
		dsn = "pixelkeys.db" // sqlite file in project root, holds cart records
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./pixelkeys.log"
	}

	cfg := Config{Port: port, APIBaseURL: api, StateDSN: dsn, LogFile: logFile}
	log.Printf("[config] PORT=%s API_BASE_URL=%s STATE_DSN=%s LOG_FILE=%s", cfg.Port, cfg.APIBaseURL, cfg.StateDSN, cfg.LogFile)
	return cfg
}
