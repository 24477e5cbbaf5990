package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"typing-battle/client/internal/app"
)

func main() {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	if err := app.Run(context.Background(), app.OptionsFromEnv()); err != nil && err != context.Canceled {
		log.Fatalf("%v", err)
	}
}
