package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/mpc180222/messagely/internal/server"
	"github.com/mpc180222/messagely/internal/server/config"
)

func main() {

	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
