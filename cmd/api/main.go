package main

import (
	"context"
	"log"

	"girthgov/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config and governance policy.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	log.Println("girthgov api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("girthgov api stopped with error: %v", err)
	}
}
