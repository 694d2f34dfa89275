package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"girthgov/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config and governance policy.
// 2) Build app wiring.
// 3) Run the pipeline stages on every tick (scoring, synthesis, forge,
// completion, learning, outbox relays).
func main() {
	log.Println("girthgov worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil {
		log.Fatalf("girthgov worker stopped with error: %v", err)
	}
}
