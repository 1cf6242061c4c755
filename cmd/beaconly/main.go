// main.go - analytics backend server
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"beaconly/internal"
)

func main() {
	app, err := internal.NewApplication()
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Run()
	}()

	waitForShutdownSignal(app, serverErr)
}

// waitForShutdownSignal blocks until a termination signal or a server error,
// then performs graceful shutdown.
func waitForShutdownSignal(app *internal.Application, serverErr <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	app.Shutdown()
	log.Println("Server shutdown complete")
}
