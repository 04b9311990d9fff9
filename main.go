package main

import (
	"github.com/haguru/clinica/config"
	"github.com/haguru/clinica/internal/app"
	logger "github.com/haguru/clinica/pkg/zerolog"
)

func main() {
	log := logger.NewZerologLogger("clinica")

	// create and initialize the app
	application, err := app.NewApp(config.Path(), log)
	if err != nil {
		log.Fatal("Failed to initialize application", "error", err)
	}

	// run the app until a shutdown signal arrives
	if err := application.Run(); err != nil {
		log.Fatal("Application stopped with error", "error", err)
	}
}
