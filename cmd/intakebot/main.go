package main

import (
	"log"

	corecmd "github.com/m3rciful/intakebot/core/cmd"
	"github.com/m3rciful/intakebot/intake/app"
)

func main() {
	if err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatalf("intakebot: %v", err)
	}
}
