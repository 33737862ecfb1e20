package main

import (
	"log"

	"github.com/mzahmi/gorover/internal/app"
	"github.com/mzahmi/gorover/internal/config"
)

func main() {
	cfg := config.GetConfig()

	app, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("failed building app: %s", err.Error())
	}

	err = app.Start()
	if err != nil {
		log.Printf("firmware shutdown with error: %s\n", err.Error())
	} else {
		log.Println("firmware shutdown successfully")
	}
}
