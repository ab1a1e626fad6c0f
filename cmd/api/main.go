package main

import (
	"log"

	"docgateway-backend/internal/bootstrap"
	"docgateway-backend/internal/shared/config"
	"docgateway-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	r := server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		UploadsHandler:   app.UploadsHandler,
		DownloadsHandler: app.DownloadsHandler,
		HealthService:    app.HealthService,
	})

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
