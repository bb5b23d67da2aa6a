package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/handlers"
	"github.com/Lllllllleong/workorderflow/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment.", "error", err)
	}

	ctx := context.Background()
	publisher, err := services.NewPublisher(ctx)
	if err != nil {
		slog.Error("Failed to initialize publisher", "error", err)
		os.Exit(1)
	}
	refresher, err := services.NewRefresherForPublisher(publisher)
	if err != nil {
		slog.Error("Failed to initialize refresher", "error", err)
		os.Exit(1)
	}
	resolver, err := services.NewResolver(ctx)
	if err != nil {
		slog.Error("Failed to initialize resolver", "error", err)
		os.Exit(1)
	}
	view, err := services.NewWorkOrderView(ctx)
	if err != nil {
		slog.Error("Failed to initialize work order view", "error", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.Services{
		Publisher: publisher,
		Refresher: refresher,
		Resolver:  resolver,
		View:      view,
		Now:       time.Now,
	})

	port := gcp.GetEnv("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Dashboard server starting.", "port", port)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
