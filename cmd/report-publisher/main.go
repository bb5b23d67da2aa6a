package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/workorderflow/internal/handlers"
	"github.com/Lllllllleong/workorderflow/internal/services"
)

var (
	publisherHandler http.Handler
	once             sync.Once
	initErr          error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandlePublishReport" is the entry point name configured in GCP.
	functions.HTTP("HandlePublishReport", handlePublishReport)
}

// main is required by the Go Functions Framework.
func main() {}

func handlePublishReport(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var publisher *services.PublisherFunction
		publisher, initErr = services.NewPublisher(context.Background())
		if initErr == nil {
			publisherHandler = handlers.Publish(publisher)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	publisherHandler.ServeHTTP(w, r)
}
