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
	resolveHandler http.Handler
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// The report links stored on work orders point at this function.
	functions.HTTP("HandleResolveFile", handleResolveFile)
}

// main is required by the Go Functions Framework.
func main() {}

func handleResolveFile(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var resolver *services.ResolverFunction
		resolver, initErr = services.NewResolver(context.Background())
		if initErr == nil {
			resolveHandler = handlers.Resolve(resolver)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	resolveHandler.ServeHTTP(w, r)
}
