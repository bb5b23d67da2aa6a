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
	refreshHandler http.Handler
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleRefreshReports", handleRefreshReports)
}

// main is required by the Go Functions Framework.
func main() {}

// handleRefreshReports runs a batch refresh. The in-flight guard lives on the
// refresher instance, so overlapping calls on one instance get a 409.
func handleRefreshReports(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var refresher *services.RefresherFunction
		refresher, initErr = services.NewRefresher(context.Background())
		if initErr == nil {
			refreshHandler = handlers.Refresh(refresher)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	refreshHandler.ServeHTTP(w, r)
}
