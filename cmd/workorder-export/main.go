package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/workorderflow/internal/handlers"
	"github.com/Lllllllleong/workorderflow/internal/services"
)

var (
	exportHandler http.Handler
	statsHandler  http.Handler
	once          sync.Once
	initErr       error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleExportWorkOrders", handleExportWorkOrders)
}

// main is required by the Go Functions Framework.
func main() {}

// handleExportWorkOrders serves the spreadsheet export, and the dashboard
// counts when the path ends in /stats.
func handleExportWorkOrders(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var view *services.WorkOrderView
		view, initErr = services.NewWorkOrderView(context.Background())
		if initErr == nil {
			exportHandler = handlers.Export(view, time.Now)
			statsHandler = handlers.Stats(view, time.Now)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/stats") {
		statsHandler.ServeHTTP(w, r)
		return
	}
	exportHandler.ServeHTTP(w, r)
}
