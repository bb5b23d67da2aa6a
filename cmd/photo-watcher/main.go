package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/workorderflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	watcherInstance *services.PhotoWatcherFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by google.cloud.storage.object.v1.finalized on the work order bucket.
	functions.CloudEvent("RepublishOnPhotoUpload", republishOnPhotoUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func republishOnPhotoUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		watcherInstance, initErr = services.NewPhotoWatcher(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged inside Process; returning one marks the invocation failed.
	return watcherInstance.Process(ctx, gcsEvent)
}
