// main package for the lesson-service
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/lesson-service/internal/config"
	"github.com/book-expert/lesson-service/internal/gemini"
	"github.com/book-expert/lesson-service/internal/objectstore"
	"github.com/book-expert/lesson-service/internal/store"
	"github.com/book-expert/logger"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "lesson-service-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Verify every pipeline dependency before declaring readiness
	err = verifyDependencies(cfg, finalLog)
	if err != nil {
		finalLog.Error("Dependency verification failed: %v", err)

		return err
	}

	finalLog.System(
		"Lesson-Service successfully initialized. Storage driver: %s, upload dir: %s",
		cfg.Storage.Driver, cfg.Paths.UploadDir)

	return nil
}

// verifyDependencies opens and exercises each configured backend once:
// storage (runs migrations), the generative client, the speech credential,
// and the optional asset archive bucket.
func verifyDependencies(cfg *config.Config, log *logger.Logger) error {
	_, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	log.Info("Storage ready (%s).", cfg.Storage.Driver)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second)
	defer cancel()

	textClient, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
		cfg.Gemini.MaxAttempts,
		time.Duration(cfg.Gemini.RetryDelaySeconds)*time.Second, log)
	if err != nil {
		return fmt.Errorf("failed to create generative client: %w", err)
	}

	defer func() {
		closeErr := textClient.Close()
		if closeErr != nil {
			log.Warn("Failed to close generative client: %v", closeErr)
		}
	}()

	log.Info("Generative client ready (model %s).", cfg.Gemini.Model)

	if cfg.Speech.APIKey == "" {
		log.Warn("No speech credential configured; audio will degrade to placeholders.")
	}

	if cfg.NATS.URL != "" {
		_, archiveErr := objectstore.Connect(cfg.NATS.URL, cfg.NATS.AssetBucket)
		if archiveErr != nil {
			return fmt.Errorf("failed to connect asset archive: %w", archiveErr)
		}

		log.Info("Asset archive ready (bucket %s).", cfg.NATS.AssetBucket)
	} else {
		log.Info("Asset archiving disabled (no NATS URL configured).")
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
