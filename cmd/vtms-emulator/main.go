package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"vtstaff/internal/config"
	"vtstaff/internal/emulator"
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic if enabled.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Pick the state store: Redis when configured, memory otherwise.
	var store emulator.Store
	if cfg.Emulator.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Emulator.RedisAddr,
			Password: cfg.Emulator.RedisPassword,
			DB:       cfg.Emulator.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		store = emulator.NewRedisStore(client)
		log.Printf("Emulator state in Redis at %s", cfg.Emulator.RedisAddr)
	} else {
		store = emulator.NewMemoryStore()
		log.Println("Emulator state in memory")
	}

	router := emulator.NewRouter(emulator.RouterDeps{
		Store:       store,
		NewRelicApp: nrApp,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Emulator.Port,
		Handler:      router,
		ReadTimeout:  cfg.Emulator.ReadTimeout,
		WriteTimeout: cfg.Emulator.WriteTimeout,
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting emulator on port %s", cfg.Emulator.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down emulator...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Emulator exited")
}
