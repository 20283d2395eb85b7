// Command navigator is a small smoke client. It loads configuration,
// builds the container, probes backend health, and lists the campus
// places the data layer resolves, seeds and all.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"lugares-client/infrastructure/config"
	"lugares-client/infrastructure/di"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}

	container, err := di.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("building container", zap.Error(err))
	}
	defer container.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout)
	defer cancel()

	healthy, _ := container.Places.CheckHealth(ctx).Await(ctx)
	logger.Info("backend health probed", zap.Bool("healthy", healthy))

	places, err := container.Places.GetAllPlaces(ctx).Await(ctx)
	if err != nil {
		logger.Fatal("awaiting places", zap.Error(err))
	}

	logger.Info("places resolved", zap.Int("count", len(places)))
	for _, p := range places {
		fmt.Printf("%-14s %-28s %s\n", p.Type, p.Name, p.Category)
	}

	if container.Auth.IsLoggedIn() {
		userCtx, userCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer userCancel()
		if user, err := container.Auth.GetCurrentUser(userCtx).Await(userCtx); err == nil && user != nil {
			logger.Info("restored session", zap.String("email", user.Email))
		}
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
