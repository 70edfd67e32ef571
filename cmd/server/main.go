package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"bus_backoffice/internal/config"
	"bus_backoffice/internal/controllers"
	"bus_backoffice/internal/geocode"
	"bus_backoffice/internal/logger"
	"bus_backoffice/internal/middleware"
	"bus_backoffice/internal/notify"
	"bus_backoffice/internal/routes"
	"bus_backoffice/internal/services"
)

func main() {
	app := &cli.App{
		Name:  "bus-backoffice",
		Usage: "bus ticketing back office",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:  "fares",
				Usage: "fare matrix maintenance",
				Subcommands: []*cli.Command{
					{
						Name:  "reconcile",
						Usage: "report fares whose city pair no longer fits their route",
						Flags: []cli.Flag{
							&cli.UintFlag{Name: "route", Usage: "only this route id"},
							&cli.BoolFlag{Name: "csv", Usage: "print stale fares as CSV"},
						},
						Action: reconcileFares,
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// bootstrap loads config, logging and the database shared by every command.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg.LogFile, cfg.LogLevel, !cfg.IsProduction())

	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrate(c *cli.Context) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logrus.Info("database migrated")
	return nil
}

func serve(c *cli.Context) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	hub := controllers.NewEventHub()
	defer hub.Close()

	sinks := []notify.Sink{notify.LogSink{}, hub}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		queue, err := notify.NewQueueSink(client, cfg.NotifyQueue)
		if err != nil {
			return err
		}
		defer queue.Close()
		sinks = append(sinks, queue)
	}
	dispatcher, err := notify.NewDispatcher(cfg.NotifyWorkers, sinks...)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	var geocoder geocode.Geocoder
	if cfg.GeocoderURL != "" {
		geocoder = geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent)
	}

	svc := services.New(db, dispatcher, geocoder, cfg.AdminEmail)
	if err := svc.Users.EnsureAdmin(c.Context, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := controllers.RegisterValidators(); err != nil {
		return err
	}
	auth := middleware.NewAuth(cfg.JWTSecret, cfg.JWTTTL)
	r := routes.SetupRouter(controllers.NewHandler(svc, auth, hub), routes.Options{
		Auth:          auth,
		PublicLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, 10),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func reconcileFares(c *cli.Context) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	fares := services.NewFareMatrix(db)

	var reports []services.FareReport
	if id := c.Uint("route"); id != 0 {
		report, err := fares.Reconcile(c.Context, id)
		if err != nil {
			return err
		}
		reports = append(reports, *report)
	} else {
		reports, err = fares.ReconcileAll(c.Context)
		if err != nil {
			return err
		}
	}

	rows := services.StaleFareRows(reports)
	if c.Bool("csv") {
		return gocsv.Marshal(rows, os.Stdout)
	}
	for _, r := range reports {
		fmt.Fprintf(os.Stdout, "route %d %q: %d missing, %d stale\n", r.RouteID, r.Title, len(r.Missing), len(r.Stale))
	}
	return nil
}
