package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/guardpost/guardpost/pkg/api"
	"github.com/guardpost/guardpost/pkg/config"
	"github.com/guardpost/guardpost/pkg/guard"
	"github.com/guardpost/guardpost/pkg/hash"
	"github.com/guardpost/guardpost/pkg/invites"
	"github.com/guardpost/guardpost/pkg/invitestore"
	"github.com/guardpost/guardpost/pkg/mail"
	"github.com/guardpost/guardpost/pkg/observability"
	"github.com/guardpost/guardpost/pkg/users"
	"github.com/guardpost/guardpost/pkg/userstore"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "guardpost: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	credStore := userstore.New(cfg.Store.UsersFile, logger, metrics)
	inviteStore := invitestore.New(cfg.Store.InvitesFile, logger, metrics)
	hasher := hash.NewArgon2id(cfg.Hash.Timeout)

	var mailer mail.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTP(cfg.SMTP, logger)
	} else {
		logger.Warn("no SMTP host configured, invitation mail will be dropped")
		mailer = mail.NewNoop(logger)
	}

	usersSvc := users.NewService(credStore, hasher, logger)
	invitesSvc := invites.NewService(inviteStore, credStore, hasher, mailer,
		logger, metrics, cfg.Invites.BaseURL, cfg.Invites.TTL)

	server := api.NewServer(usersSvc, invitesSvc, guard.New(cfg.Invites.AdminGroup), logger, metrics)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper, err := invitesSvc.StartSweeper(cfg.Invites.SweepInterval)
	if err != nil {
		logger.WithError(err).Error("failed to start invitation sweeper")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("starting guardpost admin server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
		return nil
	})

	g.Go(func() error {
		if err := credStore.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("credential store watcher stopped")
		}
		return nil
	})

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		sweeper.Stop()
		cancel()
		return nil
	})

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown did not complete cleanly")
	}
	cancel()
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("background task failed")
	}
}
