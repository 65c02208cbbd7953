package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/kayo09/mood-tracker/internal/auth"
	authpg "github.com/kayo09/mood-tracker/internal/auth/postgres"
	"github.com/kayo09/mood-tracker/internal/config"
	"github.com/kayo09/mood-tracker/internal/httpapi"
	"github.com/kayo09/mood-tracker/internal/journal"
	journalpg "github.com/kayo09/mood-tracker/internal/journal/postgres"
	"github.com/kayo09/mood-tracker/internal/logging"
	"github.com/kayo09/mood-tracker/internal/mail"
	"github.com/kayo09/mood-tracker/internal/observability"
	"github.com/kayo09/mood-tracker/internal/store"
)

// defaultConfigPath is used when --config is not given and the file exists.
const defaultConfigPath = "moodtracker.yaml"

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mood tracker API server",
		Long: `Start the HTTP API and observability servers. Operational settings
come from the config file and flags; secrets (SECRET_KEY,
SECURITY_PASSWORD_SALT, DATABASE_URL, MAIL_USERNAME, MAIL_PASSWORD)
come from the environment.`,
		RunE: runServe,
	}

	defaults := config.Default()
	cmd.Flags().String("server.addr", defaults.Server.Addr, "API listen address")
	cmd.Flags().String("server.base_url", defaults.Server.BaseURL, "public base URL used in verification links")
	cmd.Flags().String("observability.addr", defaults.Observability.Addr, "metrics and health listen address")
	cmd.Flags().String("log.format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("log.level", defaults.Log.Level, "log level (debug, info, warn, error)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := configFile
	if path == "" && config.FileExists(defaultConfigPath) {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	logging.SetDefault(logging.Options{
		Service: "moodtracker",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, secrets.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		Secret:               secrets.SecretKey,
		VerificationSalt:     secrets.VerificationSalt,
		AccessTokenTTL:       cfg.Token.AccessTTL,
		VerificationTokenTTL: cfg.Token.VerificationTTL,
	})
	if err != nil {
		return err
	}

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: secrets.MailUsername,
		Password: secrets.MailPassword,
	}, logger)
	if err != nil {
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	entries := journalpg.NewEntryRepository(pool)
	hasher := auth.NewArgon2idHasher()

	registration, err := auth.NewRegistrationService(accounts, hasher, codec, mailer, cfg.Server.BaseURL, logger)
	if err != nil {
		return err
	}
	login, err := auth.NewAuthService(accounts, hasher, codec, logger)
	if err != nil {
		return err
	}
	verification, err := auth.NewVerificationService(accounts, codec, logger)
	if err != nil {
		return err
	}
	journalSvc, err := journal.NewService(entries, logger)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	api, err := httpapi.NewAPI(httpapi.APIConfig{
		Registration: registration,
		Login:        login,
		Verification: verification,
		Journal:      journalSvc,
		Accounts:     accounts,
		Codec:        codec,
		Metrics:      obsServer.Metrics(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	apiServer := httpapi.NewServer(cfg.Server.Addr, api.Routes(), logger)

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.With("operation", "start observability server").Wrap(err)
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopServers(logger, obsServer, nil)
		return oops.With("operation", "start api server").Wrap(err)
	}

	logger.Info("mood tracker running",
		"api_addr", apiServer.Addr(),
		"observability_addr", obsServer.Addr(),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-apiErrCh:
		if err != nil {
			runErr = oops.With("component", "api").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			runErr = oops.With("component", "observability").Wrap(err)
		}
	}

	stopServers(logger, obsServer, apiServer)
	return runErr
}

func stopServers(logger *slog.Logger, obs *observability.Server, api *httpapi.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(ctx); err != nil {
			logger.Error("api server shutdown failed", "error", err)
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			logger.Error("observability server shutdown failed", "error", err)
		}
	}
}
