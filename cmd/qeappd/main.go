package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/PNOGillespie/aiidalab-qe/internal/api"
	"github.com/PNOGillespie/aiidalab-qe/internal/builder"
	"github.com/PNOGillespie/aiidalab-qe/internal/engine"
	"github.com/PNOGillespie/aiidalab-qe/internal/orchestrator"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/auditlog"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/auth"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/env"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/httpserver"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/objectstore"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/postgres"
	"github.com/PNOGillespie/aiidalab-qe/internal/plugins/bands"
	"github.com/PNOGillespie/aiidalab-qe/internal/plugins/pdos"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
	repopg "github.com/PNOGillespie/aiidalab-qe/internal/repo/postgres"
	"github.com/PNOGillespie/aiidalab-qe/internal/service/runs"
	"github.com/PNOGillespie/aiidalab-qe/internal/storage/workdir"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("QEAPP_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("QEAPP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := objectstore.EnsureBuckets(startupCtx, storeClient, storeCfg); err != nil {
		cancel()
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	cancel()

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}

	reg := registry.New()
	if err := bands.Register(reg); err != nil {
		logger.Error("register bands plugin", "error", err)
		os.Exit(2)
	}
	if err := pdos.Register(reg); err != nil {
		logger.Error("register pdos plugin", "error", err)
		os.Exit(2)
	}

	maxMPIPerPool, err := env.Int("QEAPP_MAX_MPI_PER_POOL", 0)
	if err != nil {
		logger.Error("invalid max mpi per pool", "error", err)
		os.Exit(2)
	}
	var factoryOpts []builder.Option
	if maxMPIPerPool > 0 {
		factoryOpts = append(factoryOpts, builder.WithMaxMPIPerPool(maxMPIPerPool))
	}
	factory, err := builder.NewFactory(reg, factoryOpts...)
	if err != nil {
		logger.Error("builder factory init failed", "error", err)
		os.Exit(2)
	}

	dockerBin := env.String("QEAPP_DOCKER_BIN", "docker")
	engineImage := env.String("QEAPP_ENGINE_IMAGE", "qeapp-runner:latest")
	inputsDir := env.String("QEAPP_ENGINE_INPUTS_DIR", filepath.Join(os.TempDir(), "qeapp-inputs"))
	if err := os.MkdirAll(inputsDir, 0o755); err != nil {
		logger.Error("engine inputs dir unavailable", "error", err)
		os.Exit(2)
	}
	eng, err := engine.NewDockerEngine(dockerBin, engineImage, inputsDir)
	if err != nil {
		logger.Error("docker engine init failed", "error", err)
		os.Exit(2)
	}

	workdirStore, err := workdir.NewMinioStoreWithClient(storeClient)
	if err != nil {
		logger.Error("workdir store init failed", "error", err)
		os.Exit(2)
	}

	orch, err := orchestrator.New(reg, eng,
		orchestrator.WithWorkdirStore(workdirStore),
		orchestrator.WithLogger(logger),
	)
	if err != nil {
		logger.Error("orchestrator init failed", "error", err)
		os.Exit(2)
	}

	svc := runs.New(repopg.NewRunStore(db), factory, orch,
		runs.WithAuditLog(db),
		runs.WithLogger(logger),
	)
	if svc == nil {
		logger.Error("runs service init failed")
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("qeappd"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"qeappd",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "minio",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return objectstore.CheckBuckets(checkCtx, storeClient, storeCfg)
				},
			},
		),
	)

	var authenticator auth.Authenticator
	switch authCfg.Mode {
	case auth.ModeOIDC:
		oidcService, err := auth.NewOIDCService(ctx, authCfg)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(2)
		}
		login, err := oidcService.LoginHandler()
		if err != nil {
			logger.Error("oidc login handler init failed", "error", err)
			os.Exit(2)
		}
		callback, err := oidcService.CallbackHandler()
		if err != nil {
			logger.Error("oidc callback handler init failed", "error", err)
			os.Exit(2)
		}
		mux.HandleFunc("GET /auth/login", login)
		mux.HandleFunc("GET /auth/callback", callback)
		mux.HandleFunc("POST /auth/logout", oidcService.LogoutHandler())
		mux.HandleFunc("GET /auth/session", oidcService.SessionHandler())
		authenticator = oidcService
	case auth.ModeDev, auth.ModeDisabled:
		authenticator = auth.NewDevAuthenticator(authCfg)
	default:
		logger.Error("unsupported auth mode", "mode", string(authCfg.Mode))
		os.Exit(2)
	}

	api.New(logger, svc).Register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     auth.MethodRoleAuthorizer(),
		SessionResolve: func(r *http.Request, identity auth.Identity) (string, error) {
			return auth.SessionIDFromRequest(r), nil
		},
		Audit: func(ctx context.Context, event auth.DenyEvent) error {
			auditCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return auditlog.InsertAuthDeny(auditCtx, db, "qeappd", event)
		},
		SkipPrefixes: []string{"/healthz", "/readyz", "/auth/"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "qeappd",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "qeappd", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
