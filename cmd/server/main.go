package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collabnext/backend/internal/server"
	mid "github.com/collabnext/backend/internal/server/middleware"
	"github.com/collabnext/backend/internal/telemetry"
	"github.com/collabnext/backend/internal/util"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/logger/console"
	"github.com/collabnext/backend/pkg/normalize"
	"github.com/collabnext/backend/pkg/openalex"
	"github.com/collabnext/backend/pkg/query"
	"github.com/collabnext/backend/pkg/sparql"
	pgxstore "github.com/collabnext/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "collabnext-backend"

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	log := logger.Init(consoleLogger)

	// tracing
	tp, err := telemetry.Init(ctx, log, telemetry.Config{
		ServiceName: serviceName,
		Version:     util.GetEnvString("SERVICE_VERSION", "dev"),
		Exporter:    util.GetEnv("OTEL_EXPORTER"),
		Endpoint:    util.GetEnv("OTEL_ENDPOINT"),
		Insecure:    util.GetEnvBool("OTEL_INSECURE", false),
		SampleRatio: util.GetEnvNumeric("OTEL_SAMPLE_RATIO", 1),
	})
	if err != nil {
		logger.Fatal("Failed to init tracing", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Failed to flush traces", "err", err)
		}
	}()

	// primary store
	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	err = util.RetryErrWithContext(ctx, 5, 2*time.Second, conn.Ping)
	if err != nil {
		// Searches still resolve through the federated sources.
		logger.Warn("Primary store not reachable", "err", err)
	}
	researchStore := pgxstore.NewResearchDBStorage(conn,
		pgxstore.WithLogger(log.With("component", "store")),
		pgxstore.WithTracer(tp.Tracer("store")),
	)

	// external sources
	timeout := time.Duration(util.GetEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	triples := sparql.NewClient(util.GetEnvString("SPARQL_ENDPOINT", sparql.DefaultEndpoint),
		sparql.WithHTTPClient(httpClient),
		sparql.WithLogger(log.With("component", "sparql")),
		sparql.WithTracer(tp.Tracer("sparql")),
	)
	api := openalex.NewClient(util.GetEnvString("OPENALEX_URL", openalex.DefaultBaseURL),
		openalex.WithHTTPClient(httpClient),
		openalex.WithMailto(util.GetEnv("OPENALEX_MAILTO")),
		openalex.WithRateLimit(util.GetEnvNumeric("OPENALEX_RPS", 10)),
		openalex.WithPageCap(util.GetEnvInt("FEDERATION_PAGE_CAP", openalex.DefaultPageCap)),
		openalex.WithLogger(log.With("component", "openalex")),
		openalex.WithTracer(tp.Tracer("openalex")),
	)

	// static assets
	assets, err := loadAssets(ctx, log)
	if err != nil {
		logger.Fatal("Failed to load static assets", "err", err)
	}

	// search
	federation := query.NewFederation(triples, api, query.FederationConfig{
		MinAuthors:        util.GetEnvInt("FEDERATION_MIN_AUTHORS", query.DefaultMinAuthors),
		KnownInstitutions: assets.suggester.KnownInstitutions(),
	},
		query.WithFederationLogger(log.With("component", "federation")),
		query.WithFederationTracer(tp.Tracer("federation")),
	)
	dispatcher := query.NewDispatcher(query.Config{
		MapLimit:         util.GetEnvInt("MAP_LIMIT", query.DefaultMapLimit),
		BatchParallelism: util.GetEnvInt("BATCH_PARALLELISM", 1),
	},
		query.NewStorePrimary(researchStore, log.With("component", "primary")),
		federation,
		normalize.New(api, log.With("component", "normalize")),
		query.WithLogger(log.With("component", "dispatcher")),
		query.WithTracer(tp.Tracer("query")),
	)

	e := server.New(&mid.App{
		Searcher:     dispatcher,
		Suggester:    assets.suggester,
		DefaultGraph: assets.defaultGraph,
		TopicSpace:   assets.topicSpace,
		Store:        researchStore,
		Log:          log,
	}, server.Options{
		ServiceName:  serviceName,
		AllowOrigins: util.GetEnvList("CORS_ORIGINS"),
	})

	if err := server.Run(ctx, e, util.GetEnv("PORT"), log); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
