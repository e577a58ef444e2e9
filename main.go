package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	routerx "github.com/tanpawarit/Chative-Genie-Analytics/agent/agents/router"
	specialistx "github.com/tanpawarit/Chative-Genie-Analytics/agent/agents/specialist"
	assistantx "github.com/tanpawarit/Chative-Genie-Analytics/agent/assistant"
	auditx "github.com/tanpawarit/Chative-Genie-Analytics/agent/audit"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	llmx "github.com/tanpawarit/Chative-Genie-Analytics/agent/llm"
	toolx "github.com/tanpawarit/Chative-Genie-Analytics/agent/tool"
	transcriptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/transcript"
	"github.com/tanpawarit/Chative-Genie-Analytics/agent/transport/cli"
	"github.com/tanpawarit/Chative-Genie-Analytics/agent/transport/httpapi"
	configx "github.com/tanpawarit/Chative-Genie-Analytics/pkg/config"
	"github.com/tanpawarit/Chative-Genie-Analytics/pkg/genie"
	logx "github.com/tanpawarit/Chative-Genie-Analytics/pkg/logger"
)

type AppConfig struct {
	SalesSpaceID    string   `envconfig:"SALES_SPACE_ID" required:"true"`
	CustomerSpaceID string   `envconfig:"CUSTOMER_SPACE_ID" required:"true"`
	AgentMode       string   `envconfig:"AGENT_MODE" default:"direct"`
	RouterParallel  bool     `envconfig:"ROUTER_PARALLEL" default:"false"`
	SessionStore    string   `envconfig:"SESSION_STORE" default:"memory"`
	AllowedOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

func main() {
	serveAddr := flag.String("serve", "", "serve the HTTP API on this address instead of the interactive prompt")
	sessionID := flag.String("session", "", "session id used to keep an interactive transcript")
	flag.Parse()

	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *serveAddr, *sessionID); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(ctx context.Context, serveAddr, sessionID string) error {
	appCfg, err := configx.New[AppConfig]("")
	if err != nil {
		return err
	}

	router, err := buildRouter(ctx, appCfg)
	if err != nil {
		return err
	}

	store, closeStore, err := buildTranscriptStore(ctx, appCfg.SessionStore)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder, closeRecorder, err := buildRecorder(ctx)
	if err != nil {
		return err
	}
	defer closeRecorder()

	assistant, err := assistantx.New(router,
		assistantx.WithTranscriptStore(store),
		assistantx.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}

	if addr := strings.TrimSpace(serveAddr); addr != "" {
		opts := httpapi.Options{AllowedOrigins: appCfg.AllowedOrigins}
		if reader, ok := recorder.(httpapi.AuditReader); ok {
			opts.Audit = reader
		}
		handler := httpapi.NewHandler(assistant, opts)
		return httpapi.Serve(ctx, httpapi.NewServer(addr, handler))
	}

	return cli.Run(ctx, os.Stdin, os.Stdout, assistant, cli.Options{SessionID: sessionID})
}

func buildRouter(ctx context.Context, appCfg *AppConfig) (*routerx.Router, error) {
	mode, err := specialistx.ParseMode(appCfg.AgentMode)
	if err != nil {
		return nil, err
	}

	genieCfg, err := configx.New[genie.Config]("DATABRICKS")
	if err != nil {
		return nil, err
	}
	client, err := genie.NewClient(*genieCfg)
	if err != nil {
		return nil, fmt.Errorf("genie client: %w", err)
	}

	salesTool, err := toolx.NewGenieTool(contractx.DomainSales, appCfg.SalesSpaceID, client)
	if err != nil {
		return nil, err
	}
	customerTool, err := toolx.NewGenieTool(contractx.DomainCustomer, appCfg.CustomerSpaceID, client)
	if err != nil {
		return nil, err
	}

	var registry contractx.Registry
	switch mode {
	case specialistx.ModeLLM:
		llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
		if err != nil {
			return nil, err
		}
		registry, err = specialistx.NewLLMRegistry(ctx, *llmCfg, salesTool, customerTool)
		if err != nil {
			return nil, err
		}
	default:
		registry, err = specialistx.NewDirectRegistry(salesTool, customerTool)
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("mode", string(mode)).
		Bool("parallel", appCfg.RouterParallel).
		Msg("router ready")

	return routerx.New(registry, routerx.WithParallel(appCfg.RouterParallel))
}

func buildTranscriptStore(ctx context.Context, kind string) (transcriptx.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return transcriptx.NewMemoryStore(), noop, nil
	case "upstash":
		cfg, err := configx.New[transcriptx.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, noop, err
		}
		store, err := transcriptx.NewUpstashRedisStore(*cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "redis":
		cfg, err := configx.New[transcriptx.RedisConfig]("REDIS")
		if err != nil {
			return nil, noop, err
		}
		store, err := transcriptx.NewRedisStore(transcriptx.NewRedisClient(*cfg))
		if err != nil {
			return nil, noop, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown session store %q", contractx.ErrValidation, kind)
	}
}

func buildRecorder(ctx context.Context) (auditx.Recorder, func(), error) {
	noop := func() {}

	cfg, err := configx.New[auditx.Config]("AUDIT")
	if err != nil {
		return nil, noop, err
	}
	if !cfg.Enabled() {
		return auditx.NoopRecorder{}, noop, nil
	}

	rec, err := auditx.Open(*cfg)
	if err != nil {
		return nil, noop, err
	}
	if cfg.CreateSchema {
		if err := rec.Migrate(ctx); err != nil {
			_ = rec.Close()
			return nil, noop, fmt.Errorf("audit migrate: %w", err)
		}
	}
	return rec, func() { _ = rec.Close() }, nil
}
