package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/aristath/roundtable/internal/config"
	"github.com/aristath/roundtable/internal/debate"
	"github.com/aristath/roundtable/internal/events"
	"github.com/aristath/roundtable/internal/improve"
	"github.com/aristath/roundtable/internal/launch"
	"github.com/aristath/roundtable/internal/logging"
	"github.com/aristath/roundtable/internal/memory"
	"github.com/aristath/roundtable/internal/persistence"
	"github.com/aristath/roundtable/internal/pipeline"
	"github.com/aristath/roundtable/internal/proc"
	"github.com/aristath/roundtable/internal/provider"
	"github.com/aristath/roundtable/internal/routing"
	"github.com/aristath/roundtable/internal/session"
	"github.com/aristath/roundtable/internal/skills"
	"github.com/aristath/roundtable/internal/swarm"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.OrchestratorConfig
	zap      *zap.Logger
	bus      *events.EventBus
	log      *events.Logger
	registry *provider.Registry
	store    persistence.Store
	improver *improve.Engine
	builder  *swarm.Builder
	board    *session.Board
}

// newApp wires every component from cfg. When interactive is set, zap writes
// to the configured log file so the terminal stays with the UI.
func newApp(ctx context.Context, cfg *config.OrchestratorConfig, interactive bool) (*app, error) {
	zl, err := logging.New(cfg.Log, interactive)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus()
	log := events.NewLogger(bus, zl)

	registry := provider.NewRegistry(cfg, provider.WithLogger(zl))
	table := routing.TableFromConfig(cfg.Routing)
	loader := skills.NewLoader(cfg.SkillsDir)

	a := &app{cfg: cfg, zap: zl, bus: bus, log: log, registry: registry}

	var absorber swarm.Absorber
	if !cfg.Memory.Disabled {
		store, err := persistence.NewSQLiteStore(ctx, cfg.Memory.Path)
		if err != nil {
			log.Warn("Memory", "Short-term memory unavailable, continuing without it.", zap.Error(err))
		} else {
			a.store = store
			absorber = memory.NewEngine(registry, cfg.Memory.Provider, store, time.Duration(cfg.Memory.TTL))
		}
	}

	a.improver, err = newImprover(cfg, registry, log, processes)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.builder = swarm.NewBuilder(swarm.BuilderConfig{
		OutputDir:        cfg.OutputDir,
		ConcurrencyLimit: cfg.ConcurrencyLimit,
		Catalog:          registry,
		Pipeline:         pipeline.New(registry, table, log),
		Commands:         &launch.Runner{Launcher: launch.Tmux{}, ScriptDir: cfg.ScriptDir},
		Skills:           loader,
		Memory:           absorber,
		Improver:         a.improver,
		Logger:           log,
	})

	debater := debate.New(registry, cfg.Seats, loader, log)
	a.board = session.NewBoard(debater, a.builder, log)
	return a, nil
}

// newImprover builds the improvement engine. Audit and rewrite go through the
// provider registry unless an external audit service is configured; the safety
// gates always run in a child copy of this binary.
func newImprover(cfg *config.OrchestratorConfig, catalog provider.Catalog, log *events.Logger, pm *proc.ProcessManager) (*improve.Engine, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable for the validator: %w", err)
	}

	var (
		auditor  improve.Auditor
		rewriter improve.Rewriter
	)
	if cfg.Improve.AuditURL != "" {
		client := improve.NewHTTPClient(cfg.Improve.AuditURL, nil, cfg.Improve.RewriteProvider, provider.DefaultRetryConfig())
		auditor, rewriter = client, client
	} else {
		auditor = &improve.LLMAuditor{Catalog: catalog, Provider: cfg.Improve.AuditProvider}
		rewriter = &improve.LLMRewriter{Catalog: catalog, Provider: cfg.Improve.RewriteProvider}
	}

	return improve.NewEngine(improve.Config{
		Dir:        cfg.OutputDir,
		Threshold:  cfg.Improve.Threshold,
		Extensions: cfg.Improve.Extensions,
		Auditor:    auditor,
		Rewriter:   rewriter,
		Validator: &improve.SubprocessValidator{
			Path:      self,
			Args:      []string{"validate"},
			Timeout:   time.Duration(cfg.Improve.ValidatorTimeout),
			Processes: pm,
		},
		Logger: log,
	}), nil
}

// Close waits for a running improvement cycle, then releases the store and logger.
func (a *app) Close() {
	if a.builder != nil {
		a.builder.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.zap.Warn("closing memory store", zap.Error(err))
		}
	}
	a.bus.Close()
	_ = a.zap.Sync()
}
