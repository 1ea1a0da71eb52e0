// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/dag"
	"github.com/specialistvlad/lakegrid/internal/executor"
	"github.com/specialistvlad/lakegrid/internal/notify"
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/specialistvlad/lakegrid/internal/runlock"
	"github.com/specialistvlad/lakegrid/internal/runstore"
	"github.com/specialistvlad/lakegrid/internal/scheduler"
	"github.com/specialistvlad/lakegrid/internal/xcom"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	etcdXComPrefix = "/lakegrid/xcom"
	etcdLockPrefix = "/lakegrid/runs"
	etcdLockTTL    = 60
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config

	registry  *registry.Registry
	model     *config.Model
	converter config.Converter
	graph     *dag.Graph
	executor  *executor.Executor

	conns    *connections
	runs     *runstore.Store
	xcom     xcom.Store
	locker   runlock.Locker
	notifier notify.Notifier
	manual   *scheduler.ManualTrigger

	httpServer *http.Server
	closers    []func() error
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration errors are fatal startup errors and panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, outW).With("app", "lakegrid")
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, converter, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "pipeline", model.Pipeline.Name, "tasks", len(model.Tasks))

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", reg.Kinds())

	graph, err := dag.Build(ctx, model, reg)
	if err != nil {
		panic(fmt.Errorf("failed to build dependency graph: %w", err))
	}

	a := &App{
		outW:      outW,
		logger:    logger,
		ctx:       ctx,
		config:    cfg,
		registry:  reg,
		model:     model,
		converter: converter,
		graph:     graph,
		conns:     newConnections(model, converter),
		manual:    scheduler.NewManualTrigger(),
	}
	a.closers = append(a.closers, a.conns.Close)

	runs, err := runstore.Open(cfg.StateDB)
	if err != nil {
		panic(err)
	}
	a.runs = runs
	a.closers = append(a.closers, runs.Close)

	if len(cfg.EtcdEndpoints) > 0 {
		cli, err := clientv3.New(clientv3.Config{Endpoints: cfg.EtcdEndpoints, DialTimeout: 5 * time.Second})
		if err != nil {
			panic(fmt.Errorf("failed to connect to etcd: %w", err))
		}
		a.closers = append(a.closers, cli.Close)
		a.xcom = xcom.NewEtcdStore(cli, etcdXComPrefix)
		a.locker = runlock.NewEtcd(cli, etcdLockPrefix, etcdLockTTL)
		logger.Debug("Using etcd for xcom and run locks.", "endpoints", cfg.EtcdEndpoints)
	} else {
		a.xcom = xcom.NewMemoryStore()
		a.locker = runlock.NewLocal()
	}

	a.notifier = a.buildNotifier(ctx)

	a.executor = executor.New(graph, model, reg, converter, executor.Options{
		Workers:  cfg.WorkerCount,
		XCom:     a.xcom,
		Runs:     a.runs,
		Notifier: a.notifier,
		Conns:    a.conns,
	})
	return a
}

func (a *App) buildNotifier(ctx context.Context) notify.Notifier {
	notifiers := notify.Multi{notify.Log{}}
	if a.config.NotifyURL == "" {
		return notifiers
	}
	sio, err := notify.NewSocketIO(ctx, notify.SocketIOConfig{URL: a.config.NotifyURL})
	if err != nil {
		a.logger.Warn("Socket.IO notifications disabled.", "url", a.config.NotifyURL, "error", err)
		return notifiers
	}
	a.closers = append(a.closers, sio.Close)
	return append(notifiers, sio)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Runs returns the run history store. This is primarily for testing.
func (a *App) Runs() *runstore.Store {
	return a.runs
}

// Run executes the mode selected by the configuration: the history listing,
// the trigger loop, or a single manual run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if a.config.History > 0 {
		return a.History(ctx, a.config.History)
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if a.config.Serve {
		return a.Serve(ctx)
	}
	return a.RunOnce(ctx)
}

// RunOnce starts one manual run and waits for it.
func (a *App) RunOnce(ctx context.Context) error {
	if a.graph.Len() == 0 {
		a.logger.Warn("No tasks found in pipeline, execution not required.")
		return nil
	}

	unlock, err := a.locker.TryLock(ctx, a.model.Pipeline.Name, a.model.Pipeline.MaxActiveRuns)
	if err != nil {
		return fmt.Errorf("cannot start run: %w", err)
	}
	defer unlock(context.WithoutCancel(ctx))

	a.logger.Info("🚀 Starting run...", "pipeline", a.model.Pipeline.Name, "chain", a.graph.IsChain())
	res, err := a.executor.Run(ctx, executor.RunRequest{Trigger: executor.TriggerManual})
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "run_id", res.RunID)
	return nil
}

// Serve runs the pipeline's triggers until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	triggers := []scheduler.Trigger{a.manual}
	if s := a.model.Pipeline.Schedule; s != nil {
		if s.Interval > 0 {
			triggers = append(triggers, &scheduler.IntervalTrigger{Every: s.Interval})
		}
		if s.Dataset != "" {
			store, err := a.conns.ObjectStore(ctx, s.ConnID)
			if err != nil {
				return fmt.Errorf("dataset trigger: %w", err)
			}
			dt, err := scheduler.NewDatasetTrigger(store, s.Dataset, s.PollInterval)
			if err != nil {
				return fmt.Errorf("dataset trigger: %w", err)
			}
			triggers = append(triggers, dt)
		}
	}
	if len(triggers) == 1 {
		a.logger.Warn("Pipeline has no schedule, runs start only on POST /runs.")
	}

	a.logger.Info("⏱️ Serving pipeline.", "pipeline", a.model.Pipeline.Name, "triggers", len(triggers))
	err := scheduler.New(a.executor, a.model.Pipeline.Name, a.model.Pipeline.MaxActiveRuns, a.locker, triggers...).Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases every resource the App opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
