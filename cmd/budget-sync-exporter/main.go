/*
Copyright 2025 Costwatch Contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Main entrypoint for the budget-sync exporter.
//
// The exporter reads the budget-sync Cloud Function's completion logs from
// Cloud Logging, parses each completion line, and serves the results as
// Prometheus metrics.
//
// Coverage: Excluded - main entrypoints are tested via E2E tests

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/nextdoor/costwatch/internal/cache"
	"github.com/nextdoor/costwatch/internal/controller"
	"github.com/nextdoor/costwatch/pkg/cloudlogging"
	"github.com/nextdoor/costwatch/pkg/config"
	"github.com/nextdoor/costwatch/pkg/metrics"
	"github.com/nextdoor/costwatch/pkg/synclog"
)

var setupLog = ctrl.Log.WithName("setup")

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// coverage:ignore - main entrypoint, tested via E2E
func main() {
	var configFile string
	var metricsAddr string
	var probeAddr string
	var exampleMode bool
	var historySize int
	var staleAfter time.Duration
	flag.StringVar(&configFile, "config", "/etc/costwatch/config.yaml",
		"Path to the configuration file. Can be overridden with COSTWATCH_CONFIG_PATH environment variable.")
	flag.StringVar(&metricsAddr, "metrics-bind-address", "",
		"The address the metrics endpoint binds to. Overrides metricsBindAddress from the config file.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", "",
		"The address the probe endpoint binds to. Overrides healthProbeBindAddress from the config file.")
	flag.BoolVar(&exampleMode, "example", false,
		"Record example sync operations instead of reading Cloud Logging.")
	flag.IntVar(&historySize, "history-size", cache.DefaultHistorySize,
		"Number of recent sync records served on /debug/sync/.")
	flag.DurationVar(&staleAfter, "history-stale-after", controller.DefaultStaleAfter,
		"How long without a new sync record before /debug/sync/stats reports the history as stale.")
	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	if envConfigPath := os.Getenv("COSTWATCH_CONFIG_PATH"); envConfigPath != "" {
		configFile = envConfigPath
	}

	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
		setupLog.Error(err, "failed to load configuration", "config-file", configFile)
		os.Exit(1)
	}

	// --zap-log-level wins over logLevel from the config file.
	if opts.Level == nil {
		opts.Level = cfg.GetLogLevel()
	}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsBindAddress
	}
	if probeAddr == "" {
		probeAddr = cfg.HealthProbeBindAddress
	}
	setupLog.Info("loaded configuration",
		"project", cfg.BudgetSync.ProjectID,
		"function", cfg.GetFunctionName(),
		"interval", cfg.GetSyncInterval().String(),
		"log-level", cfg.LogLevel)

	if err := run(cfg, metricsAddr, probeAddr, exampleMode, historySize, staleAfter); err != nil {
		setupLog.Error(err, "exporter failed")
		os.Exit(1)
	}
}

// coverage:ignore - wiring, tested via E2E
func run(
	cfg *config.Config,
	metricsAddr, probeAddr string,
	exampleMode bool,
	historySize int,
	staleAfter time.Duration,
) error {
	ctx := ctrl.SetupSignalHandler()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	backend := metrics.NewPrometheusBackend(registry, metrics.SyncDefinitions()...)
	syncRecorder := metrics.NewSyncRecorder(backend, ctrl.Log.WithName("sync-metrics"))
	history := cache.NewSyncHistory(historySize)
	recorders := synclog.Recorders{syncRecorder, history}
	readiness := controller.NewCollectionReadiness()
	setupLog.Info("metrics initialized")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	controller.RegisterDebugEndpoints(metricsMux, history, staleAfter, setupLog)
	metricsServer := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go serve(metricsServer, "metrics")

	healthHandler := &healthz.Handler{
		Checks: map[string]healthz.Checker{
			"healthz":         healthz.Ping,
			readiness.Name(): readiness.Check,
		},
	}
	healthMux := http.NewServeMux()
	healthMux.Handle("/healthz", http.StripPrefix("/healthz", healthHandler))
	healthMux.Handle("/readyz", http.StripPrefix("/readyz", healthHandler))
	healthServer := &http.Server{Addr: probeAddr, Handler: healthMux}
	go serve(healthServer, "health")

	if exampleMode {
		n := controller.RecordExamples(recorders, syncRecorder)
		readiness.MarkPass(nil)
		setupLog.Info("recorded example sync operations", "count", n)
		<-ctx.Done()
	} else {
		reader, err := cloudlogging.NewReader(ctx, cfg.BudgetSync.ProjectID)
		if err != nil {
			return err
		}
		defer func() {
			if err := reader.Close(); err != nil {
				setupLog.Error(err, "failed to close Cloud Logging client")
			}
		}()

		filter := cfg.BudgetSync.Filter
		if filter == "" {
			filter = cloudlogging.BuildFilter(cfg.GetFunctionName())
		}

		reconciler := &controller.BudgetSyncReconciler{
			Collector: &synclog.Collector{
				Reader:     reader,
				Recorder:   recorders,
				Log:        ctrl.Log.WithName("sync-collector"),
				Filter:     filter,
				MaxResults: cfg.GetMaxResults(),
			},
			Readiness:    readiness,
			Log:          ctrl.Log.WithName("budget-sync-reconciler"),
			Interval:     cfg.GetSyncInterval(),
			QueryTimeout: cfg.GetQueryTimeout(),
		}
		setupLog.Info("starting budget sync collection", "filter", filter)
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	setupLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Combine(metricsServer.Shutdown(shutdownCtx), healthServer.Shutdown(shutdownCtx))
}

func serve(server *http.Server, name string) {
	setupLog.Info("starting "+name+" server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		setupLog.Error(err, name+" server stopped with error")
	}
}
