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

// Main entrypoint for the cost-label validator.
//
// The validator runs once per invocation, normally from a CronJob. It lists
// every Pod and Deployment, checks their cost.* labels, and pushes the
// resulting completeness metrics to a Prometheus Pushgateway.
//
// Coverage: Excluded - main entrypoints are tested via E2E tests

package main

import (
	"flag"
	"os"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/nextdoor/costwatch/internal/controller"
	"github.com/nextdoor/costwatch/pkg/config"
	"github.com/nextdoor/costwatch/pkg/fleet"
	"github.com/nextdoor/costwatch/pkg/kube"
	"github.com/nextdoor/costwatch/pkg/labels"
	"github.com/nextdoor/costwatch/pkg/metrics"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

// coverage:ignore - initialization code, tested via E2E
func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

// coverage:ignore - main entrypoint, tested via E2E
func main() {
	var configFile string
	var pushgatewayURL string
	var namespace string
	flag.StringVar(&configFile, "config", "/etc/costwatch/config.yaml",
		"Path to the configuration file. Can be overridden with COSTWATCH_CONFIG_PATH environment variable.")
	flag.StringVar(&pushgatewayURL, "pushgateway", "",
		"Pushgateway URL. Overrides labelValidation.pushgatewayUrl from the config file.")
	flag.StringVar(&namespace, "namespace", "",
		"Only validate resources in this namespace. Overrides labelValidation.namespace from the config file.")
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
	if pushgatewayURL != "" {
		cfg.LabelValidation.PushgatewayURL = pushgatewayURL
	}
	if namespace != "" {
		cfg.LabelValidation.Namespace = namespace
	}
	setupLog.Info("loaded configuration",
		"pushgateway", cfg.LabelValidation.PushgatewayURL,
		"job", cfg.LabelValidation.JobName,
		"namespace", cfg.LabelValidation.Namespace)

	restConfig, err := ctrl.GetConfig()
	if err != nil {
		setupLog.Error(err, "unable to load kubeconfig")
		os.Exit(1)
	}
	kubeClient, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to create Kubernetes client")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	pusher := push.New(cfg.LabelValidation.PushgatewayURL, cfg.LabelValidation.JobName).Gatherer(registry)
	backend := metrics.NewPrometheusBackend(registry, metrics.ValidationDefinitions()...).WithPusher(pusher)
	recorder := metrics.NewValidationRecorder(backend, ctrl.Log.WithName("validation-metrics"))

	job := &controller.LabelValidationJob{
		Lister: &kube.ClusterLister{
			Client:    kubeClient,
			Namespace: cfg.LabelValidation.Namespace,
			PageSize:  cfg.GetPageSize(),
		},
		Aggregator: &fleet.Aggregator{
			Validator: labels.NewValidator(recorder),
			Log:       ctrl.Log.WithName("aggregator"),
		},
		Metrics:     recorder,
		Log:         ctrl.Log.WithName("label-validation"),
		ListTimeout: cfg.GetListTimeout(),
	}

	run, err := job.Run(ctrl.SetupSignalHandler())
	if err != nil {
		setupLog.Error(err, "validation finished with errors")
	}
	if !run.ProducedData() {
		setupLog.Info("no validation data was produced")
		os.Exit(1)
	}
}
