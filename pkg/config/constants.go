// Copyright 2025 Costwatch Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

// Default configuration values. Both binaries share one Config type, so each
// reads only the section it needs.
const (
	DefaultLogLevel               = "info"
	DefaultMetricsBindAddress     = ":9090"
	DefaultHealthProbeBindAddress = ":8081"

	// DefaultFunctionName is the Cloud Function whose logs the exporter reads.
	DefaultFunctionName = "budget-sync"

	// DefaultMaxResults is the number of recent sync entries read per pass.
	DefaultMaxResults = 10

	// MaxMaxResults is the largest accepted budgetSync.maxResults.
	MaxMaxResults = 1000

	DefaultSyncInterval = "60s"
	DefaultQueryTimeout = "30s"

	// DefaultPageSize is the number of objects requested per list call.
	DefaultPageSize = 500

	DefaultPushgatewayURL = "http://prometheus-pushgateway:9091"
	DefaultJobName        = "cost-label-validation"
	DefaultListTimeout    = "2m"
)

// EnvPrefix prefixes every environment override, e.g. COSTWATCH_LOG_LEVEL.
const EnvPrefix = "COSTWATCH"
