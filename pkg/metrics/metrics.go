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

// Package metrics records budget-sync and cost-label validation results as
// Prometheus metrics.
//
// Recorders translate domain results into a fixed set of metric updates on a
// Backend. The Prometheus backend is built from a table of Definitions and
// registers its vectors on a caller-owned registry; each binary creates one
// registry and one backend, and never uses the global default registry.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// ErrUnknownMetric is returned when a backend call names a metric that was
// not defined, or defined with a different kind.
var ErrUnknownMetric = errors.New("unknown metric")

// Backend is the write-only sink recorders update. Every method returns an
// error instead of panicking; recorders log and drop those errors.
type Backend interface {
	// IncrementCounter adds delta to a counter. delta must not be negative.
	IncrementCounter(name string, labels prometheus.Labels, delta float64) error

	// SetGauge sets a gauge to value.
	SetGauge(name string, labels prometheus.Labels, value float64) error

	// ObserveHistogram adds one observation to a histogram.
	ObserveHistogram(name string, labels prometheus.Labels, value float64) error

	// Push delivers the current metric state to a push gateway. Backends
	// that are scraped instead of pushed return nil.
	Push(ctx context.Context) error
}

// Kind is the Prometheus metric type of a Definition.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Definition describes one metric family.
type Definition struct {
	Name   string
	Help   string
	Kind   Kind
	Labels []string

	// Buckets is used for histograms only. Nil selects prometheus.DefBuckets.
	Buckets []float64
}

// PrometheusBackend implements Backend with client_golang vectors. It is safe
// for concurrent use.
type PrometheusBackend struct {
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec

	pusher *push.Pusher
}

// NewPrometheusBackend creates a vector for each definition and registers it
// with reg. It panics if a definition collides with an already registered
// metric, as prometheus.MustRegister does.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	backend := metrics.NewPrometheusBackend(reg, metrics.SyncDefinitions()...)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewPrometheusBackend(reg prometheus.Registerer, defs ...Definition) *PrometheusBackend {
	b := &PrometheusBackend{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	for _, def := range defs {
		var c prometheus.Collector
		switch def.Kind {
		case KindCounter:
			v := prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: def.Help}, def.Labels)
			b.counters[def.Name] = v
			c = v
		case KindGauge:
			v := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: def.Name, Help: def.Help}, def.Labels)
			b.gauges[def.Name] = v
			c = v
		case KindHistogram:
			v := prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    def.Name,
				Help:    def.Help,
				Buckets: def.Buckets,
			}, def.Labels)
			b.histograms[def.Name] = v
			c = v
		default:
			panic(fmt.Sprintf("metric %s: unsupported kind %v", def.Name, def.Kind))
		}
		reg.MustRegister(c)
	}

	return b
}

// WithPusher makes Push deliver metrics through p. The pusher should gather
// from the same registry the backend registered on, e.g.
//
//	push.New(url, job).Gatherer(reg)
func (b *PrometheusBackend) WithPusher(p *push.Pusher) *PrometheusBackend {
	b.pusher = p
	return b
}

func (b *PrometheusBackend) IncrementCounter(name string, labels prometheus.Labels, delta float64) error {
	vec, ok := b.counters[name]
	if !ok {
		return fmt.Errorf("%w: counter %s", ErrUnknownMetric, name)
	}
	if delta < 0 {
		return fmt.Errorf("counter %s: negative delta %v", name, delta)
	}
	c, err := vec.GetMetricWith(labels)
	if err != nil {
		return fmt.Errorf("counter %s: %w", name, err)
	}
	c.Add(delta)
	return nil
}

func (b *PrometheusBackend) SetGauge(name string, labels prometheus.Labels, value float64) error {
	vec, ok := b.gauges[name]
	if !ok {
		return fmt.Errorf("%w: gauge %s", ErrUnknownMetric, name)
	}
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		return fmt.Errorf("gauge %s: %w", name, err)
	}
	g.Set(value)
	return nil
}

func (b *PrometheusBackend) ObserveHistogram(name string, labels prometheus.Labels, value float64) error {
	vec, ok := b.histograms[name]
	if !ok {
		return fmt.Errorf("%w: histogram %s", ErrUnknownMetric, name)
	}
	h, err := vec.GetMetricWith(labels)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", name, err)
	}
	h.Observe(value)
	return nil
}

// Push replaces the job's metrics on the push gateway with the current
// registry contents. Without a pusher it does nothing.
func (b *PrometheusBackend) Push(ctx context.Context) error {
	if b.pusher == nil {
		return nil
	}
	if err := b.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
