package serve

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"rawtime/internal/rtc"
	"rawtime/internal/tsc"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promMetricPrefix = "rawtime_"

// samples are float64, exact only up to 2^53 ns
const preciseTimeHelp = "Counter reading converted to nanoseconds, no fixed epoch. " +
	"Exported as a float64, so values above 2^53 ns (about 104 days of counter uptime) lose nanosecond precision"

// timeSource is the part of tsc.Clock read on every scrape
type timeSource interface {
	PreciseTimeNow() uint64
	Wallclock() rtc.CalendarTime
}

// newRegistry returns a registry holding the resolution as constant gauges
// and the clock readings as gauges evaluated at scrape time
func newRegistry(clock timeSource, res tsc.Resolution) (*prometheus.Registry, error) {
	frequency := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: promMetricPrefix + "counter_frequency_hz",
			Help: "Resolved counter frequency in Hz, labeled with the source that produced it",
		},
		[]string{"source"},
	)
	frequency.WithLabelValues(string(res.Source)).Set(float64(res.Frequency.Hz()))
	crystal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: promMetricPrefix + "crystal_frequency_hz",
		Help: "Core crystal frequency derived from the counter ratio, 0 when not derived",
	})
	crystal.Set(float64(res.CrystalHz))
	elapsed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: promMetricPrefix + "resolution_seconds",
		Help: "Time spent resolving the counter frequency",
	})
	elapsed.Set(res.Elapsed.Seconds())
	preciseTime := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: promMetricPrefix + "precise_time_nanoseconds",
			Help: preciseTimeHelp,
		},
		func() float64 { return float64(clock.PreciseTimeNow()) },
	)
	wallclock := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: promMetricPrefix + "wallclock_unix_seconds",
			Help: "Calendar clock reading as seconds since the Unix epoch",
		},
		func() float64 { return float64(clock.Wallclock().Unix()) },
	)
	registry := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{frequency, crystal, elapsed, preciseTime, wallclock} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// startPrometheusServer serves registry on listener until ctx is done
func startPrometheusServer(ctx context.Context, listener net.Listener, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	slog.Info("Starting Prometheus metrics server", slog.String("address", listener.Addr().String()))
	errChannel := make(chan error, 1)
	go func() {
		errChannel <- server.Serve(listener)
	}()
	select {
	case err := <-errChannel:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errChannel; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Prometheus metrics server stopped")
	return nil
}
