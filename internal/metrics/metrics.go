// Package metrics — счётчики Prometheus, отдаются на /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry — свой реестр, без глобального DefaultRegisterer.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// StoreSaves — сохранения Dataset по операции и результату (ok|error).
	StoreSaves = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wgdash",
		Subsystem: "store",
		Name:      "saves_total",
		Help:      "Dataset saves by operation and result.",
	}, []string{"op", "result"})

	// StoreDirty — 1, пока память и диск расходятся.
	StoreDirty = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "wgdash",
		Subsystem: "store",
		Name:      "dirty",
		Help:      "1 while the last dataset save failed.",
	})

	// TunnelCommands — вызовы wg-quick/systemctl.
	TunnelCommands = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wgdash",
		Subsystem: "tunnel",
		Name:      "commands_total",
		Help:      "External tunnel tool invocations by action and result.",
	}, []string{"action", "result"})

	LivePeers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "wgdash",
		Subsystem: "tunnel",
		Name:      "live_peers",
		Help:      "Clients present on the interface at the last peers query.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
