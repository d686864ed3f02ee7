// Package metrics holds the Prometheus collectors shared by the server and
// the offline client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "verdant"

var (
	// RPCRequests counts handled RPCs by procedure and Connect code.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "RPCs handled, by procedure and result code.",
	}, []string{"procedure", "code"})

	// RPCDuration observes RPC latency by procedure.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC latency, by procedure.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_subscribers",
		Help:      "Open realtime subscriptions.",
	})

	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_total",
		Help:      "Change events published, by table.",
	}, []string{"table"})

	// CacheReads counts group snapshot reads by result: hit, miss or corrupt.
	CacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_reads_total",
		Help:      "Group snapshot cache reads, by result.",
	}, []string{"result"})

	// Prefetches counts prefetchOne outcomes: ok, partial or failed.
	Prefetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prefetch_total",
		Help:      "Group prefetches, by outcome.",
	}, []string{"outcome"})

	ConnectivityTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connectivity_transitions_total",
		Help:      "Online/offline transitions observed by the client.",
	}, []string{"to"})

	LiveRefetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_refetches_total",
		Help:      "Entity list refetches triggered by change events, by table.",
	}, []string{"table"})
)
