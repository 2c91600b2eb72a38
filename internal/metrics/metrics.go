// Package metrics exposes protocol engine counters to Prometheus.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bfble"

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "received_total",
			Help:      "Inbound frames by record type and outcome.",
		},
		[]string{"type", "result"},
	)
	resyncBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "resync_bytes_total",
			Help:      "Bytes discarded while searching for a frame start.",
		},
	)
	partialUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "partial_updates_total",
			Help:      "Single field updates by record type and outcome.",
		},
		[]string{"type", "result"},
	)
	writesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "writes_total",
			Help:      "Outbound frame transmissions by outcome.",
		},
		[]string{"result"},
	)
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Frames waiting to be transmitted.",
		},
	)
	queueClears = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "clears_total",
			Help:      "Times the send queue was dropped on disconnect.",
		},
	)
	stateChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "state_changes_total",
			Help:      "Transport connection state transitions.",
		},
		[]string{"state"},
	)
	sinkPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "publishes_total",
			Help:      "Record snapshots forwarded to the sink.",
		},
		[]string{"type", "success"},
	)
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, resyncBytes, partialUpdates, writesTotal,
			queueDepth, queueClears, stateChanges, sinkPublishes)
	})
}

// Frame outcomes.
const (
	ResultOK        = "ok"
	ResultChecksum  = "checksum"
	ResultMalformed = "malformed"
	ResultUnknown   = "unknown_type"
	ResultDecode    = "decode_error"
	ResultDropped   = "dropped"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

func RecordFrame(recordType, result string) {
	Register()
	framesTotal.WithLabelValues(recordType, result).Inc()
}

func RecordResync(n int) {
	if n <= 0 {
		return
	}
	Register()
	resyncBytes.Add(float64(n))
}

func RecordPartial(recordType, result string) {
	Register()
	partialUpdates.WithLabelValues(recordType, result).Inc()
}

func RecordWrite(result string) {
	Register()
	writesTotal.WithLabelValues(result).Inc()
}

func SetQueueDepth(n int) {
	Register()
	queueDepth.Set(float64(n))
}

func RecordQueueClear() {
	Register()
	queueClears.Inc()
}

func RecordState(state string) {
	Register()
	stateChanges.WithLabelValues(state).Inc()
}

func RecordSinkPublish(recordType string, success bool) {
	Register()
	sinkPublishes.WithLabelValues(recordType, strconv.FormatBool(success)).Inc()
}
