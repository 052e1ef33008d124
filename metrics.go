package ikdtree

import "github.com/prometheus/client_golang/prometheus"

// treeMetrics holds this package's Prometheus collectors. Registration is
// optional: a Tree built with a nil Config.Registerer still keeps these
// counters internally (queueHighWaterMark backs Open Question 3's
// best-effort max_queue_size diagnostic), it just doesn't expose them.
type treeMetrics struct {
	queueLen           prometheus.Gauge
	queueHighWaterMark int

	rebuildsInline     prometheus.Counter
	rebuildsBackground prometheus.Counter
}

func newTreeMetrics(reg prometheus.Registerer) *treeMetrics {
	m := &treeMetrics{
		queueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ikdtree",
			Name:      "rebuild_queue_length",
			Help:      "High-water mark of the operation log length across all background rebuilds of this tree.",
		}),
		rebuildsInline: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ikdtree",
			Name:      "rebuilds_inline_total",
			Help:      "Total number of subtree rebuilds performed synchronously on the mutator goroutine.",
		}),
		rebuildsBackground: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ikdtree",
			Name:      "rebuilds_background_total",
			Help:      "Total number of subtree rebuilds dispatched to the background goroutine.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.queueLen, m.rebuildsInline, m.rebuildsBackground)
	}

	return m
}

// observeQueueLen records the operation log's current length as a
// best-effort diagnostic of rebuild backlog; it is not a correctness
// signal, only a sizing one (see the design notes' Open Question on
// max_queue_size tracking).
func (m *treeMetrics) observeQueueLen(n int) {
	if m == nil {
		return
	}
	if n > m.queueHighWaterMark {
		m.queueHighWaterMark = n
		m.queueLen.Set(float64(n))
	}
}
