package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(slotOpsTotal, slotRecoveredTotal) }

var (
	slotOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_slot_ops_total",
			Help: "Reads and writes of the conversation slot.",
		},
		[]string{"driver", "op", "result"}, // op: 'read'|'write', result: 'ok'|'error'|'empty'
	)

	slotRecoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_slot_recovered_total",
			Help: "Startups that fell back to an empty conversation list.",
		},
		[]string{"reason"}, // 'unreadable', 'corrupt'
	)
)

func IncSlotOp(driver, op, result string) {
	slotOpsTotal.WithLabelValues(norm(driver), norm(op), norm(result)).Inc()
}

func IncSlotRecovered(reason string) {
	slotRecoveredTotal.WithLabelValues(norm(reason)).Inc()
}
