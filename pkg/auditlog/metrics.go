package auditlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entries is the number of audit entries by result.
var Entries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auditlog_entries_total",
		Help: "Number of ticket audit entries by result",
	},
	[]string{"result"},
)
