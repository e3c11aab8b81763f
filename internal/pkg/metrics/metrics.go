package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lifecycle and payment counters exposed on /metrics.
var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiro_lifecycle_transitions_total",
		Help: "Applied project lifecycle transitions by event.",
	}, []string{"event"})

	TransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiro_lifecycle_transitions_rejected_total",
		Help: "Lifecycle transitions rejected by a guard or status check.",
	}, []string{"event"})

	PaymentConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiro_payment_confirmations_total",
		Help: "Payment confirmation attempts by outcome.",
	}, []string{"outcome"})

	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiro_messages_posted_total",
		Help: "Chat messages stored.",
	})
)
