package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plataforma",
			Name:      "appointment_created_total",
			Help:      "Count of appointments created by status.",
		},
		[]string{"status"},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plataforma",
			Name:      "slot_conflict_total",
			Help:      "Count of reservation attempts that lost the slot race.",
		},
	)

	appointmentCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plataforma",
			Name:      "appointment_cancelled_total",
			Help:      "Count of appointments cancelled by clients.",
		},
	)

	paymentConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plataforma",
			Name:      "payment_confirmed_total",
			Help:      "Count of payment gateway confirmations by outcome.",
		},
		[]string{"outcome"},
	)

	slotsReconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plataforma",
			Name:      "slots_reconciled_total",
			Help:      "Count of slot rows touched by bulk reconciliation.",
		},
		[]string{"op"},
	)

	pendingReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plataforma",
			Name:      "pending_reclaimed_total",
			Help:      "Count of abandoned pending_payment appointments reclaimed by the sweeper.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			appointmentCreated,
			slotConflicts,
			appointmentCancelled,
			paymentConfirmed,
			slotsReconciled,
			pendingReclaimed,
		)
	})
}

func IncAppointmentCreated(status string) {
	appointmentCreated.WithLabelValues(status).Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func IncAppointmentCancelled() {
	appointmentCancelled.Inc()
}

func IncPaymentConfirmed(outcome string) {
	paymentConfirmed.WithLabelValues(outcome).Inc()
}

func AddSlotsReconciled(op string, n float64) {
	slotsReconciled.WithLabelValues(op).Add(n)
}

func AddPendingReclaimed(n float64) {
	pendingReclaimed.Add(n)
}
