package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentsBooked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "appointments_booked_total",
			Help:      "Count of appointments booked by service.",
		},
		[]string{"service_id"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "appointment_status_changes_total",
			Help:      "Count of appointment status transitions by target status.",
		},
		[]string{"status"},
	)

	reschedules = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "appointments_rescheduled_total",
			Help:      "Count of appointments moved to another slot.",
		},
	)

	slotOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "slot_admin_operations_total",
			Help:      "Count of administrative slot operations.",
		},
		[]string{"operation"},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "booking_rejected_total",
			Help:      "Count of engine operations rejected by reason.",
		},
		[]string{"reason"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentsBooked, statusChanges, reschedules, slotOps, bookingRejected, httpRequests)
	})
}

func IncBooked(serviceID string) {
	appointmentsBooked.WithLabelValues(serviceID).Inc()
}

func IncStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

func IncRescheduled() {
	reschedules.Inc()
}

func IncSlotOperation(operation string) {
	slotOps.WithLabelValues(operation).Inc()
}

func IncRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
