// Package api exposes the booking engine over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"appointease/internal/database"
	"appointease/internal/metrics"
	"appointease/internal/models"
	"appointease/internal/query"
	"appointease/internal/report"

	"github.com/rs/zerolog"
)

// Booking is the engine surface used by the handlers.
type Booking interface {
	Now() time.Time
	CancelNotice() time.Duration
	NextStatuses(status models.AppointmentStatus) []models.AppointmentStatus
	ListServices() []models.Service
	ListAvailableSlots(date string) iter.Seq[models.TimeSlot]
	ListSlots(date string) iter.Seq[models.TimeSlot]
	FindSlot(id string) (models.TimeSlot, error)
	GetAppointment(id string) (models.Appointment, error)
	Book(ctx context.Context, userID, serviceID, slotID, notes string) (models.Appointment, error)
	Cancel(ctx context.Context, id string) (models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (models.Appointment, error)
	Reschedule(ctx context.Context, id, newSlotID string) (models.Appointment, error)
	CanCancel(id string) (bool, error)
	CreateSlot(ctx context.Context, date, startTime, endTime string) (models.TimeSlot, error)
	SetSlotAvailability(ctx context.Context, id string, available bool) (models.TimeSlot, error)
}

// History returns the journaled events of an appointment.
type History interface {
	History(ctx context.Context, appointmentID string) ([]database.Entry, error)
}

// Options configures the HTTP server.
type Options struct {
	Port          int
	APIKey        string
	RatePerMinute int
	RateBurst     int
}

// HTTPServer serves the booking API.
type HTTPServer struct {
	booking   Booking
	projector *query.Projector
	identity  query.Identity
	exporter  *report.Exporter
	history   History
	apiKey    string
	limiter   *UserRateLimiter
	logger    zerolog.Logger
	server    *http.Server
}

// NewHTTPServer wires the routes. exporter and history may be nil.
func NewHTTPServer(
	booking Booking,
	projector *query.Projector,
	identity query.Identity,
	exporter *report.Exporter,
	history History,
	opts Options,
	logger *zerolog.Logger,
) *HTTPServer {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "api").Logger()
	}
	s := &HTTPServer{
		booking:   booking,
		projector: projector,
		identity:  identity,
		exporter:  exporter,
		history:   history,
		apiKey:    opts.APIKey,
		limiter:   NewUserRateLimiter(opts.RatePerMinute, opts.RateBurst),
		logger:    l,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/services", s.handleListServices)
	mux.HandleFunc("GET /api/slots", s.handleListAvailableSlots)

	mux.Handle("GET /api/me", s.authenticated(s.handleMe))
	mux.Handle("GET /api/appointments", s.authenticated(s.handleListMyAppointments))
	mux.Handle("POST /api/appointments", s.mutating(s.handleBook))
	mux.Handle("GET /api/appointments/{id}", s.authenticated(s.handleGetAppointment))
	mux.Handle("POST /api/appointments/{id}/cancel", s.mutating(s.handleCancel))
	mux.Handle("POST /api/appointments/{id}/reschedule", s.mutating(s.handleReschedule))

	mux.Handle("GET /api/admin/appointments", s.admin(s.handleListAllAppointments))
	mux.Handle("PATCH /api/admin/appointments/{id}/status", s.admin(s.handleUpdateStatus))
	mux.Handle("GET /api/admin/appointments/{id}/history", s.admin(s.handleHistory))
	mux.Handle("GET /api/admin/slots", s.admin(s.handleListAllSlots))
	mux.Handle("POST /api/admin/slots", s.admin(s.handleCreateSlot))
	mux.Handle("PATCH /api/admin/slots/{id}", s.admin(s.handleSetSlotAvailability))
	mux.Handle("GET /api/admin/stats", s.admin(s.handleStats))
	mux.Handle("GET /api/admin/users", s.admin(s.handleListUsers))
	mux.Handle("GET /api/admin/export", s.admin(s.handleExport))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.withAPIKey(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called. http.ErrServerClosed is not an error.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps engine errors onto HTTP status codes.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	var (
		code   int
		reason string
	)
	switch {
	case errors.Is(err, models.ErrNotFound):
		code, reason = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrSlotUnavailable):
		code, reason = http.StatusConflict, "slot_unavailable"
	case errors.Is(err, models.ErrInvalidTransition):
		code, reason = http.StatusConflict, "invalid_transition"
	case errors.Is(err, models.ErrValidation):
		code, reason = http.StatusBadRequest, "validation"
	case errors.Is(err, errForbidden):
		code, reason = http.StatusForbidden, "forbidden"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, reason = http.StatusServiceUnavailable, "cancelled"
	default:
		code, reason = http.StatusInternalServerError, "internal"
		s.logger.Error().Err(err).Msg("request failed")
	}
	metrics.IncRejected(reason)
	writeError(w, code, err.Error())
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON body", models.ErrValidation)
	}
	return nil
}
