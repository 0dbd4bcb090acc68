package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"appointease/internal/booking"
	"appointease/internal/identity"
	"appointease/internal/metrics"
	"appointease/internal/models"
	"appointease/internal/query"
	"appointease/internal/report"
)

// BookRequest is the body of POST /api/appointments.
type BookRequest struct {
	ServiceID string `json:"service_id"`
	SlotID    string `json:"slot_id"`
	Notes     string `json:"notes,omitempty"`
}

// RescheduleRequest is the body of POST /api/appointments/{id}/reschedule.
type RescheduleRequest struct {
	SlotID string `json:"slot_id"`
}

// StatusRequest is the body of PATCH /api/admin/appointments/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// CreateSlotRequest is the body of POST /api/admin/slots.
type CreateSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SlotAvailabilityRequest is the body of PATCH /api/admin/slots/{id}.
type SlotAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

// AppointmentView is a projected appointment plus caller-facing hints.
type AppointmentView struct {
	models.AppointmentWithDetails
	CanCancel    bool                       `json:"can_cancel"`
	NextStatuses []models.AppointmentStatus `json:"next_statuses"`
}

func (s *HTTPServer) handleListServices(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("list_services")
	writeJSON(w, http.StatusOK, map[string]any{"services": s.booking.ListServices()})
}

// GET /api/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_slots")
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	slots := make([]models.TimeSlot, 0)
	for slot := range s.booking.ListAvailableSlots(date) {
		slots = append(slots, slot)
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, _ *http.Request, user models.User) {
	metrics.IncHTTP("me")
	writeJSON(w, http.StatusOK, user)
}

// GET /api/appointments?filter=all|upcoming|past|today|<status>
func (s *HTTPServer) handleListMyAppointments(w http.ResponseWriter, r *http.Request, user models.User) {
	metrics.IncHTTP("list_my_appointments")
	list, err := s.projector.ByUser(r.Context(), user.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeFiltered(w, r, list)
}

func (s *HTTPServer) handleListAllAppointments(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("list_all_appointments")
	list, err := s.projector.All(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeFiltered(w, r, list)
}

func (s *HTTPServer) writeFiltered(w http.ResponseWriter, r *http.Request, list []models.AppointmentWithDetails) {
	now := s.booking.Now()
	filter, err := query.ParseFilter(r.URL.Query().Get("filter"), now)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	filters := []query.Filter{filter}
	if date != "" {
		filters = append(filters, query.OnDate(date))
	}

	filtered := query.Apply(list, filters...)
	views := make([]AppointmentView, 0, len(filtered))
	for _, a := range filtered {
		views = append(views, s.view(a, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": views})
}

func (s *HTTPServer) handleGetAppointment(w http.ResponseWriter, r *http.Request, user models.User) {
	metrics.IncHTTP("get_appointment")
	view, err := s.projector.Get(r.Context(), r.PathValue("id"))
	if err == nil {
		err = authorize(user, view.Appointment)
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(view, s.booking.Now()))
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request, user models.User) {
	metrics.IncHTTP("book")
	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.ServiceID == "" || req.SlotID == "" {
		writeError(w, http.StatusBadRequest, "service_id and slot_id are required")
		return
	}

	appt, err := s.booking.Book(r.Context(), user.ID, req.ServiceID, req.SlotID, req.Notes)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeProjected(w, r, http.StatusCreated, appt.ID)
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request, user models.User) {
	metrics.IncHTTP("cancel")
	id := r.PathValue("id")
	if err := s.checkUserChange(user, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if _, err := s.booking.Cancel(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeProjected(w, r, http.StatusOK, id)
}

func (s *HTTPServer) handleReschedule(w http.ResponseWriter, r *http.Request, user models.User) {
	metrics.IncHTTP("reschedule")
	id := r.PathValue("id")
	var req RescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.SlotID == "" {
		writeError(w, http.StatusBadRequest, "slot_id is required")
		return
	}
	if err := s.checkUserChange(user, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if _, err := s.booking.Reschedule(r.Context(), id, req.SlotID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeProjected(w, r, http.StatusOK, id)
}

// checkUserChange enforces ownership and, for non-admins, the cancellation notice window.
// Terminal appointments pass through so the engine reports the transition error.
func (s *HTTPServer) checkUserChange(user models.User, id string) error {
	appt, err := s.booking.GetAppointment(id)
	if err != nil {
		return err
	}
	if err := authorize(user, appt); err != nil {
		return err
	}
	if user.IsAdmin() || appt.Status.IsTerminal() {
		return nil
	}
	allowed, err := s.booking.CanCancel(id)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: appointments can only be changed at least %s before the start",
			errForbidden, formatNotice(s.booking.CancelNotice().Hours()))
	}
	return nil
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("update_status")
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	id := r.PathValue("id")
	if _, err := s.booking.UpdateStatus(r.Context(), id, status); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeProjected(w, r, http.StatusOK, id)
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("history")
	if s.history == nil {
		writeError(w, http.StatusNotFound, "journal is disabled")
		return
	}
	id := r.PathValue("id")
	if _, err := s.booking.GetAppointment(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	entries, err := s.history.History(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": entries})
}

// GET /api/admin/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleListAllSlots(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("list_all_slots")
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	slots := make([]models.TimeSlot, 0)
	for slot := range s.booking.ListSlots(date) {
		slots = append(slots, slot)
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (s *HTTPServer) handleCreateSlot(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("create_slot")
	var req CreateSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	slot, err := s.booking.CreateSlot(r.Context(), req.Date, req.StartTime, req.EndTime)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (s *HTTPServer) handleSetSlotAvailability(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("set_slot_availability")
	var req SlotAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.IsAvailable == nil {
		writeError(w, http.StatusBadRequest, "is_available is required")
		return
	}
	slot, err := s.booking.SetSlotAvailability(r.Context(), r.PathValue("id"), *req.IsAvailable)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("stats")
	list, err := s.projector.All(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, query.ComputeStats(list, s.booking.Now()))
}

// GET /api/admin/users?search=
func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("list_users")
	searcher, ok := s.identity.(identity.Searcher)
	if !ok {
		writeError(w, http.StatusNotImplemented, "user listing is not available")
		return
	}
	users := searcher.Search(r.Context(), r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "total": len(users)})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, _ models.User) {
	metrics.IncHTTP("export")
	if s.exporter == nil {
		writeError(w, http.StatusNotFound, "export is disabled")
		return
	}
	list, err := s.projector.All(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.Write(r.Context(), &buf, list); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(s.booking.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) writeProjected(w http.ResponseWriter, r *http.Request, code int, id string) {
	view, err := s.projector.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, code, s.view(view, s.booking.Now()))
}

func (s *HTTPServer) view(a models.AppointmentWithDetails, now time.Time) AppointmentView {
	return AppointmentView{
		AppointmentWithDetails: a,
		CanCancel:              booking.CancellationAllowed(a.Status, a.TimeSlot, now, s.booking.CancelNotice()),
		NextStatuses:           s.booking.NextStatuses(a.Status),
	}
}

func authorize(user models.User, appt models.Appointment) error {
	if user.IsAdmin() || appt.UserID == user.ID {
		return nil
	}
	return fmt.Errorf("%w: appointment %s belongs to another user", errForbidden, appt.ID)
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		return "", true
	}
	if _, err := models.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func formatNotice(hours float64) string {
	if hours == float64(int(hours)) {
		return fmt.Sprintf("%dh", int(hours))
	}
	return fmt.Sprintf("%.1fh", hours)
}
