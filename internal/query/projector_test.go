package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"
	"time"

	"appointease/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	appts    []models.Appointment
	services map[string]models.Service
	slots    map[string]models.TimeSlot
}

func (f *fakeSource) GetAppointment(id string) (models.Appointment, error) {
	for _, a := range f.appts {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Appointment{}, fmt.Errorf("%w: appointment %s", models.ErrNotFound, id)
}

func (f *fakeSource) ListAppointmentsForUser(userID string) iter.Seq[models.Appointment] {
	return func(yield func(models.Appointment) bool) {
		for _, a := range f.appts {
			if a.UserID == userID && !yield(a) {
				return
			}
		}
	}
}

func (f *fakeSource) ListAllAppointments() iter.Seq[models.Appointment] {
	return func(yield func(models.Appointment) bool) {
		for _, a := range f.appts {
			if !yield(a) {
				return
			}
		}
	}
}

func (f *fakeSource) FindService(id string) (models.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return models.Service{}, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeSource) FindSlot(id string) (models.TimeSlot, error) {
	s, ok := f.slots[id]
	if !ok {
		return models.TimeSlot{}, models.ErrNotFound
	}
	return s, nil
}

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) Lookup(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

var base = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newSource() *fakeSource {
	return &fakeSource{
		services: map[string]models.Service{
			"s1": {ID: "s1", Name: "Consultation", DurationMinutes: 30, Price: 50},
		},
		slots: map[string]models.TimeSlot{
			"mon-09": {ID: "mon-09", Date: "2025-03-10", StartTime: "09:00", EndTime: "09:30"},
			"mon-10": {ID: "mon-10", Date: "2025-03-10", StartTime: "10:00", EndTime: "10:30"},
			"tue-09": {ID: "tue-09", Date: "2025-03-11", StartTime: "09:00", EndTime: "09:30"},
		},
		appts: []models.Appointment{
			{ID: "a1", UserID: "u1", ServiceID: "s1", SlotID: "mon-09", Status: models.StatusCancelled, CreatedAt: base},
			{ID: "a2", UserID: "u1", ServiceID: "s1", SlotID: "tue-09", Status: models.StatusPending, CreatedAt: base.Add(time.Minute)},
			{ID: "a3", UserID: "u2", ServiceID: "s1", SlotID: "mon-09", Status: models.StatusConfirmed, CreatedAt: base.Add(2 * time.Minute)},
			{ID: "a4", UserID: "ghost", ServiceID: "s1", SlotID: "mon-10", Status: models.StatusCompleted, CreatedAt: base.Add(3 * time.Minute)},
		},
	}
}

func ids(list []models.AppointmentWithDetails) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestProjector_AllSortedAndJoined(t *testing.T) {
	identity := new(MockIdentity)
	identity.On("Lookup", mock.Anything, "u1").Return(models.User{ID: "u1", Name: "Ann", Email: "ann@example.com"}, nil).Once()
	identity.On("Lookup", mock.Anything, "u2").Return(models.User{ID: "u2", Name: "Bob", Email: "bob@example.com"}, nil).Once()
	identity.On("Lookup", mock.Anything, "ghost").Return(models.User{}, models.ErrNotFound).Once()

	p := NewProjector(newSource(), identity, nil)
	list, err := p.All(context.Background())
	require.NoError(t, err)

	// tue-09 first; mon-09 tie broken by newest creation; mon-10 sits between.
	assert.Equal(t, []string{"a2", "a4", "a3", "a1"}, ids(list))
	assert.Equal(t, "Ann", list[0].UserName)
	assert.Equal(t, "Consultation", list[0].Service.Name)
	assert.Equal(t, "2025-03-11", list[0].TimeSlot.Date)
	assert.Equal(t, UnknownUserName, list[1].UserName)
	assert.Equal(t, UnknownUserEmail, list[1].UserEmail)

	// Each user is looked up once per listing.
	identity.AssertExpectations(t)
}

func TestProjector_ByUser(t *testing.T) {
	p := NewProjector(newSource(), nil, nil)
	list, err := p.ByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, ids(list))
	assert.Equal(t, UnknownUserName, list[0].UserName)

	empty, err := p.ByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProjector_IdentityFailureFallsBack(t *testing.T) {
	identity := new(MockIdentity)
	identity.On("Lookup", mock.Anything, "u2").Return(models.User{}, errors.New("connection refused"))

	p := NewProjector(newSource(), identity, nil)
	view, err := p.Get(context.Background(), "a3")
	require.NoError(t, err)
	assert.Equal(t, UnknownUserName, view.UserName)
}

func TestProjector_IntegrityErrors(t *testing.T) {
	src := newSource()
	src.appts = append(src.appts,
		models.Appointment{ID: "bad-service", UserID: "u1", ServiceID: "s404", SlotID: "mon-09"},
		models.Appointment{ID: "bad-slot", UserID: "u1", ServiceID: "s1", SlotID: "gone"},
	)
	p := NewProjector(src, nil, nil)

	_, err := p.Get(context.Background(), "bad-service")
	assert.ErrorIs(t, err, models.ErrIntegrity)
	_, err = p.Get(context.Background(), "bad-slot")
	assert.ErrorIs(t, err, models.ErrIntegrity)
	_, err = p.All(context.Background())
	assert.ErrorIs(t, err, models.ErrIntegrity)

	_, err = p.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
