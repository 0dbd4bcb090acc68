// Package catalog holds the immutable list of bookable services.
package catalog

import (
	"fmt"

	"appointease/internal/models"
)

// DefaultServices is the catalog used when no catalog file is configured.
var DefaultServices = []models.Service{
	{ID: "s1", Name: "Consultation", DurationMinutes: 30, Price: 50, Description: "Initial consultation to discuss your needs"},
	{ID: "s2", Name: "Regular Checkup", DurationMinutes: 45, Price: 80, Description: "Standard checkup appointment"},
	{ID: "s3", Name: "Premium Service", DurationMinutes: 60, Price: 120, Description: "Comprehensive premium service with detailed analysis"},
	{ID: "s4", Name: "Express Service", DurationMinutes: 15, Price: 35, Description: "Quick express service for simple matters"},
}

// Store is a read-only service catalog. It is populated once and never mutated.
type Store struct {
	services []models.Service
	byID     map[string]int
}

// New validates services and builds a catalog preserving their order.
func New(services []models.Service) (*Store, error) {
	s := &Store{
		services: make([]models.Service, 0, len(services)),
		byID:     make(map[string]int, len(services)),
	}
	for _, svc := range services {
		if err := svc.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[svc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate service id %s", models.ErrValidation, svc.ID)
		}
		s.byID[svc.ID] = len(s.services)
		s.services = append(s.services, svc)
	}
	return s, nil
}

// List returns a copy of all services.
func (s *Store) List() []models.Service {
	out := make([]models.Service, len(s.services))
	copy(out, s.services)
	return out
}

// FindByID returns a service or ErrNotFound.
func (s *Store) FindByID(id string) (models.Service, error) {
	idx, ok := s.byID[id]
	if !ok {
		return models.Service{}, fmt.Errorf("%w: service %s", models.ErrNotFound, id)
	}
	return s.services[idx], nil
}
