package models

import "fmt"

// Service is a bookable service definition.
type Service struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	DurationMinutes int     `json:"duration" yaml:"duration_minutes"`
	Price           float64 `json:"price" yaml:"price"`
	Description     string  `json:"description" yaml:"description"`
}

// Validate checks the service definition.
func (s *Service) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: service id is empty", ErrValidation)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: service %s has no name", ErrValidation, s.ID)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: service %s duration must be positive", ErrValidation, s.ID)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: service %s price must not be negative", ErrValidation, s.ID)
	}
	return nil
}
