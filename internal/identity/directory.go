// Package identity resolves user ids to display identities.
package identity

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"appointease/internal/models"
)

// DefaultUsers are available when no directory file is configured.
var DefaultUsers = []models.User{
	{ID: "admin-123", Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin},
	{ID: "user-456", Name: "Regular User", Email: "user@example.com", Role: models.RoleUser},
}

// Directory is a static, replaceable set of users.
type Directory struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewDirectory creates a directory holding users.
func NewDirectory(users []models.User) *Directory {
	d := &Directory{}
	d.Replace(users)
	return d
}

// Replace swaps the whole user set.
func (d *Directory) Replace(users []models.User) {
	m := make(map[string]models.User, len(users))
	for _, u := range users {
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		m[u.ID] = u
	}
	d.mu.Lock()
	d.users = m
	d.mu.Unlock()
}

// Lookup returns the user or ErrNotFound.
func (d *Directory) Lookup(_ context.Context, userID string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	return u, nil
}

// Len returns the number of users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// Search lists users whose name or email contains term, ignoring case.
// An empty term lists everyone. Results are ordered by name, then id.
func (d *Directory) Search(_ context.Context, term string) []models.User {
	term = strings.ToLower(strings.TrimSpace(term))

	d.mu.RLock()
	out := make([]models.User, 0, len(d.users))
	for _, u := range d.users {
		if term == "" ||
			strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.User) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}
