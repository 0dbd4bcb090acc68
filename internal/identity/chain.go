package identity

import (
	"context"
	"errors"
	"fmt"

	"appointease/internal/models"
)

// Resolver looks up a user by id.
type Resolver interface {
	Lookup(ctx context.Context, userID string) (models.User, error)
}

// Searcher lists known users matching a free-text term.
type Searcher interface {
	Search(ctx context.Context, term string) []models.User
}

// Chain asks each resolver in turn and returns the first hit.
type Chain []Resolver

// Lookup returns ErrNotFound only when every resolver reports not found.
// Any other failure is returned after the remaining resolvers have been tried.
func (c Chain) Lookup(ctx context.Context, userID string) (models.User, error) {
	var lastErr error
	for _, r := range c {
		u, err := r.Lookup(ctx, userID)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return models.User{}, lastErr
	}
	return models.User{}, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
}

// Search merges the results of every resolver that can list users.
// A user known to several resolvers is reported once, as the first one sees it.
func (c Chain) Search(ctx context.Context, term string) []models.User {
	seen := make(map[string]bool)
	out := []models.User{}
	for _, r := range c {
		s, ok := r.(Searcher)
		if !ok {
			continue
		}
		for _, u := range s.Search(ctx, term) {
			if !seen[u.ID] {
				seen[u.ID] = true
				out = append(out, u)
			}
		}
	}
	return out
}
