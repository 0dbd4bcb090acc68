package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"appointease/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Lookup(t *testing.T) {
	d := NewDirectory(DefaultUsers)
	ctx := context.Background()

	admin, err := d.Lookup(ctx, "admin-123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, err = d.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)

	d.Replace([]models.User{{ID: "u9", Name: "Nine"}})
	assert.Equal(t, 1, d.Len())
	u, err := d.Lookup(ctx, "u9")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	_, err = d.Lookup(ctx, "admin-123")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func newIdentityServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.PathValue("id") {
		case "u1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"u1","name":"Ann","email":"ann@example.com","role":"admin"}`))
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Lookup(t *testing.T) {
	var hits atomic.Int32
	srv := newIdentityServer(t, &hits)
	c := NewClient(srv.URL, "secret")
	ctx := context.Background()

	u, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, models.RoleAdmin, u.Role)

	_, err = c.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = c.Lookup(ctx, "boom")
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, c.HealthCheck(ctx))

	unauthorized := NewClient(srv.URL, "")
	_, err = unauthorized.Lookup(ctx, "u1")
	assert.Error(t, err)
}

func TestClient_RedisCache(t *testing.T) {
	var hits atomic.Int32
	srv := newIdentityServer(t, &hits)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewClient(srv.URL, "secret")
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := c.Lookup(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", u.Email)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists("identity:user:u1"))

	mr.FastForward(2 * time.Minute)
	_, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// Misses are not cached.
	_, err = c.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, mr.Exists("identity:user:missing"))
}

func TestChain_Lookup(t *testing.T) {
	ctx := context.Background()
	local := NewDirectory([]models.User{{ID: "u1", Name: "Local"}})
	remote := NewDirectory([]models.User{{ID: "u1", Name: "Remote"}, {ID: "u2", Name: "Remote Two"}})
	chain := Chain{local, remote}

	u, err := chain.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Local", u.Name)

	u, err = chain.Lookup(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Remote Two", u.Name)

	_, err = chain.Lookup(ctx, "u3")
	assert.ErrorIs(t, err, models.ErrNotFound)

	var hits atomic.Int32
	srv := newIdentityServer(t, &hits)
	broken := Chain{local, NewClient(srv.URL, "secret")}
	_, err = broken.Lookup(ctx, "boom")
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNotFound))
}

func TestDirectory_Search(t *testing.T) {
	d := NewDirectory([]models.User{
		{ID: "user-789", Name: "Jane Smith", Email: "jane@example.com"},
		{ID: "user-101", Name: "John Doe", Email: "john@example.com"},
		{ID: "admin-123", Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin},
	})
	ctx := context.Background()

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"empty lists everyone by name", "", []string{"admin-123", "user-789", "user-101"}},
		{"name is case-insensitive", "JANE", []string{"user-789"}},
		{"email", "john@", []string{"user-101"}},
		{"shared substring", "j", []string{"user-789", "user-101"}},
		{"no match", "zed", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, u := range d.Search(ctx, tt.term) {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestChain_Search(t *testing.T) {
	ctx := context.Background()
	local := NewDirectory([]models.User{{ID: "u1", Name: "Local One"}})
	remote := NewDirectory([]models.User{{ID: "u1", Name: "Remote One"}, {ID: "u2", Name: "Remote Two"}})

	var hits atomic.Int32
	srv := newIdentityServer(t, &hits)
	chain := Chain{local, NewClient(srv.URL, "secret"), remote}

	users := chain.Search(ctx, "one")
	require.Len(t, users, 1)
	assert.Equal(t, "Local One", users[0].Name)

	users = chain.Search(ctx, "")
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)
	assert.Zero(t, hits.Load(), "the remote client is not searchable")

	assert.NotNil(t, Chain{}.Search(ctx, ""))
}
