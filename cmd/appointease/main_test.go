package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"appointease/internal/config"
	"appointease/internal/database"
	"appointease/internal/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIdentity(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg config.Config
	resolver := buildIdentity(ctx, &cfg, nil, &logger)
	require.IsType(t, &identity.Directory{}, resolver)
	u, err := resolver.Lookup(ctx, "admin-123")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - id: nurse-1\n    name: Nurse\n"), 0o644))
	cfg.Identity.DirectoryPath = path
	cfg.Identity.BaseURL = "http://identity.invalid"

	resolver = buildIdentity(ctx, &cfg, nil, &logger)
	chain, ok := resolver.(identity.Chain)
	require.True(t, ok)
	require.Len(t, chain, 2)
	u, err = chain[0].Lookup(ctx, "nurse-1")
	require.NoError(t, err)
	assert.Equal(t, "Nurse", u.Name)
}

func TestBackupPath(t *testing.T) {
	var cfg config.Config
	assert.Equal(t, "backups", backupPath(&cfg))
	cfg.Backup.Path = "/var/backups/appointease"
	assert.Equal(t, "/var/backups/appointease", backupPath(&cfg))
}

func TestReadinessHandler(t *testing.T) {
	logger := zerolog.New(io.Discard)
	journal, err := database.NewJournal(filepath.Join(t.TempDir(), "journal.db"), &logger)
	require.NoError(t, err)
	defer journal.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := readinessHandler(map[string]pinger{"journal": journal, "redis": redisPinger{rdb}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())

	mr.Close()
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis not ready")
}
