package config

import (
	"context"
	"os"
	"time"

	"appointease/internal/models"
)

// UsersWatcher polls a users.yaml file and pushes each successfully parsed
// version to OnUpdate. A broken file keeps the previous directory in effect.
type UsersWatcher struct {
	Path     string
	Interval time.Duration
	OnUpdate func([]models.User)
	OnError  func(error)

	modTime time.Time
}

// Start loads the file once and then polls it in the background until ctx is done.
func (w *UsersWatcher) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Second
	}
	if _, err := w.reload(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := w.reload(); err != nil && w.OnError != nil {
					w.OnError(err)
				}
			}
		}
	}()
	return nil
}

// reload re-reads the file when its mtime moved forward.
func (w *UsersWatcher) reload() (bool, error) {
	info, err := os.Stat(w.Path)
	if err != nil {
		return false, err
	}
	if !w.modTime.IsZero() && !info.ModTime().After(w.modTime) {
		return false, nil
	}

	users, err := LoadUsers(w.Path)
	if err != nil {
		return false, err
	}
	w.modTime = info.ModTime()
	if w.OnUpdate != nil {
		w.OnUpdate(users)
	}
	return true, nil
}

// WatchUsers starts a UsersWatcher for path.
func WatchUsers(ctx context.Context, path string, interval time.Duration, onUpdate func([]models.User), onError func(error)) error {
	w := &UsersWatcher{Path: path, Interval: interval, OnUpdate: onUpdate, OnError: onError}
	return w.Start(ctx)
}
