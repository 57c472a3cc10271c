// Package artifacts persists captured frames to local disk just long enough
// for inference to run, then removes them. Files that escape their normal
// deletion path are reaped by a background sweep.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Store struct {
	dir    string
	maxAge time.Duration
	log    *logrus.Logger

	now func() time.Time
}

func New(dir string, maxAge time.Duration, log *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir, maxAge: maxAge, log: log, now: time.Now}, nil
}

// Persist writes a frame and returns its path. The name embeds the user and
// a capture timestamp so sweeps and debugging can attribute leftovers.
func (s *Store) Persist(userID string, frame []byte) (string, error) {
	name := fmt.Sprintf("%s_%d_%s.jpg", userID, s.now().UnixMilli(), uuid.NewString())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// Delete removes an artifact. Deleting one that is already gone is a no-op,
// so the capture path and the sweeper can race freely.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// Sweep deletes expired artifacts on a fixed cadence until the context is
// canceled. Run it in its own goroutine.
func (s *Store) Sweep(ctx context.Context) {
	interval := s.maxAge / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.WithFields(logrus.Fields{
		"dir":      s.dir,
		"max_age":  s.maxAge.String(),
		"interval": interval.String(),
	}).Info("artifact sweep started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("artifact sweep stopped")
			return
		case <-ticker.C:
			if n, err := s.sweepOnce(); err != nil {
				s.log.WithError(err).Warn("artifact sweep failed")
			} else if n > 0 {
				s.log.WithField("removed", n).Info("swept expired artifacts")
			}
		}
	}
}

func (s *Store) sweepOnce() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := s.Delete(filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.WithError(err).WithField("file", entry.Name()).Warn("could not remove expired artifact")
			continue
		}
		removed++
	}
	return removed, nil
}
