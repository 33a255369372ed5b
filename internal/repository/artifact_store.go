package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"MarketScout/internal/domain/models"
	drepo "MarketScout/internal/domain/repository"
	"MarketScout/pkg/logger"
)

const prevSuffix = ".prev"

// FSArtifactStore publishes artifacts to a directory on disk. Publication is
// atomic via temp file + rename; the previously published artifact is kept
// next to the current one for rank-delta annotations.
type FSArtifactStore struct {
	dir  string
	file string
	log  *logger.Logger
	mu   sync.Mutex
}

func NewFSArtifactStore(dir, file string, log *logger.Logger) drepo.ArtifactStore {
	return &FSArtifactStore{dir: dir, file: file, log: log}
}

func (s *FSArtifactStore) currentPath() string { return filepath.Join(s.dir, s.file) }
func (s *FSArtifactStore) prevPath() string    { return s.currentPath() + prevSuffix }

// Publish writes the artifact and swaps it in. Any failure before the final
// rename leaves the prior artifact untouched.
func (s *FSArtifactStore) Publish(ctx context.Context, a *models.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.file+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}

	// Keep the outgoing artifact readable as the previous one.
	if _, err := os.Stat(s.currentPath()); err == nil {
		if err := os.Rename(s.currentPath(), s.prevPath()); err != nil {
			return fmt.Errorf("retire previous artifact: %w", err)
		}
	}

	if err := os.Rename(tmpName, s.currentPath()); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}

	s.log.Info("artifact published",
		logger.String("path", s.currentPath()),
		logger.String("as_of", a.AsOf),
		logger.Int("tickers", len(a.Tickers)))
	return nil
}

// Previous returns the artifact retired by the last publish, or nil when none
// has been retired yet.
func (s *FSArtifactStore) Previous(ctx context.Context) (*models.Artifact, error) {
	return s.read(ctx, s.prevPath())
}

// Latest returns the currently published artifact, or nil when nothing has
// been published.
func (s *FSArtifactStore) Latest(ctx context.Context) (*models.Artifact, error) {
	return s.read(ctx, s.currentPath())
}

func (s *FSArtifactStore) read(ctx context.Context, path string) (*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var a models.Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &a, nil
}
