// Package artifacts writes rendered chart images and narration to disk.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/interfaces"
	"github.com/billleddy/finapp/internal/models"
)

// Layouts for artifact paths
const (
	LayoutNested = "nested" // <root>/<ticker>/<name>.png
	LayoutFlat   = "flat"   // <root>/<ticker>_<name>.png
)

// NarrationFile is the narration mapping written beside a ticker's charts
const NarrationFile = "narration.json"

var _ interfaces.ArtifactStore = (*Store)(nil)

// Store writes artifacts under a root directory. Every write replaces the
// target atomically, so readers never observe a partial image.
type Store struct {
	root   string
	layout string
	logger *common.Logger
}

// NewStore creates the root directory and returns a store
func NewStore(logger *common.Logger, root, layout string) (*Store, error) {
	if layout == "" {
		layout = LayoutNested
	}
	if layout != LayoutNested && layout != LayoutFlat {
		return nil, fmt.Errorf("unknown artifact layout %q", layout)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root %s: %w", root, err)
	}
	logger.Debug().Str("path", root).Str("layout", layout).Msg("Artifact store opened")
	return &Store{root: root, layout: layout, logger: logger}, nil
}

// Root returns the base output path
func (s *Store) Root() string {
	return s.root
}

// Path returns where a named file for ticker is stored
func (s *Store) Path(ticker, name string) string {
	ticker = sanitizeKey(ticker)
	name = sanitizeKey(name)
	if s.layout == LayoutFlat {
		return filepath.Join(s.root, ticker+"_"+name)
	}
	return filepath.Join(s.root, ticker, name)
}

// WriteArtifact stores a rendered chart as <name>.png and returns its path
func (s *Store) WriteArtifact(ctx context.Context, a *models.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(a.Bytes) == 0 {
		return "", fmt.Errorf("artifact %s/%s is empty", a.Ticker, a.Name)
	}
	target := s.Path(a.Ticker, a.Name+".png")
	if err := writeAtomic(target, a.Bytes); err != nil {
		return "", err
	}
	a.Path = target
	return target, nil
}

// WriteNarration stores the narration mapping as indented JSON
func (s *Store) WriteNarration(ctx context.Context, ticker string, n models.Narration) (string, error) {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal narration: %w", err)
	}
	return s.WriteFile(ctx, ticker, NarrationFile, append(data, '\n'))
}

// WriteFile stores arbitrary bytes under name for ticker
func (s *Store) WriteFile(ctx context.Context, ticker, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := s.Path(ticker, name)
	if err := writeAtomic(target, data); err != nil {
		return "", err
	}
	return target, nil
}

// Purge removes every artifact stored for ticker and returns the count
func (s *Store) Purge(ticker string) (int, error) {
	if s.layout == LayoutNested {
		dir := filepath.Join(s.root, sanitizeKey(ticker))
		return purgeAllFiles(dir), nil
	}
	prefix := sanitizeKey(ticker) + "_"
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", s.root, err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			if os.Remove(filepath.Join(s.root, e.Name())) == nil {
				count++
			}
		}
	}
	return count, nil
}

// --- helpers ---

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func purgeAllFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			count++
		}
	}
	return count
}
