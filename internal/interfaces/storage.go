package interfaces

import (
	"context"

	"github.com/billleddy/finapp/internal/models"
)

// ArtifactStore persists rendered charts and narration
type ArtifactStore interface {
	// WriteArtifact stores the image bytes and sets a.Path
	WriteArtifact(ctx context.Context, a *models.Artifact) (string, error)

	// WriteNarration stores the narration mapping for a ticker
	WriteNarration(ctx context.Context, ticker string, n models.Narration) (string, error)

	// WriteFile stores arbitrary bytes, e.g. a deck index, for a ticker
	WriteFile(ctx context.Context, ticker, name string, data []byte) (string, error)

	// Path returns where a named file for ticker lives
	Path(ticker, name string) string

	// Purge removes a ticker's stored files
	Purge(ticker string) (int, error)
}
