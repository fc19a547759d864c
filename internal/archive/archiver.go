// Package archive keeps snapshots of the documents that produced listings,
// so extraction rules can be replayed against real markup when a source
// changes its layout.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/hash/sha256"
	"github.com/shaileshms05/learnXAI/internal/session"
)

// BlobStore is the object storage an Archiver writes to.
type BlobStore interface {
	PutObject(ctx context.Context, path, contentType string, r io.Reader) (string, error)
}

// Archiver implements fetchchain.Archiver on a BlobStore.
type Archiver struct {
	store  BlobStore
	now    func() time.Time
	hasher *sha256.Hasher
	logger *zap.Logger
}

var _ fetchchain.Archiver = (*Archiver)(nil)

// New builds an Archiver. A nil now uses time.Now.
func New(store BlobStore, now func() time.Time, logger *zap.Logger) *Archiver {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, now: now, hasher: sha256.New(), logger: logger}
}

// Archive writes doc to {source}/{yyyy}/{mm}/{dd}/{strategy}-{digest}.html.
// The digest covers the body, so identical snapshots share one object.
func (a *Archiver) Archive(ctx context.Context, source string, strategy fetchchain.Strategy, doc session.Document) error {
	if len(doc.Body) == 0 {
		return nil
	}
	path := ObjectPath(source, strategy, a.now().UTC(), a.hasher.Hash(doc.Body))
	uri, err := a.store.PutObject(ctx, path, "text/html; charset=utf-8", bytes.NewReader(doc.Body))
	if err != nil {
		return fmt.Errorf("archive %s snapshot: %w", source, err)
	}
	a.logger.Debug("snapshot archived",
		zap.String("source", source),
		zap.String("strategy", string(strategy)),
		zap.String("url", doc.FinalURL),
		zap.String("uri", uri),
	)
	return nil
}

// ObjectPath names a snapshot object.
func ObjectPath(source string, strategy fetchchain.Strategy, at time.Time, digest string) string {
	if len(digest) > 16 {
		digest = digest[:16]
	}
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s-%s.html", source, at.Format("2006/01/02"), strategy, digest)
}
