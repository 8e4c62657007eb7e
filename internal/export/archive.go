package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/store"
)

const contentTypeJSON = "application/json"

// Bundle is the document handed to a data subject
type Bundle struct {
	GeneratedAt time.Time          `json:"generated_at"`
	ContactID   int64              `json:"chatwoot_contact_id"`
	Profile     *chatwoot.Contact  `json:"profile,omitempty"`
	Data        *store.ContactData `json:"data"`
}

// Archive stores export bundles in object storage
type Archive struct {
	storage adapter.ObjectStorage
	json    adapter.JSON
	prefix  string
}

// NewArchive creates an Archive writing under prefix
func NewArchive(storage adapter.ObjectStorage, json adapter.JSON, prefix string) *Archive {
	return &Archive{
		storage: storage,
		json:    json,
		prefix:  strings.Trim(prefix, "/"),
	}
}

// Filename returns a fresh, unguessable artifact name for a contact
func Filename(contactID int64, at time.Time) string {
	return fmt.Sprintf("contact-%d-%s.json", contactID, ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String())
}

func (a *Archive) key(filename string) string {
	if a.prefix == "" {
		return filename
	}
	return path.Join(a.prefix, filename)
}

// Put uploads the bundle under filename
func (a *Archive) Put(ctx context.Context, filename string, bundle Bundle) error {
	data, err := a.json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal export bundle: %w", err)
	}
	if err := a.storage.Put(ctx, a.key(filename), contentTypeJSON, data); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Export bundle stored",
		zap.Int64("contact_id", bundle.ContactID),
		zap.String("file", filename),
		zap.Int("bytes", len(data)))
	return nil
}

// Open returns a reader for a stored bundle. The caller closes it.
func (a *Archive) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	if !ValidFilename(filename) {
		return nil, fmt.Errorf("invalid export file name %q", filename)
	}
	return a.storage.Get(ctx, a.key(filename))
}

// ContentType is the media type of stored bundles
func (a *Archive) ContentType() string {
	return contentTypeJSON
}
