package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/diegovalduran/productloader/internal/models"

	"go.uber.org/zap"
)

// Supported store backends.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

var (
	ErrUnknownBackend    = errors.New("unknown store backend")
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrMissingProject    = errors.New("no project id in configuration or credentials")
)

// Store is an authenticated session with a document store.
type Store interface {
	// SetDocument creates the document or replaces all of its fields.
	SetDocument(ctx context.Context, collection, id string, doc models.Document) error
	ListDocuments(ctx context.Context, collection string) ([]models.StoredDocument, error)
	Close() error
}

// Options select and configure a backend.
type Options struct {
	Backend         string
	CredentialsFile string
	ProjectID       string
	URI             string
	Database        string
	Logger          *zap.Logger
}

// Open establishes a session with the configured backend. The call performs
// the backend's authentication handshake so bad credentials fail here.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case BackendFirestore, "":
		fs, err := NewFirestore(ctx, opts.CredentialsFile, opts.ProjectID, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendMongo:
		db, err := NewMongoDB(ctx, opts.URI, opts.Database, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// DisplayName is the human-readable name of a backend.
func DisplayName(backend string) string {
	switch backend {
	case BackendFirestore, "":
		return "Firestore"
	case BackendMongo:
		return "MongoDB"
	case BackendMemory:
		return "memory"
	default:
		return backend
	}
}
