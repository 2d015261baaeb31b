package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/diegovalduran/productloader/internal/models"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const datastoreScope = "https://www.googleapis.com/auth/datastore"

type Firestore struct {
	Client    *firestore.Client
	ProjectID string
	logger    *zap.Logger
}

// NewFirestore authenticates with the service-account file and opens a
// Firestore client. projectID overrides the project named in the file.
func NewFirestore(ctx context.Context, credentialsFile, projectID string, logger *zap.Logger) (*Firestore, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, datastoreScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}

	if _, err := creds.TokenSource.Token(); err != nil {
		return nil, fmt.Errorf("credentials rejected: %w", err)
	}

	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, ErrMissingProject
	}

	client, err := firestore.NewClient(ctx, projectID, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	logger.Info("connected to Firestore", zap.String("project", projectID))

	return &Firestore{
		Client:    client,
		ProjectID: projectID,
		logger:    logger,
	}, nil
}

func (f *Firestore) Close() error {
	return f.Client.Close()
}

func (f *Firestore) SetDocument(ctx context.Context, collection, id string, doc models.Document) error {
	ref, err := f.docRef(collection, id)
	if err != nil {
		return err
	}

	if _, err := ref.Set(ctx, map[string]interface{}(doc)); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) ListDocuments(ctx context.Context, collection string) ([]models.StoredDocument, error) {
	coll := f.Client.Collection(collection)
	if coll == nil {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	iter := coll.Documents(ctx)
	defer iter.Stop()

	var docs []models.StoredDocument
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
		}
		docs = append(docs, models.StoredDocument{
			ID:     snap.Ref.ID,
			Fields: models.Document(snap.Data()),
		})
	}
	return docs, nil
}

// docRef rejects ids Firestore cannot address: empty ones and ids with a
// path separator.
func (f *Firestore) docRef(collection, id string) (*firestore.DocumentRef, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidDocumentID)
	}
	coll := f.Client.Collection(collection)
	if coll == nil {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	ref := coll.Doc(id)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	return ref, nil
}
