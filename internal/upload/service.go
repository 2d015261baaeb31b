// Package upload writes parsed product records to a document store, one
// blocking write per record, in file order.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/diegovalduran/productloader/internal/metrics"
	"github.com/diegovalduran/productloader/internal/models"

	"go.uber.org/zap"
)

// DefaultCollection receives the product documents unless configured otherwise.
const DefaultCollection = "products"

// ErrEmptyKey is returned for a record without a product number.
var ErrEmptyKey = errors.New("record has an empty product number")

// DocumentWriter is the part of a store the uploader needs.
type DocumentWriter interface {
	SetDocument(ctx context.Context, collection, id string, doc models.Document) error
}

// ProgressFunc is called after every successful write.
type ProgressFunc func(done, total int, id string)

type Result struct {
	Written  int
	Distinct int
}

type Service struct {
	writer     DocumentWriter
	collection string
	out        io.Writer
	logger     *zap.Logger
	metrics    *metrics.Recorder
	progress   ProgressFunc
}

type Option func(*Service)

func WithCollection(collection string) Option {
	return func(s *Service) {
		if collection != "" {
			s.collection = collection
		}
	}
}

// WithOutput sets where the per-record console lines go.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.out = w
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

func NewService(writer DocumentWriter, opts ...Option) *Service {
	s := &Service{
		writer:     writer,
		collection: DefaultCollection,
		out:        io.Discard,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload writes every record in order. The first failure stops the run:
// records before it stay written, the rest are never attempted.
func (s *Service) Upload(ctx context.Context, records []models.ProductRecord) (Result, error) {
	var result Result
	seen := make(map[string]struct{}, len(records))

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("upload interrupted before record %d: %w", i+1, err)
		}

		id := record.Key()
		fmt.Fprintf(s.out, "Uploading %s...\n", id)

		if id == "" {
			return result, fmt.Errorf("record %d: %w", i+1, ErrEmptyKey)
		}

		start := time.Now()
		err := s.writer.SetDocument(ctx, s.collection, id, record.Document())
		s.metrics.ObserveWrite(time.Since(start), err)
		if err != nil {
			s.logger.Error("write failed",
				zap.Int("record", i+1),
				zap.String("id", id),
				zap.Int("written", result.Written),
				zap.Error(err))
			return result, fmt.Errorf("failed to upload record %d (product number %s): %w", i+1, id, err)
		}

		result.Written++
		seen[id] = struct{}{}
		s.logger.Debug("document written", zap.String("collection", s.collection), zap.String("id", id))

		if s.progress != nil {
			s.progress(i+1, len(records), id)
		}
	}

	result.Distinct = len(seen)
	return result, nil
}
