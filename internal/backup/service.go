package backup

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diegovalduran/productloader/internal/database"
	"github.com/diegovalduran/productloader/internal/models"

	"go.uber.org/zap"
)

const (
	filePrefix      = "backup_"
	fileExtension   = ".jsonl"
	timestampLayout = "20060102_150405"
)

var ErrEmptyBackup = errors.New("backup file is empty")

type Service struct {
	store  database.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store database.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// BackupCollection exports a collection to outputDir as JSON lines, one
// document per line, and returns the file path.
func (s *Service) BackupCollection(ctx context.Context, collectionName, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("%s%s_%s%s", filePrefix, collectionName, s.now().Format(timestampLayout), fileExtension)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}

	count, err := s.WriteBackup(ctx, collectionName, file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("backup failed: %w", err)
	}

	s.logger.Info("backup completed",
		zap.String("collection", collectionName),
		zap.Int("documents", count),
		zap.String("file", path))
	return path, nil
}

// WriteBackup streams every document of the collection to w.
func (s *Service) WriteBackup(ctx context.Context, collectionName string, w io.Writer) (int, error) {
	docs, err := s.store.ListDocuments(ctx, collectionName)
	if err != nil {
		return 0, err
	}

	buf := bufio.NewWriter(w)
	encoder := json.NewEncoder(buf)
	for _, doc := range docs {
		if err := encoder.Encode(doc); err != nil {
			return 0, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write backup data: %w", err)
	}
	return len(docs), nil
}

// RestoreCollection replays a backup file into the collection, one
// replace-write per document in file order. The first failed write stops
// the restore.
func (s *Service) RestoreCollection(ctx context.Context, collectionName, inputFile string) (int, error) {
	file, err := os.Open(inputFile)
	if err != nil {
		return 0, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	docs, err := ReadBackup(file)
	if err != nil {
		return 0, err
	}

	for i, doc := range docs {
		if err := s.store.SetDocument(ctx, collectionName, doc.ID, doc.Fields); err != nil {
			return i, fmt.Errorf("restore failed at document %d (%s): %w", i+1, doc.ID, err)
		}
	}

	s.logger.Info("restore completed",
		zap.String("collection", collectionName),
		zap.Int("documents", len(docs)),
		zap.String("file", inputFile))
	return len(docs), nil
}

// ReadBackup decodes a JSON-lines backup. Whole numbers come back as int64
// and other numbers as float64, matching what the uploader wrote.
func ReadBackup(r io.Reader) ([]models.StoredDocument, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var docs []models.StoredDocument
	for {
		var doc models.StoredDocument
		if err := decoder.Decode(&doc); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode backup line %d: %w", len(docs)+1, err)
		}
		if doc.ID == "" {
			return nil, fmt.Errorf("backup line %d has no document id", len(docs)+1)
		}
		for key, value := range doc.Fields {
			doc.Fields[key] = normalizeNumber(value)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func normalizeNumber(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		for key, inner := range v {
			v[key] = normalizeNumber(inner)
		}
		return v
	case []interface{}:
		for i, inner := range v {
			v[i] = normalizeNumber(inner)
		}
		return v
	default:
		return v
	}
}

func (s *Service) ValidateBackupFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot open backup file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("cannot get file info: %w", err)
	}

	if fileInfo.Size() == 0 {
		return ErrEmptyBackup
	}

	if extension := filepath.Ext(filename); extension != fileExtension {
		return fmt.Errorf("expected %s file but got %q", fileExtension, extension)
	}

	return nil
}

// CollectionFromFilename recovers the collection name from a file created by
// BackupCollection, e.g. backup_products_20240101_120000.jsonl -> products.
func CollectionFromFilename(path string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(path), fileExtension)
	if !strings.HasPrefix(base, filePrefix) {
		return "", false
	}
	base = strings.TrimPrefix(base, filePrefix)

	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return "", false
	}
	name := strings.Join(parts[:len(parts)-2], "_")
	if name == "" {
		return "", false
	}
	return name, true
}
