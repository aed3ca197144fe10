package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"quizquest/internal/docstore"
	"quizquest/internal/logger"
)

const backupVersion = "2.0"

// BackupData represents the complete document store backup
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	StoreType  string           `json:"store_type"`
	Documents  []DocumentBackup `json:"documents"`
}

// DocumentBackup represents one stored document
type DocumentBackup struct {
	Path string                 `json:"path"`
	Data map[string]interface{} `json:"data"`
}

// BackupService handles document store backup and restore operations
type BackupService struct {
	store     docstore.Store
	storeType string
	log       *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(store docstore.Store, storeType string, log *logger.Logger) *BackupService {
	return &BackupService{store: store, storeType: storeType, log: log}
}

// Export creates a complete backup of the store to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) (int, error) {
	s.log.Info("Starting store export", "output", outputPath)

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	count, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return 0, err
	}

	s.log.Info("Store exported", "output", outputPath, "documents", count)
	return count, nil
}

// ExportToWriter writes a backup of every document to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (int, error) {
	docs, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		StoreType:  s.storeType,
		Documents:  make([]DocumentBackup, 0, len(docs)),
	}
	for _, doc := range docs {
		backup.Documents = append(backup.Documents, DocumentBackup{Path: doc.Path, Data: doc.Data})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}
	return len(backup.Documents), nil
}

// Import restores the store from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string, clearExisting bool) (int, error) {
	s.log.Info("Starting store import", "input", inputPath, "clear", clearExisting)

	file, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file, clearExisting)
}

// ImportFromReader restores the store from a backup reader. With clearExisting set,
// documents missing from the backup are deleted. The whole import runs in
// one transaction.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader, clearExisting bool) (int, error) {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return 0, fmt.Errorf("failed to decode backup: %w", err)
	}
	for _, doc := range backup.Documents {
		if err := docstore.ValidatePath(doc.Path); err != nil {
			return 0, fmt.Errorf("invalid document in backup: %w", err)
		}
	}

	s.log.Info("Backup loaded", "version", backup.Version, "exported_at", backup.ExportedAt, "documents", len(backup.Documents))

	var existing []docstore.Document
	if clearExisting {
		var err error
		existing, err = s.store.ListAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list documents: %w", err)
		}
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		keep := make(map[string]bool, len(backup.Documents))
		for _, doc := range backup.Documents {
			keep[doc.Path] = true
			if err := tx.Set(ctx, doc.Path, doc.Data); err != nil {
				return err
			}
		}
		for _, doc := range existing {
			if keep[doc.Path] {
				continue
			}
			if err := tx.Delete(ctx, doc.Path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import documents: %w", err)
	}

	s.log.Info("Store import completed", "documents", len(backup.Documents))
	return len(backup.Documents), nil
}
