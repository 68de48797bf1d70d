package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"legal_diary/models"

	"gorm.io/gorm"
)

// MaxUploadSize is the largest case document accepted (10MB)
const MaxUploadSize = 10 << 20

var allowedDocumentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".jpg": true, ".jpeg": true, ".png": true,
}

// DocumentUpload is a file received for a case
type DocumentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateDocumentUpload checks the size and extension of an upload
func ValidateDocumentUpload(upload DocumentUpload) error {
	if upload.Size <= 0 {
		return validationErrorf("file is empty")
	}
	if upload.Size > MaxUploadSize {
		return validationErrorf("file size exceeds maximum allowed size of 10MB")
	}
	ext := strings.ToLower(filepath.Ext(upload.FileName))
	if !allowedDocumentExtensions[ext] {
		return validationErrorf("file type not allowed. Accepted formats: PDF, DOC, DOCX, TXT, JPG, PNG")
	}
	return nil
}

// DocumentService stores case documents in an ObjectStore and records them in the database
type DocumentService struct {
	db    *gorm.DB
	store ObjectStore
}

func NewDocumentService(db *gorm.DB, store ObjectStore) *DocumentService {
	return &DocumentService{db: db, store: store}
}

// Upload saves a document against a case visible to scope
func (s *DocumentService) Upload(ctx context.Context, scope *AccessScope, caseID string, upload DocumentUpload) (*models.Document, error) {
	c, err := scope.FindCase(s.db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocumentUpload(upload); err != nil {
		return nil, err
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = contentTypeForExt(upload.FileName)
	}

	key := CaseDocumentKey(c.FirmID, c.ID, upload.FileName)
	// LimitReader guards against a body longer than the declared size
	body := io.LimitReader(upload.Body, MaxUploadSize)
	if err := s.store.Put(ctx, key, body, contentType, upload.Size); err != nil {
		return nil, err
	}

	doc := &models.Document{
		FirmID:           c.FirmID,
		CaseID:           c.ID,
		FileName:         filepath.Base(key),
		FileOriginalName: filepath.Base(upload.FileName),
		StorageKey:       key,
		MimeType:         contentType,
		FileSize:         upload.Size,
		UploadedByID:     scope.UserID,
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("[STORAGE] Failed to remove orphaned object %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}
	return doc, nil
}

// List returns a case's documents, newest first
func (s *DocumentService) List(ctx context.Context, scope *AccessScope, caseID string) ([]models.Document, error) {
	c, err := scope.FindCase(s.db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	var docs []models.Document
	err = s.db.WithContext(ctx).Where("case_id = ?", c.ID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// find loads a document and checks its case is inside scope
func (s *DocumentService) find(ctx context.Context, scope *AccessScope, documentID string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !scope.CanAccessCase(doc.CaseID, doc.FirmID) {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// Open returns the document record and a reader over its bytes. The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, scope *AccessScope, documentID string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.find(ctx, scope, documentID)
	if err != nil {
		return nil, nil, err
	}
	body, _, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return doc, body, nil
}

// Delete removes the document record and its stored object
func (s *DocumentService) Delete(ctx context.Context, scope *AccessScope, documentID string) (*models.Document, error) {
	doc, err := s.find(ctx, scope, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		log.Printf("[STORAGE] Failed to delete object %s: %v", doc.StorageKey, err)
	}
	return doc, nil
}

// deleteStoredObjects removes objects after their records are gone. Failures are logged only.
func deleteStoredObjects(ctx context.Context, store ObjectStore, keys []string) {
	if store == nil {
		return
	}
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			log.Printf("[STORAGE] Failed to delete object %s: %v", key, err)
		}
	}
}
