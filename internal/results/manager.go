// Package results stores uploaded PDFs and their translations on disk, one
// directory per document with a metadata.json alongside the files.
package results

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdf-translator/internal/types"
)

// TranslationStatus is the lifecycle state of a stored document
type TranslationStatus string

const (
	StatusProcessing TranslationStatus = "processing"
	StatusComplete   TranslationStatus = "complete"
	StatusError      TranslationStatus = "error"
)

const metadataFile = "metadata.json"

// DocumentInfo is the metadata persisted for one document
type DocumentInfo struct {
	ID           string            `json:"id"`
	FileName     string            `json:"file_name"`
	SourceSHA256 string            `json:"source_sha256"`
	Size         int64             `json:"size"`
	Status       TranslationStatus `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`

	PageCount     int     `json:"page_count"`
	Method        string  `json:"method,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Unextractable bool    `json:"unextractable,omitempty"`
	Chunks        int     `json:"chunks"`
	FailedChunks  int     `json:"failed_chunks"`
	Degraded      bool    `json:"degraded,omitempty"`
	OutputPages   int     `json:"output_pages,omitempty"`

	OriginalPDF   string    `json:"original_pdf"`
	TranslatedPDF string    `json:"translated_pdf,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ResultManager keeps documents under baseDir/<id>/
type ResultManager struct {
	baseDir string
}

// NewResultManager creates the store, creating baseDir if needed
func NewResultManager(baseDir string) (*ResultManager, error) {
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrStorage, "failed to create result directory", err)
	}
	return &ResultManager{baseDir: baseDir}, nil
}

// NewDocumentID returns a fresh opaque identifier. If the random source
// fails, a timestamp-based identifier is used instead.
func NewDocumentID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	var suffix [4]byte
	rand.Read(suffix[:])
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix[:]))
}

// HashSource returns the hex SHA-256 of a document
func HashSource(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (m *ResultManager) GetBaseDir() string {
	return m.baseDir
}

func (m *ResultManager) GetDocumentDir(id string) string {
	return filepath.Join(m.baseDir, sanitizeID(id))
}

func (m *ResultManager) GetOriginalPDFPath(id string) string {
	return filepath.Join(m.GetDocumentDir(id), sanitizeID(id)+".pdf")
}

func (m *ResultManager) GetTranslatedPDFPath(id string) string {
	return filepath.Join(m.GetDocumentDir(id), sanitizeID(id)+"-translated.pdf")
}

// SaveOriginal stores the uploaded bytes and creates the metadata record
func (m *ResultManager) SaveOriginal(id, fileName string, data []byte) (*DocumentInfo, error) {
	dir := m.GetDocumentDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrStorage, "failed to create document directory", err)
	}

	path := m.GetOriginalPDFPath(id)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, types.NewAppError(types.ErrStorage, "failed to save original PDF", err)
	}

	now := time.Now()
	info := &DocumentInfo{
		ID:           id,
		FileName:     fileName,
		SourceSHA256: HashSource(data),
		Size:         int64(len(data)),
		Status:       StatusProcessing,
		OriginalPDF:  filepath.Base(path),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.SaveDocumentInfo(info); err != nil {
		return nil, err
	}
	return info, nil
}

// SaveTranslated stores the rendered translation and records its file name
func (m *ResultManager) SaveTranslated(id string, data []byte) error {
	path := m.GetTranslatedPDFPath(id)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to save translated PDF", err)
	}

	info, err := m.LoadDocumentInfo(id)
	if err != nil {
		return err
	}
	info.TranslatedPDF = filepath.Base(path)
	return m.SaveDocumentInfo(info)
}

func (m *ResultManager) SaveDocumentInfo(info *DocumentInfo) error {
	dir := m.GetDocumentDir(info.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to create document directory", err)
	}

	info.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrStorage, "failed to marshal metadata", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0644); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to write metadata", err)
	}
	return nil
}

func (m *ResultManager) LoadDocumentInfo(id string) (*DocumentInfo, error) {
	data, err := os.ReadFile(filepath.Join(m.GetDocumentDir(id), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrFileNotFound, "document not found: "+id, err)
		}
		return nil, types.NewAppError(types.ErrStorage, "failed to read metadata", err)
	}

	var info DocumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, types.NewAppError(types.ErrStorage, "failed to parse metadata", err)
	}
	return &info, nil
}

// UpdateStatus records the lifecycle state and error message of a document
func (m *ResultManager) UpdateStatus(id string, status TranslationStatus, errorMsg string) error {
	info, err := m.LoadDocumentInfo(id)
	if err != nil {
		return err
	}
	info.Status = status
	info.ErrorMessage = errorMsg
	return m.SaveDocumentInfo(info)
}

// ListDocuments returns stored documents newest first. A positive limit
// truncates the list.
func (m *ResultManager) ListDocuments(limit int) ([]*DocumentInfo, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*DocumentInfo{}, nil
		}
		return nil, types.NewAppError(types.ErrStorage, "failed to list documents", err)
	}

	docs := make([]*DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := m.LoadDocumentInfo(entry.Name())
		if err != nil {
			continue // directories without metadata
		}
		docs = append(docs, info)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Reusable reports whether the document is a complete translation that can
// be served again. Runs with failed chunks, mock output or no extractable
// text are retried instead.
func (d *DocumentInfo) Reusable() bool {
	return d.Status == StatusComplete && d.FailedChunks == 0 && !d.Degraded && !d.Unextractable
}

// FindBySourceHash returns the newest reusable document with the same
// source bytes, or nil
func (m *ResultManager) FindBySourceHash(hash string) (*DocumentInfo, error) {
	docs, err := m.ListDocuments(0)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.SourceSHA256 == hash && doc.Reusable() {
			return doc, nil
		}
	}
	return nil, nil
}

func (m *ResultManager) ReadOriginal(id string) ([]byte, error) {
	return readDocumentFile(m.GetOriginalPDFPath(id))
}

func (m *ResultManager) ReadTranslated(id string) ([]byte, error) {
	return readDocumentFile(m.GetTranslatedPDFPath(id))
}

func readDocumentFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrFileNotFound, "file not found: "+filepath.Base(path), err)
		}
		return nil, types.NewAppError(types.ErrStorage, "failed to read file", err)
	}
	return data, nil
}

func (m *ResultManager) DocumentExists(id string) bool {
	_, err := os.Stat(filepath.Join(m.GetDocumentDir(id), metadataFile))
	return err == nil
}

// DeleteDocument removes a document and all its files
func (m *ResultManager) DeleteDocument(id string) error {
	if err := os.RemoveAll(m.GetDocumentDir(id)); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to delete document", err)
	}
	return nil
}

// sanitizeID keeps identifiers from escaping the base directory
func sanitizeID(id string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_").Replace(id)
	if safe == "" || safe == "." {
		return "_"
	}
	return safe
}
