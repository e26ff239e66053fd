package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
	"github.com/angiarxpharma-alt/Certificate-Upload/pkg/logger"
	"github.com/google/uuid"
)

// Upload queue entry statuses.
const (
	UploadStatusUploading = "uploading"
	UploadStatusCompleted = "completed"
	UploadStatusFailed    = "failed"
)

// UploadRequest describes one user-selected file handed to the coordinator.
type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
	Category    string
	// ClientID binds the upload to an existing client: on completion the
	// certificate is appended via auto-save. Unbound uploads park the
	// finished certificate for the create-client form to collect.
	ClientID string
}

// Upload is a snapshot of one queue entry.
type Upload struct {
	ID          string             `json:"id"`
	FileName    string             `json:"fileName"`
	ContentType string             `json:"contentType"`
	Size        int64              `json:"size"`
	Category    string             `json:"category"`
	ClientID    string             `json:"clientId,omitempty"`
	Status      string             `json:"status"`
	Progress    int                `json:"progress"`
	Error       string             `json:"error,omitempty"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
}

type uploadTask struct {
	snapshot Upload
	cancel   context.CancelFunc
}

// UploadCoordinator validates files, runs transfers concurrently, and tracks
// each one as an independently cancellable registry entry with its own
// progress stream. Persistence of the resulting certificate happens at
// completion, never at transfer start.
type UploadCoordinator struct {
	mu       sync.RWMutex
	uploads  map[string]*uploadTask
	blobs    BlobStore
	autosave *AutoSaver
	maxSize  int64
}

func NewUploadCoordinator(blobs BlobStore, autosave *AutoSaver, maxSize int64) *UploadCoordinator {
	return &UploadCoordinator{
		uploads:  make(map[string]*uploadTask),
		blobs:    blobs,
		autosave: autosave,
		maxSize:  maxSize,
	}
}

func allowedContentType(contentType string) bool {
	switch contentType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return true
	}
	return strings.HasPrefix(contentType, "image/")
}

// Submit validates the file and, when accepted, queues it and starts the
// transfer immediately. Rejected files never touch the queue or the blob
// store. The returned snapshot carries the upload ID for status polling.
func (c *UploadCoordinator) Submit(ctx context.Context, req UploadRequest) (*Upload, error) {
	if req.Size > c.maxSize {
		return nil, newValidationError("File size must be less than %dMB", c.maxSize>>20)
	}
	if !allowedContentType(req.ContentType) {
		return nil, newValidationError("Invalid file type. Please upload PDF, Image, or DOC files.")
	}

	// Spool the file so the transfer outlives the submitting request.
	data, err := io.ReadAll(io.LimitReader(req.Data, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > c.maxSize {
		return nil, newValidationError("File size must be less than %dMB", c.maxSize>>20)
	}

	uploadCtx, cancel := context.WithCancel(context.Background())
	task := &uploadTask{
		snapshot: Upload{
			ID:          uuid.New().String(),
			FileName:    filepath.Base(req.FileName),
			ContentType: req.ContentType,
			Size:        int64(len(data)),
			Category:    req.Category,
			ClientID:    req.ClientID,
			Status:      UploadStatusUploading,
		},
		cancel: cancel,
	}

	c.mu.Lock()
	c.uploads[task.snapshot.ID] = task
	c.mu.Unlock()

	logger.Info(ctx, "upload started",
		"upload_id", task.snapshot.ID,
		"file_name", task.snapshot.FileName,
		"size", task.snapshot.Size,
		"category", req.Category,
	)

	go c.run(uploadCtx, task.snapshot.ID, data)

	snapshot := task.snapshot
	return &snapshot, nil
}

// Get returns a snapshot of the queue entry, if present.
func (c *UploadCoordinator) Get(id string) (*Upload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task, ok := c.uploads[id]
	if !ok {
		return nil, false
	}
	snapshot := task.snapshot
	return &snapshot, true
}

// Remove cancels the entry's transfer (if still in flight) and drops it from
// the queue. Already-persisted certificates are unaffected.
func (c *UploadCoordinator) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.uploads[id]
	if !ok {
		return false
	}
	task.cancel()
	delete(c.uploads, id)
	return true
}

func (c *UploadCoordinator) run(ctx context.Context, id string, data []byte) {
	var (
		snapshot   = c.mustSnapshot(id)
		objectName = fmt.Sprintf("certificates/%d_%s", time.Now().UnixMilli(), snapshot.FileName)
	)

	err := c.blobs.Upload(ctx, objectName, bytes.NewReader(data), snapshot.Size, snapshot.ContentType, func(percent int) {
		c.setProgress(id, percent)
	})
	if err != nil {
		c.fail(id, classifyTransferError(err), err)
		return
	}

	url, err := c.blobs.PresignedURL(ctx, objectName)
	if err != nil {
		c.fail(id, "Failed to get file URL", err)
		return
	}

	cert := model.Certificate{
		ID:          newCertificateID(),
		Name:        snapshot.FileName,
		Type:        snapshot.ContentType,
		Size:        snapshot.Size,
		URL:         url,
		StoragePath: objectName,
		UploadDate:  time.Now().UTC(),
	}

	c.complete(id, cert)

	if snapshot.ClientID != "" {
		c.autosave.Enqueue(snapshot.ClientID, snapshot.Category, cert)
	}
}

func (c *UploadCoordinator) mustSnapshot(id string) Upload {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if task, ok := c.uploads[id]; ok {
		return task.snapshot
	}
	return Upload{ID: id}
}

func (c *UploadCoordinator) setProgress(id string, percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.uploads[id]
	if !ok || task.snapshot.Status != UploadStatusUploading {
		return
	}
	if percent > task.snapshot.Progress {
		task.snapshot.Progress = percent
	}
}

func (c *UploadCoordinator) complete(id string, cert model.Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.uploads[id]
	if !ok {
		return
	}
	task.snapshot.Status = UploadStatusCompleted
	task.snapshot.Progress = 100
	task.snapshot.Certificate = &cert

	slog := logger.WithContext(context.Background())
	slog.Info("upload completed", "upload_id", id, "storage_path", cert.StoragePath)
}

func (c *UploadCoordinator) fail(id, message string, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.uploads[id]
	if !ok {
		// Entry was removed while the transfer was in flight; nothing to
		// update, the cancellation already logged.
		return
	}
	task.snapshot.Status = UploadStatusFailed
	task.snapshot.Progress = 0
	task.snapshot.Error = message

	slog := logger.WithContext(context.Background())
	slog.Error("upload failed", "upload_id", id, "message", message, "error", cause)
}

// classifyTransferError maps transport failures to the human-readable
// messages the queue surfaces. The file is not retried automatically.
func classifyTransferError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Upload canceled"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Access Denied") || strings.Contains(msg, "AccessDenied"):
		return "Storage not authorized. Please check bucket policy and credentials."
	case strings.Contains(msg, "CORS"):
		return "Storage CORS error. Please check the blob store CORS configuration."
	default:
		return "Upload failed"
	}
}

// newCertificateID builds the certificate token: upload timestamp plus a
// random suffix, unique within its parent category sequence.
func newCertificateID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
