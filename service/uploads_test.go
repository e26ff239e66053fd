package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
)

func newTestCoordinator(t *testing.T) (*UploadCoordinator, *MemoryStore, *fakeBlobStore, *AutoSaver) {
	t.Helper()
	store := NewMemoryStore()
	blobs := newFakeBlobStore()
	clients := NewClientService(store, blobs)
	autosave := NewAutoSaver(clients, 16)
	autosave.Start()
	t.Cleanup(autosave.Stop)
	return NewUploadCoordinator(blobs, autosave, 10<<20), store, blobs, autosave
}

func waitForStatus(t *testing.T, c *UploadCoordinator, id string, statuses ...string) *Upload {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		upload, ok := c.Get(id)
		if !ok {
			t.Fatalf("upload %s disappeared from registry", id)
		}
		for _, status := range statuses {
			if upload.Status == status {
				return upload
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	upload, _ := c.Get(id)
	t.Fatalf("timed out waiting for status %v, last: %+v", statuses, upload)
	return nil
}

func pdfRequest(name string, size int) UploadRequest {
	return UploadRequest{
		FileName:    name,
		ContentType: "application/pdf",
		Size:        int64(size),
		Data:        strings.NewReader(strings.Repeat("a", size)),
		Category:    model.CategoryDrugLicense,
	}
}

func TestSubmitRejectsOversizeFile(t *testing.T) {
	coordinator, _, blobs, _ := newTestCoordinator(t)

	req := pdfRequest("big.pdf", 64)
	req.Size = 11 << 20

	_, err := coordinator.Submit(context.Background(), req)
	if !IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "10MB") {
		t.Errorf("Expected size limit in message, got %q", err.Error())
	}
	if len(blobs.objects) != 0 {
		t.Error("Expected no blob interaction for rejected file")
	}
}

func TestSubmitRejectsDisallowedType(t *testing.T) {
	// A text/plain file is rejected before any store interaction.
	coordinator, store, blobs, _ := newTestCoordinator(t)

	req := UploadRequest{
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Size:        12,
		Data:        strings.NewReader("hello world\n"),
		Category:    model.CategoryOther,
	}

	_, err := coordinator.Submit(context.Background(), req)
	if !IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if len(blobs.objects) != 0 {
		t.Error("Expected no blob interaction for rejected file")
	}
	if clients, _ := store.List(context.Background()); len(clients) != 0 {
		t.Error("Expected persisted state unchanged")
	}
}

func TestSubmitAcceptedTypes(t *testing.T) {
	tests := []struct {
		contentType string
		allowed     bool
	}{
		{"application/pdf", true},
		{"image/png", true},
		{"image/jpeg", true},
		{"application/msword", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"text/plain", false},
		{"application/zip", false},
		{"video/mp4", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := allowedContentType(tt.contentType); got != tt.allowed {
				t.Errorf("allowedContentType(%q) = %v, want %v", tt.contentType, got, tt.allowed)
			}
		})
	}
}

func TestUploadCompletesWithCertificate(t *testing.T) {
	coordinator, _, blobs, _ := newTestCoordinator(t)

	submitted, err := coordinator.Submit(context.Background(), pdfRequest("license.pdf", 256))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submitted.Status != UploadStatusUploading || submitted.Progress != 0 {
		t.Errorf("Expected fresh entry uploading at 0%%, got %+v", submitted)
	}

	done := waitForStatus(t, coordinator, submitted.ID, UploadStatusCompleted)

	if done.Progress != 100 {
		t.Errorf("Expected progress 100, got %d", done.Progress)
	}
	cert := done.Certificate
	if cert == nil {
		t.Fatal("Expected certificate on completed upload")
	}
	if cert.Name != "license.pdf" || cert.Type != "application/pdf" || cert.Size != 256 {
		t.Errorf("Certificate metadata mismatch: %+v", cert)
	}
	if !strings.HasPrefix(cert.StoragePath, "certificates/") || !strings.HasSuffix(cert.StoragePath, "_license.pdf") {
		t.Errorf("Unexpected storage path %s", cert.StoragePath)
	}
	if cert.URL != "https://blob.test/"+cert.StoragePath {
		t.Errorf("Unexpected URL %s", cert.URL)
	}
	if cert.ID == "" {
		t.Error("Expected certificate ID assigned")
	}
	if _, ok := blobs.objects[cert.StoragePath]; !ok {
		t.Error("Expected object stored under storage path")
	}
}

func TestUploadProgressMonotonic(t *testing.T) {
	coordinator, _, blobs, _ := newTestCoordinator(t)
	// Out-of-order reports must never move progress backwards.
	blobs.progressSteps = []int{25, 50, 40, 100, 90}

	submitted, err := coordinator.Submit(context.Background(), pdfRequest("license.pdf", 128))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := waitForStatus(t, coordinator, submitted.ID, UploadStatusCompleted)
	if done.Progress != 100 {
		t.Errorf("Expected final progress 100, got %d", done.Progress)
	}
}

func TestUploadBoundToClientAutoSaves(t *testing.T) {
	coordinator, store, blobs, autosave := newTestCoordinator(t)
	clients := NewClientService(store, blobs)
	created, _ := clients.AddClient(context.Background(), testClient("acme"))

	req := pdfRequest("license.pdf", 64)
	req.ClientID = created.ID

	submitted, err := coordinator.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForStatus(t, coordinator, submitted.ID, UploadStatusCompleted)

	select {
	case result := <-autosave.Results():
		if result.Err != nil {
			t.Fatalf("Expected auto-save success, got %v", result.Err)
		}
		if result.ClientID != created.ID || result.Category != model.CategoryDrugLicense {
			t.Errorf("Unexpected auto-save result: %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for auto-save result")
	}

	persisted, _ := store.Get(context.Background(), created.ID)
	if len(persisted.Certificates[model.CategoryDrugLicense]) != 1 {
		t.Errorf("Expected appended certificate, got %v", persisted.Certificates)
	}
}

func TestUnboundUploadParksCertificate(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator(t)

	submitted, err := coordinator.Submit(context.Background(), pdfRequest("license.pdf", 64))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	done := waitForStatus(t, coordinator, submitted.ID, UploadStatusCompleted)

	if done.Certificate == nil {
		t.Fatal("Expected parked certificate for unbound upload")
	}
	if clients, _ := store.List(context.Background()); len(clients) != 0 {
		t.Error("Expected no persistence for unbound upload")
	}
}

func TestUploadFailureResetsProgress(t *testing.T) {
	coordinator, _, blobs, _ := newTestCoordinator(t)
	blobs.uploadErr = errors.New("connection reset")

	submitted, err := coordinator.Submit(context.Background(), pdfRequest("license.pdf", 64))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	failed := waitForStatus(t, coordinator, submitted.ID, UploadStatusFailed)
	if failed.Progress != 0 {
		t.Errorf("Expected progress reset to 0, got %d", failed.Progress)
	}
	if failed.Error != "Upload failed" {
		t.Errorf("Expected generic failure message, got %q", failed.Error)
	}
	if failed.Certificate != nil {
		t.Error("Expected no certificate on failed upload")
	}
}

func TestClassifyTransferError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"canceled", context.Canceled, "Upload canceled"},
		{"access denied", errors.New("Access Denied."), "Storage not authorized. Please check bucket policy and credentials."},
		{"s3 code", errors.New("AccessDenied: request rejected"), "Storage not authorized. Please check bucket policy and credentials."},
		{"cors", errors.New("blocked by CORS policy"), "Storage CORS error. Please check the blob store CORS configuration."},
		{"generic", errors.New("connection reset by peer"), "Upload failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTransferError(tt.err); got != tt.want {
				t.Errorf("classifyTransferError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemoveCancelsUpload(t *testing.T) {
	coordinator, _, _, _ := newTestCoordinator(t)

	submitted, err := coordinator.Submit(context.Background(), pdfRequest("license.pdf", 64))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if !coordinator.Remove(submitted.ID) {
		t.Fatal("Expected removal of existing entry")
	}
	if _, ok := coordinator.Get(submitted.ID); ok {
		t.Error("Expected entry gone after removal")
	}
	if coordinator.Remove(submitted.ID) {
		t.Error("Expected second removal to report missing entry")
	}
}

func TestProgressReaderRoundsAndMonotonic(t *testing.T) {
	var reported []int
	r := newProgressReader(strings.NewReader(strings.Repeat("x", 10)), 10, func(p int) {
		reported = append(reported, p)
	})

	buf := make([]byte, 3)
	for {
		if _, err := r.Read(buf); err != nil {
			break
		}
	}

	if len(reported) == 0 {
		t.Fatal("Expected progress reports")
	}
	last := -1
	for _, p := range reported {
		if p < 0 || p > 100 {
			t.Errorf("Progress %d out of range", p)
		}
		if p <= last {
			t.Errorf("Progress not strictly increasing: %v", reported)
		}
		last = p
	}
	if reported[len(reported)-1] != 100 {
		t.Errorf("Expected final report 100, got %v", reported)
	}
}
