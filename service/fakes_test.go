package service

import (
	"context"
	"io"
	"sync"
)

// fakeBlobStore is an in-memory BlobStore with scriptable failures, shared
// by the client service and upload coordinator tests.
type fakeBlobStore struct {
	mu            sync.Mutex
	objects       map[string][]byte
	deleted       []string
	uploadErr     error
	presignErr    error
	deleteErr     error
	progressSteps []int // percents emitted before a successful upload
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:       make(map[string][]byte),
		progressSteps: []int{25, 50, 100},
	}
}

func (f *fakeBlobStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string, progress ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.uploadErr != nil {
		return f.uploadErr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if progress != nil {
		for _, percent := range f.progressSteps {
			progress(percent)
		}
	}

	f.mu.Lock()
	f.objects[objectName] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeBlobStore) PresignedURL(ctx context.Context, objectName string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://blob.test/" + objectName, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, objectName string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	f.deleted = append(f.deleted, objectName)
	delete(f.objects, objectName)
	f.mu.Unlock()
	return nil
}

func (f *fakeBlobStore) deletedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}
