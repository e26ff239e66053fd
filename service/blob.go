package service

import (
	"context"
	"io"
	"math"
)

// ProgressFunc receives upload progress as a rounded percentage in [0,100].
// Reported values are monotonically non-decreasing.
type ProgressFunc func(percent int)

// BlobStore is the object storage the certificate files live in.
type BlobStore interface {
	// Upload streams an object to storage, invoking progress as bytes move.
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string, progress ProgressFunc) error
	// PresignedURL returns a durable retrieval URL for a stored object.
	PresignedURL(ctx context.Context, objectName string) (string, error)
	// Delete removes an object by its storage path.
	Delete(ctx context.Context, objectName string) error
}

// progressReader reports transfer progress as its wrapped reader is drained.
// Percentages are rounded to the nearest integer and never move backwards.
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	last     int
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{reader: r, total: total, last: -1, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	p.read += int64(n)
	if p.progress != nil && p.total > 0 {
		percent := int(math.Round(float64(p.read) / float64(p.total) * 100))
		if percent > 100 {
			percent = 100
		}
		if percent > p.last {
			p.last = percent
			p.progress(percent)
		}
	}
	return n, err
}
