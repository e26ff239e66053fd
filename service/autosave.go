package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
)

// AutoSaveResult is the observable outcome of one background append. The
// edit flow never blocks on it; a listener drains Results for central
// logging or retry policy.
type AutoSaveResult struct {
	ClientID      string
	Category      string
	CertificateID string
	Err           error
}

// AutoSaver persists certificate appends in the background. Failures are
// logged and reported on the result channel, never surfaced into the upload
// flow that triggered them.
type AutoSaver struct {
	clients *ClientService
	jobs    chan autoSaveJob
	results chan AutoSaveResult

	stopOnce sync.Once
	done     chan struct{}
}

type autoSaveJob struct {
	clientID string
	category string
	cert     model.Certificate
}

func NewAutoSaver(clients *ClientService, buffer int) *AutoSaver {
	if buffer <= 0 {
		buffer = 16
	}
	return &AutoSaver{
		clients: clients,
		jobs:    make(chan autoSaveJob, buffer),
		results: make(chan AutoSaveResult, buffer),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (a *AutoSaver) Start() {
	go a.run()
}

// Stop drains no further jobs and terminates the worker after the current
// one finishes.
func (a *AutoSaver) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Enqueue schedules an append. It never blocks: if the queue is full the job
// is dropped with a log entry, consistent with auto-save being best-effort.
func (a *AutoSaver) Enqueue(clientID, category string, cert model.Certificate) {
	job := autoSaveJob{clientID: clientID, category: category, cert: cert}
	select {
	case a.jobs <- job:
	default:
		slog.Warn("auto-save queue full, dropping append",
			"client_id", clientID, "category", category, "certificate_id", cert.ID)
	}
}

// Results exposes append outcomes. The channel is buffered and sends are
// non-blocking; a slow listener misses events rather than stalling saves.
func (a *AutoSaver) Results() <-chan AutoSaveResult {
	return a.results
}

func (a *AutoSaver) run() {
	for {
		select {
		case <-a.done:
			return
		case job := <-a.jobs:
			_, err := a.clients.AppendCertificate(context.Background(), job.clientID, job.category, job.cert)
			if err != nil {
				slog.Error("auto-save failed",
					"client_id", job.clientID,
					"category", job.category,
					"certificate_id", job.cert.ID,
					"error", err,
				)
			}

			result := AutoSaveResult{
				ClientID:      job.clientID,
				Category:      job.category,
				CertificateID: job.cert.ID,
				Err:           err,
			}
			select {
			case a.results <- result:
			default:
			}
		}
	}
}
