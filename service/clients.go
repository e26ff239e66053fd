package service

import (
	"context"
	"fmt"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
	"github.com/angiarxpharma-alt/Certificate-Upload/pkg/logger"
)

// ClientService owns the client lifecycle and the certificate sub-entity
// lifecycle nested within it. It coordinates the document store and the blob
// store; the two writes are not transactional, so each mutation path defines
// its own ordering and failure policy (see DeleteCertificate vs DeleteClient).
type ClientService struct {
	store ClientStore
	blobs BlobStore
}

func NewClientService(store ClientStore, blobs BlobStore) *ClientService {
	return &ClientService{store: store, blobs: blobs}
}

// AddClient creates a new client record. Certificates are optional at
// creation time: the create flow accumulates uploads client-side and
// persists them together with the contact fields in this single call.
func (s *ClientService) AddClient(ctx context.Context, client *model.Client) (*model.Client, error) {
	client.Certificates = pruneEmptyCategories(client.Certificates)
	created, err := s.store.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	logger.Info(ctx, "client created", "client_id", created.ID, "client_name", created.ClientName)
	return created, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return s.store.Get(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context) ([]*model.Client, error) {
	return s.store.List(ctx)
}

// UpdateClient merges the supplied contact fields and, only when certs is
// non-nil, replaces the certificates map. updatedAt refreshes either way.
func (s *ClientService) UpdateClient(ctx context.Context, id string, fields model.ClientFields, certs model.CertificateMap) (*model.Client, error) {
	if certs != nil {
		if _, err := s.store.UpdateCertificates(ctx, id, pruneEmptyCategories(certs)); err != nil {
			return nil, err
		}
	}
	updated, err := s.store.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "client updated", "client_id", id)
	return updated, nil
}

// AppendCertificate adds a completed upload to the client's category
// sequence, creating the category key if absent, and persists only the
// certificates map plus updatedAt.
func (s *ClientService) AppendCertificate(ctx context.Context, clientID, category string, cert model.Certificate) (*model.Client, error) {
	client, err := s.store.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	certs := client.Certificates.Clone()
	if certs == nil {
		certs = model.CertificateMap{}
	}
	certs[category] = append(certs[category], cert)

	updated, err := s.store.UpdateCertificates(ctx, clientID, certs)
	if err != nil {
		return nil, fmt.Errorf("saving certificates: %w", err)
	}
	logger.Info(ctx, "certificate appended",
		"client_id", clientID, "category", category, "certificate_id", cert.ID)
	return updated, nil
}

// DeleteCertificate removes one certificate. The blob is deleted first; if
// that fails the whole operation aborts and the metadata stays untouched.
// When the removed certificate was the last one in its category, the
// category key is dropped so no empty sequence remains.
func (s *ClientService) DeleteCertificate(ctx context.Context, clientID, category, certID string) (*model.Client, error) {
	client, err := s.store.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	certs := client.Certificates.Clone()
	seq, ok := certs[category]
	if !ok {
		return nil, ErrNotFound
	}

	index := -1
	for i, cert := range seq {
		if cert.ID == certID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, ErrNotFound
	}

	if path := seq[index].StoragePath; path != "" {
		if err := s.blobs.Delete(ctx, path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBlobDelete, err)
		}
	}

	seq = append(seq[:index], seq[index+1:]...)
	if len(seq) == 0 {
		delete(certs, category)
	} else {
		certs[category] = seq
	}

	updated, err := s.store.UpdateCertificates(ctx, clientID, certs)
	if err != nil {
		return nil, fmt.Errorf("saving certificates: %w", err)
	}
	logger.Info(ctx, "certificate deleted",
		"client_id", clientID, "category", category, "certificate_id", certID)
	return updated, nil
}

// DeleteClient removes a client and all its certificate blobs. Blob cleanup
// is best-effort: individual failures are logged and the record delete
// proceeds regardless. This is irreversible.
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	client, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	for category, seq := range client.Certificates {
		for _, cert := range seq {
			if cert.StoragePath == "" {
				continue
			}
			if err := s.blobs.Delete(ctx, cert.StoragePath); err != nil {
				logger.Warn(ctx, "failed to delete certificate blob",
					"client_id", id,
					"category", category,
					"certificate_id", cert.ID,
					"storage_path", cert.StoragePath,
					"error", err,
				)
			}
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting client record: %w", err)
	}
	logger.Info(ctx, "client deleted", "client_id", id)
	return nil
}

// pruneEmptyCategories drops keys holding no certificates so stored maps
// never contain an empty sequence.
func pruneEmptyCategories(certs model.CertificateMap) model.CertificateMap {
	if certs == nil {
		return nil
	}
	out := model.CertificateMap{}
	for category, seq := range certs {
		if len(seq) > 0 {
			out[category] = seq
		}
	}
	return out
}
