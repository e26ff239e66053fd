package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
	"github.com/google/uuid"
)

// ClientStore is the document collection holding client records. Every read
// returns an independent snapshot; mutations refresh UpdatedAt. Field and
// certificate updates are partial merges, never whole-document replaces.
type ClientStore interface {
	Create(ctx context.Context, client *model.Client) (*model.Client, error)
	Get(ctx context.Context, id string) (*model.Client, error)
	List(ctx context.Context) ([]*model.Client, error)
	UpdateFields(ctx context.Context, id string, fields model.ClientFields) (*model.Client, error)
	UpdateCertificates(ctx context.Context, id string, certs model.CertificateMap) (*model.Client, error)
	Delete(ctx context.Context, id string) error
}

// AccountStore holds staff login accounts. Emails are unique,
// case-insensitive.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}

// MemoryStore is an in-memory ClientStore and AccountStore for tests and
// single-node development deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	clients  map[string]*model.Client
	accounts map[string]*model.Account // keyed by normalized email
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:  make(map[string]*model.Client),
		accounts: make(map[string]*model.Account),
	}
}

func (s *MemoryStore) Create(ctx context.Context, client *model.Client) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := client.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.clients[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return client.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Client, 0, len(s.clients))
	for _, client := range s.clients {
		result = append(result, client.Clone())
	}
	return result, nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, id string, fields model.ClientFields) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}

	fields.Apply(client)
	client.UpdatedAt = time.Now().UTC()
	return client.Clone(), nil
}

func (s *MemoryStore) UpdateCertificates(ctx context.Context, id string, certs model.CertificateMap) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}

	client.Certificates = certs.Clone()
	client.UpdatedAt = time.Now().UTC()
	return client.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

// NormalizeEmail lowercases and trims an email for use as an account key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := NormalizeEmail(account.Email)
	if _, ok := s.accounts[key]; ok {
		return nil, ErrAccountExists
	}

	stored := *account
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.Email = key

	s.accounts[key] = &stored
	copied := stored
	return &copied, nil
}

func (s *MemoryStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}
