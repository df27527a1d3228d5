package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"transfer-ledger/domain"
)

var ErrCustomerExists = errors.New("customer already registered")

// CustomerStore persists registered customers. Emails are unique.
type CustomerStore interface {
	// Save inserts a new customer or returns an error wrapping ErrCustomerExists.
	Save(ctx context.Context, customer *domain.Customer) error

	FindOne(ctx context.Context, id string) (*domain.Customer, error)

	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type InMemoryCustomerStore struct {
	sync.RWMutex
	byID    map[string]domain.Customer
	byEmail map[string]string
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		byID:    make(map[string]domain.Customer),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryCustomerStore) Save(ctx context.Context, customer *domain.Customer) error {
	if customer == nil {
		return fmt.Errorf("cannot save nil customer")
	}
	s.Lock()
	defer s.Unlock()

	if _, exists := s.byEmail[customer.Email]; exists {
		return fmt.Errorf("%w: %s", ErrCustomerExists, customer.Email)
	}
	if _, exists := s.byID[customer.ID]; exists {
		return fmt.Errorf("%w: %s", ErrCustomerExists, customer.ID)
	}
	s.byID[customer.ID] = *customer
	s.byEmail[customer.Email] = customer.ID
	return nil
}

func (s *InMemoryCustomerStore) FindOne(ctx context.Context, id string) (*domain.Customer, error) {
	s.RLock()
	defer s.RUnlock()

	c, found := s.byID[id]
	if !found {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	return &c, nil
}

func (s *InMemoryCustomerStore) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	s.RLock()
	defer s.RUnlock()

	id, found := s.byEmail[email]
	if !found {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, email)
	}
	c := s.byID[id]
	return &c, nil
}
