package store

import (
	"context"

	"github.com/kbdesk/kbdesk/internal/profile"
)

// Store provides database access to the knowledge base.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		profile: profile,
		driver:  driver,
	}
}

// EnsureSchema creates the database schema when needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.driver.EnsureSchema(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.driver.Close()
}
