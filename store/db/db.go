// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/internal/profile"
	"github.com/kbdesk/kbdesk/store"
	"github.com/kbdesk/kbdesk/store/db/postgres"
	"github.com/kbdesk/kbdesk/store/db/sqlite"
)

// NewDBDriver creates a store driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver: %s", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
