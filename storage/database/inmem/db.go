// Package inmemdb provides map-backed repositories for tests; they enforce the
// same invariants as the Postgres repositories (unique email, one application
// per owning user).
package inmemdb

import (
	"sync"

	"github.com/ubunifu/launchpad/core/application"
	"github.com/ubunifu/launchpad/core/user"
)

type (
	DB struct {
		user        *userTable
		application *applicationTable
		draft       *draftTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	applicationTable struct {
		sync.RWMutex
		table  map[string]*application.Record // keyed by record ID
		byUser map[string]string              // user ID -> record ID
	}

	draftTable struct {
		sync.RWMutex
		table map[string]application.Update
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		application: &applicationTable{table: make(map[string]*application.Record), byUser: make(map[string]string)},
		draft:       &draftTable{table: make(map[string]application.Update)},
	}
	return db, nil
}
