package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
)

type applicationRepository struct {
	db *applicationTable
}

var _ application.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db.application}
}

func (repo *applicationRepository) UpsertApplication(_ context.Context, rec application.Record) (application.Record, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if id, ok := repo.db.byUser[rec.UserID]; ok {
		// full overwrite of application fields; creation timestamp survives
		existing := repo.db.table[id]
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		repo.db.table[id] = &rec
		return rec, false, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.table[rec.ID] = &rec
	repo.db.byUser[rec.UserID] = rec.ID
	return rec, true, nil
}

func (repo *applicationRepository) GetApplicationByID(_ context.Context, id string) (application.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return application.Record{}, application.ErrNotFound
}

func (repo *applicationRepository) GetApplicationByUserID(_ context.Context, userID string) (application.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if id, ok := repo.db.byUser[userID]; ok {
		return *repo.db.table[id], nil
	}
	return application.Record{}, application.ErrNotFound
}

func (repo *applicationRepository) QueryApplications(_ context.Context, filter *application.QueryFilter, ordering ...core.DBOrdering) ([]application.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	match := func(rec *application.Record) bool {
		if filter == nil {
			return true
		}
		if filter.Status != "" && rec.Status != filter.Status {
			return false
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(rec.CompanyName), strings.ToLower(filter.Search)) {
			return false
		}
		if !filter.SubmittedFrom.IsZero() && rec.SubmittedAt.Before(filter.SubmittedFrom) {
			return false
		}
		if !filter.SubmittedTo.IsZero() && rec.SubmittedAt.After(filter.SubmittedTo) {
			return false
		}
		return true
	}

	res := make([]application.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if match(rec) {
			res = append(res, *rec)
		}
	}
	ord := core.DBOrdering{Field: "submitted_at"}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	cmp := func(a, b *application.Record) int {
		switch ord.Field {
		case "company_name":
			return strings.Compare(a.CompanyName, b.CompanyName)
		case "status":
			return strings.Compare(a.Status, b.Status)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return a.SubmittedAt.Compare(b.SubmittedAt)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		c := cmp(&res[i], &res[j])
		if ord.Ascending {
			return c < 0
		}
		return c > 0
	})
	return res, nil
}

func (repo *applicationRepository) UpdateApplicationStatus(_ context.Context, id, status string) (application.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return application.Record{}, application.ErrNotFound
	}
	rec.Status = status
	return *rec, nil
}

func (repo *applicationRepository) CountApplicationsByStatus(_ context.Context) (map[string]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, rec := range repo.db.table {
		counts[rec.Status]++
	}
	return counts, nil
}
