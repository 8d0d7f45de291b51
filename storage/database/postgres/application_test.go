package pgrepos

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
)

func newMockRepo(t *testing.T) (*applicationRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewApplicationRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestApplicationRepository_UpsertApplication(t *testing.T) {
	tests := []struct {
		name     string
		inserted bool
	}{
		{name: "insert", inserted: true},
		{name: "overwrite", inserted: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			rows := sqlmock.NewRows([]string{"id", "user_id", "company_name", "status", "inserted"}).
				AddRow("11111111-1111-1111-1111-111111111111", "usr-1", "Jua Solar", "submitted", tt.inserted)
			mock.ExpectQuery("INSERT INTO application").WillReturnRows(rows)

			rec, created, err := repo.UpsertApplication(context.Background(), application.Record{
				UserID:      "usr-1",
				Application: application.Application{CompanyName: "Jua Solar"},
				Status:      "submitted",
			})
			if err != nil {
				t.Fatalf("UpsertApplication() error = %v", err)
			}
			if created != tt.inserted {
				t.Errorf("created = %v, want %v", created, tt.inserted)
			}
			if rec.CompanyName != "Jua Solar" || rec.Status != "submitted" {
				t.Errorf("unexpected record: %+v", rec)
			}
			if err = mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestApplicationRepository_UpsertApplication_missingSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO application").
		WillReturnError(&pq.Error{Code: pqUndefinedTable, Message: `relation "application" does not exist`})

	_, _, err := repo.UpsertApplication(context.Background(), application.Record{UserID: "usr-1"})
	if !core.IsSetupError(err) {
		t.Errorf("error = %v, want a setup error", err)
	}
}

func TestApplicationRepository_GetApplicationByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	// malformed IDs never hit the database
	if _, err := repo.GetApplicationByID(context.Background(), "lol"); errors.Cause(err) != application.ErrNotFound {
		t.Errorf("GetApplicationByID(lol) error = %v, want ErrNotFound", err)
	}

	id := "11111111-1111-1111-1111-111111111111"
	rows := sqlmock.NewRows([]string{"id", "user_id", "company_name", "team_members"}).
		AddRow(id, "usr-1", "Jua Solar", []byte(`[{"name":"Amina Yusuf","commitment":"full-time"}]`))
	mock.ExpectQuery("SELECT (.+) FROM application WHERE id").WithArgs(id).WillReturnRows(rows)

	rec, err := repo.GetApplicationByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetApplicationByID() error = %v", err)
	}
	if len(rec.TeamMembers) != 1 || rec.TeamMembers[0].Name != "Amina Yusuf" {
		t.Errorf("TeamMembers = %+v", rec.TeamMembers)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestApplicationRepository_GetApplicationByUserID_notFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM application WHERE user_id").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetApplicationByUserID(context.Background(), "ghost")
	if errors.Cause(err) != application.ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestApplicationRepository_QueryApplications(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "company_name", "status"}).
		AddRow("11111111-1111-1111-1111-111111111111", "usr-1", "Jua Solar", "submitted").
		AddRow("22222222-2222-2222-2222-222222222222", "usr-2", "Mifugo Tech", "submitted")
	mock.ExpectQuery("SELECT (.+) FROM application WHERE status = (.+) AND company_name ILIKE (.+) ORDER BY submitted_at DESC").
		WithArgs("submitted", "%tech%").
		WillReturnRows(rows)

	recs, err := repo.QueryApplications(
		context.Background(),
		&application.QueryFilter{Status: "submitted", Search: "tech"},
		core.DBOrdering{Field: "submitted_at"},
	)
	if err != nil {
		t.Fatalf("QueryApplications() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("records = %d, want 2", len(recs))
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestApplicationRepository_QueryApplications_orderingWhitelist(t *testing.T) {
	repo, mock := newMockRepo(t)

	// ordering fields bind straight from the query string; anything outside
	// the column set is dropped, never interpolated into the statement
	rows := sqlmock.NewRows([]string{"id", "user_id", "company_name", "status"}).
		AddRow("11111111-1111-1111-1111-111111111111", "usr-1", "Jua Solar", "submitted")
	mock.ExpectQuery(`SELECT (.+) FROM application$`).WillReturnRows(rows)

	_, err := repo.QueryApplications(
		context.Background(),
		nil,
		core.DBOrdering{Field: "(SELECT pg_sleep(10))"},
	)
	if err != nil {
		t.Fatalf("QueryApplications() error = %v", err)
	}

	// known columns still make it into the ORDER BY
	rows = sqlmock.NewRows([]string{"id", "user_id", "company_name", "status"}).
		AddRow("11111111-1111-1111-1111-111111111111", "usr-1", "Jua Solar", "submitted")
	mock.ExpectQuery(`SELECT (.+) FROM application ORDER BY company_name ASC$`).WillReturnRows(rows)

	_, err = repo.QueryApplications(
		context.Background(),
		nil,
		core.DBOrdering{Field: "id; DROP TABLE application"},
		core.DBOrdering{Field: "company_name", Ascending: true},
	)
	if err != nil {
		t.Fatalf("QueryApplications() error = %v", err)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUserRepository_QueryUsers_orderingWhitelist(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := NewUserRepository(sqlx.NewDb(db, "postgres"))

	rows := sqlmock.NewRows([]string{"id", "email"}).
		AddRow("11111111-1111-1111-1111-111111111111", "amina@juasolar.co.ke")
	mock.ExpectQuery(`SELECT \* FROM "user"$`).WillReturnRows(rows)

	_, err = repo.QueryUsers(context.Background(), nil, core.DBOrdering{Field: "(SELECT pg_sleep(10))"})
	if err != nil {
		t.Fatalf("QueryUsers() error = %v", err)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestApplicationRepository_UpdateApplicationStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := "11111111-1111-1111-1111-111111111111"
	rows := sqlmock.NewRows([]string{"id", "user_id", "status"}).
		AddRow(id, "usr-1", "under_review")
	mock.ExpectQuery("UPDATE application SET status").
		WithArgs("under_review", id).
		WillReturnRows(rows)

	rec, err := repo.UpdateApplicationStatus(context.Background(), id, "under_review")
	if err != nil {
		t.Fatalf("UpdateApplicationStatus() error = %v", err)
	}
	if rec.Status != "under_review" {
		t.Errorf("Status = %q, want under_review", rec.Status)
	}

	mock.ExpectQuery("UPDATE application SET status").
		WithArgs("accepted", "ghost").
		WillReturnError(sql.ErrNoRows)
	if _, err = repo.UpdateApplicationStatus(context.Background(), "ghost", "accepted"); errors.Cause(err) != application.ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestApplicationRepository_CountApplicationsByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("submitted", 4).
		AddRow("accepted", 1)
	mock.ExpectQuery("SELECT status, COUNT").WillReturnRows(rows)

	counts, err := repo.CountApplicationsByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountApplicationsByStatus() error = %v", err)
	}
	if counts["submitted"] != 4 || counts["accepted"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
