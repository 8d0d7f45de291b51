package application_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
	"github.com/ubunifu/launchpad/core/user"
	emailsvc "github.com/ubunifu/launchpad/services/email"
	identitysvc "github.com/ubunifu/launchpad/services/identity"
	inmemdb "github.com/ubunifu/launchpad/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(msg string, _ ...interface{}) {
	panic(msg)
}

var founderProfile = user.IdentityProfile{
	ID:        "usr-1",
	Email:     "amina@juasolar.co.ke",
	FirstName: "Amina",
	LastName:  "Yusuf",
	Role:      user.RoleFounder,
}

func setupService(t *testing.T) (application.Service, *inmemdb.DB) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	identity := &identitysvc.StaticProvider{
		Profiles: map[string]user.IdentityProfile{founderProfile.ID: founderProfile},
	}
	logger := nopLogger{}
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), identity, logger)
	svc := application.NewService(
		inmemdb.NewApplicationRepository(db),
		inmemdb.NewDraftStore(db),
		usrSvc,
		emailsvc.NewConsoleServiceMock(),
		logger,
	)

	emailsvc.ClearSentMessages()
	return svc, db
}

func validSubmission() application.SubmitApplication {
	return application.SubmitApplication{
		Application: application.Application{
			CompanyName:         "Jua Solar",
			ProblemStatement:    "Cold-chain failures in rural clinics",
			SolutionDescription: "Solar-powered smart fridges",
			TeamMembers: []application.TeamMember{
				{Name: "Amina Yusuf", Role: "CEO", Email: "amina@juasolar.co.ke", Experience: "8y", Commitment: application.CommitmentFullTime},
			},
		},
	}
}

func TestService_Submit_createsThenOverwrites(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	rec, created, err := svc.Submit(ctx, founderProfile.ID, validSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !created {
		t.Error("first Submit() reported created = false")
	}
	if rec.Status != application.StatusSubmitted {
		t.Errorf("Status = %q, want %q", rec.Status, application.StatusSubmitted)
	}
	if rec.SubmittedAt.IsZero() {
		t.Error("SubmittedAt not set")
	}

	// resubmission fully overwrites the same row
	sub := validSubmission()
	sub.CompanyName = "Jua Solar Ltd"
	rec2, created, err := svc.Submit(ctx, founderProfile.ID, sub)
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if created {
		t.Error("second Submit() reported created = true")
	}
	if rec2.ID != rec.ID {
		t.Errorf("record ID changed on resubmission: %q -> %q", rec.ID, rec2.ID)
	}

	got, err := svc.GetForUser(ctx, founderProfile.ID)
	if err != nil {
		t.Fatalf("GetForUser() error = %v", err)
	}
	if got.CompanyName != "Jua Solar Ltd" {
		t.Errorf("CompanyName = %q, want overwrite to win", got.CompanyName)
	}
}

func TestService_Submit_requiresOwner(t *testing.T) {
	svc, _ := setupService(t)

	_, _, err := svc.Submit(context.Background(), "  ", validSubmission())
	if errors.Cause(err) != application.ErrAuthRequired {
		t.Errorf("Submit() error = %v, want ErrAuthRequired", err)
	}
}

func TestService_Submit_validatesPayload(t *testing.T) {
	svc, _ := setupService(t)

	sub := validSubmission()
	sub.CompanyName = "   "
	if _, _, err := svc.Submit(context.Background(), founderProfile.ID, sub); err == nil {
		t.Error("Submit() accepted a blank company name")
	}

	sub = validSubmission()
	sub.TeamMembers = nil
	if _, _, err := svc.Submit(context.Background(), founderProfile.ID, sub); err == nil {
		t.Error("Submit() accepted an empty team")
	}
}

func TestService_Submit_mirrorsOwnerAndEmails(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	if _, _, err := svc.Submit(ctx, founderProfile.ID, validSubmission()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	usr, err := inmemdb.NewUserRepository(db).GetUserByID(ctx, founderProfile.ID)
	if err != nil {
		t.Fatalf("mirrored user not found: %v", err)
	}
	if usr.Email != founderProfile.Email || usr.Role != user.RoleFounder {
		t.Errorf("mirrored user = %+v", usr)
	}

	if n := len(emailsvc.SentMessages); n != 1 {
		t.Fatalf("sent emails = %d, want 1", n)
	}
	if subj := emailsvc.SentMessages[0].Subject; subj != "Application received" {
		t.Errorf("Subject = %q, want %q", subj, "Application received")
	}

	// resubmission confirms an update instead
	if _, _, err := svc.Submit(ctx, founderProfile.ID, validSubmission()); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if subj := emailsvc.SentMessages[1].Subject; subj != "Application updated" {
		t.Errorf("Subject = %q, want %q", subj, "Application updated")
	}
}

func TestService_Submit_unknownOwnerStillSucceeds(t *testing.T) {
	// the identity mirror is best-effort; a provider miss never blocks submission
	svc, _ := setupService(t)

	_, created, err := svc.Submit(context.Background(), "ghost", validSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !created {
		t.Error("Submit() reported created = false")
	}
	if len(emailsvc.SentMessages) != 0 {
		t.Error("confirmation sent without a known email address")
	}
}

func TestService_Submit_supersedesDraft(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	name := "Jua Solar"
	if err := svc.SaveDraft(ctx, founderProfile.ID, application.Update{CompanyName: &name}); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	if _, _, err := svc.Submit(ctx, founderProfile.ID, validSubmission()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := svc.GetDraft(ctx, founderProfile.ID); errors.Cause(err) != application.ErrDraftNotFound {
		t.Errorf("GetDraft() error = %v, want ErrDraftNotFound", err)
	}
}

func TestService_UpdateStatus_transitions(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	rec, _, err := svc.Submit(ctx, founderProfile.ID, validSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	tests := []struct {
		name   string
		status string
		wantOK bool
	}{
		{name: "submitted to accepted is skipped review", status: application.StatusAccepted, wantOK: false},
		{name: "submitted to under_review", status: application.StatusUnderReview, wantOK: true},
		{name: "under_review to rejected", status: application.StatusRejected, wantOK: true},
		{name: "rejected back to under_review", status: application.StatusUnderReview, wantOK: true},
		{name: "under_review to accepted", status: application.StatusAccepted, wantOK: true},
		{name: "accepted is terminal", status: application.StatusRejected, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdateStatus(ctx, rec.ID, tt.status)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("UpdateStatus() error = %v", err)
				}
				if got.Status != tt.status {
					t.Errorf("Status = %q, want %q", got.Status, tt.status)
				}
				return
			}
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("UpdateStatus() error = %v, want *core.ValidationError", err)
			}
			if !strings.Contains(vErr.Fields[0].Error, "cannot move") {
				t.Errorf("unexpected field error: %+v", vErr.Fields)
			}
		})
	}

	if _, err := svc.UpdateStatus(ctx, "nope", application.StatusUnderReview); errors.Cause(err) != application.ErrNotFound {
		t.Errorf("UpdateStatus(nope) error = %v, want ErrNotFound", err)
	}
}

func TestService_Query_orderingByField(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for owner, name := range map[string]string{
		"usr-1": "Jua Solar",
		"usr-2": "Mifugo Tech",
		"usr-3": "Shule Cloud",
	} {
		sub := validSubmission()
		sub.CompanyName = name
		if _, _, err := svc.Submit(ctx, owner, sub); err != nil {
			t.Fatalf("Submit(%s) error = %v", owner, err)
		}
	}

	recs, err := svc.Query(ctx, nil, core.DBOrdering{Field: "company_name", Ascending: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	got := make([]string, 0, len(recs))
	for _, rec := range recs {
		got = append(got, rec.CompanyName)
	}
	want := []string{"Jua Solar", "Mifugo Tech", "Shule Cloud"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("company names = %v, want %v", got, want)
	}
}

func TestService_QueryAndStats(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	subs := map[string]string{
		"usr-1": "Jua Solar",
		"usr-2": "Mifugo Tech",
		"usr-3": "Shule Cloud",
	}
	var reviewID string
	for owner, name := range subs {
		sub := validSubmission()
		sub.CompanyName = name
		rec, _, err := svc.Submit(ctx, owner, sub)
		if err != nil {
			t.Fatalf("Submit(%s) error = %v", owner, err)
		}
		if owner == "usr-2" {
			reviewID = rec.ID
		}
	}
	if _, err := svc.UpdateStatus(ctx, reviewID, application.StatusUnderReview); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	recs, err := svc.Query(ctx, &application.QueryFilter{Status: application.StatusSubmitted})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("Query(submitted) = %d records, want 2", len(recs))
	}

	recs, err = svc.Query(ctx, &application.QueryFilter{Search: "mifugo"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(recs) != 1 || recs[0].CompanyName != "Mifugo Tech" {
		t.Errorf("Query(search) = %+v", recs)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByStatus[application.StatusSubmitted] != 2 || stats.ByStatus[application.StatusUnderReview] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
}
