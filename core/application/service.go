package application

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/user"
)

var (
	ErrNotFound      = errors.New("application not found")
	ErrAuthRequired  = errors.New("authentication required")
	ErrDraftNotFound = errors.New("draft not found")
	ErrBadTransition = errors.New("invalid status transition")
)

type (
	Repository interface {
		// UpsertApplication atomically inserts or fully overwrites the one
		// application owned by rec.UserID. Reports whether a row was created.
		UpsertApplication(ctx context.Context, rec Record) (Record, bool, error)
		GetApplicationByID(ctx context.Context, id string) (Record, error)
		GetApplicationByUserID(ctx context.Context, userID string) (Record, error)
		// QueryApplications applies AND operation on available QueryFilter fields.
		QueryApplications(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		UpdateApplicationStatus(ctx context.Context, id, status string) (Record, error)
		CountApplicationsByStatus(ctx context.Context) (map[string]int, error)
	}

	// DraftStore persists in-progress wizard state server-side so founders can
	// resume from another device.
	DraftStore interface {
		SaveDraft(ctx context.Context, userID string, draft Update) error
		GetDraft(ctx context.Context, userID string) (Update, error)
		DeleteDraft(ctx context.Context, userID string) error
	}

	Stats struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"by_status"`
	}

	Service interface {
		SubmissionGateway

		GetForUser(ctx context.Context, userID string) (Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		UpdateStatus(ctx context.Context, id, status string) (Record, error)
		Stats(ctx context.Context) (Stats, error)

		SaveDraft(ctx context.Context, userID string, draft Update) error
		GetDraft(ctx context.Context, userID string) (Update, error)
		DeleteDraft(ctx context.Context, userID string) error
	}

	service struct {
		repo    Repository
		drafts  DraftStore
		usrSvc  user.Service
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, drafts DraftStore, usrSvc user.Service, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		drafts:  drafts,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Submit persists the finished aggregate: exactly one application per owning
// user, insert on first submission, full overwrite on resubmission.
func (svc *service) Submit(ctx context.Context, ownerID string, sub SubmitApplication) (Record, bool, error) {
	ownerID = core.CleanString(ownerID)
	if ownerID == "" {
		return Record{}, false, ErrAuthRequired
	}

	// materialize the owning user from the identity provider; best-effort,
	// a failure here never blocks the submission
	usr, err := svc.usrSvc.Mirror(ctx, ownerID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("mirroring user %s: %v", ownerID, err), err)
	}

	if err := sub.Validate(); err != nil {
		return Record{}, false, err
	}

	now := time.Now().UTC()
	rec := Record{
		UserID:      ownerID,
		Application: sub.Application,
		Status:      StatusSubmitted,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec, created, err := svc.repo.UpsertApplication(ctx, rec)
	if err != nil {
		return Record{}, false, errors.Wrap(err, "upserting application")
	}

	// the submitted record supersedes any saved draft
	if svc.drafts != nil {
		if err := svc.drafts.DeleteDraft(ctx, ownerID); err != nil && errors.Cause(err) != ErrDraftNotFound {
			svc.logger.Warn(fmt.Sprintf("deleting draft for %s: %v", ownerID, err), err)
		}
	}

	if svc.mailSvc != nil && usr.Email != "" {
		svc.mailSvc.SendMessages(svc.confirmationEmail(usr, rec, created))
	}

	return rec, created, nil
}

func (svc *service) confirmationEmail(usr user.User, rec Record, created bool) *core.EmailMessage {
	verb := "updated"
	if created {
		verb = "received"
	}
	return &core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Application " + verb,
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour application for %s has been %s and is now under consideration.\n"+
				"You can review it anytime from your founder dashboard.\n",
			usr.FirstName, rec.CompanyName, verb),
	}
}

func (svc *service) GetForUser(ctx context.Context, userID string) (Record, error) {
	return svc.repo.GetApplicationByUserID(ctx, core.CleanString(userID))
}

func (svc *service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "submitted_at", Ascending: false}}
	}
	return svc.repo.QueryApplications(ctx, filter, ordering...)
}

func (svc *service) UpdateStatus(ctx context.Context, id, status string) (Record, error) {
	rec, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !CanTransition(rec.Status, status) {
		return Record{}, core.NewValidationError(ErrBadTransition, core.FieldError{
			Field: "status",
			Error: fmt.Sprintf("cannot move from %q to %q", rec.Status, status),
		})
	}
	return svc.repo.UpdateApplicationStatus(ctx, id, status)
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	byStatus, err := svc.repo.CountApplicationsByStatus(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting applications")
	}
	stats := Stats{ByStatus: byStatus}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (svc *service) SaveDraft(ctx context.Context, userID string, draft Update) error {
	userID = core.CleanString(userID)
	if userID == "" {
		return ErrAuthRequired
	}
	return svc.drafts.SaveDraft(ctx, userID, draft)
}

func (svc *service) GetDraft(ctx context.Context, userID string) (Update, error) {
	return svc.drafts.GetDraft(ctx, core.CleanString(userID))
}

func (svc *service) DeleteDraft(ctx context.Context, userID string) error {
	return svc.drafts.DeleteDraft(ctx, core.CleanString(userID))
}
