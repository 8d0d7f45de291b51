package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
)

type applicationRow struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`

	ProblemStatement null.String `db:"problem_statement"`
	TargetAudience   null.String `db:"target_audience"`
	ProblemSize      null.String `db:"problem_size"`
	Urgency          null.String `db:"urgency"`
	CurrentSolutions null.String `db:"current_solutions"`

	SolutionDescription null.String `db:"solution_description"`
	ValueProposition    null.String `db:"value_proposition"`
	ProductType         null.String `db:"product_type"`
	DevelopmentStage    null.String `db:"development_stage"`

	MarketSize          null.String `db:"market_size"`
	TargetMarket        null.String `db:"target_market"`
	Competitors         null.String `db:"competitors"`
	CustomerAcquisition null.String `db:"customer_acquisition"`
	RevenueModel        null.String `db:"revenue_model"`

	TeamVision  null.String `db:"team_vision"`
	TeamMembers []byte      `db:"team_members"`
	TeamGaps    null.String `db:"team_gaps"`

	CompanyName   null.String `db:"company_name"`
	Sectors       []byte      `db:"sectors"`
	BusinessStage null.String `db:"business_stage"`
	BusinessModel null.String `db:"business_model"`
	FundingNeeds  null.String `db:"funding_needs"`
	Traction      null.String `db:"traction"`
	Challenges    null.String `db:"challenges"`
	Timeline      null.String `db:"timeline"`

	Documents      []byte      `db:"documents"`
	AdditionalInfo null.String `db:"additional_info"`
	Agreements     []byte      `db:"agreements"`

	Status      null.String `db:"status"`
	SubmittedAt null.Time   `db:"submitted_at"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

// upsertedRow adds the insert-vs-update flag returned by the upsert statement.
type upsertedRow struct {
	applicationRow
	Inserted bool `db:"inserted"`
}

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sqlx.DB) *applicationRepository {
	return &applicationRepository{db: db}
}

func (repo applicationRepository) pack(rec application.Record) (applicationRow, error) {
	members, err := json.Marshal(rec.TeamMembers)
	if err != nil {
		return applicationRow{}, errors.Wrap(err, "marshalling team members")
	}
	sectors, err := json.Marshal(rec.Sectors)
	if err != nil {
		return applicationRow{}, errors.Wrap(err, "marshalling sectors")
	}
	documents, err := json.Marshal(rec.Documents)
	if err != nil {
		return applicationRow{}, errors.Wrap(err, "marshalling documents")
	}
	agreements, err := json.Marshal(rec.Agreements)
	if err != nil {
		return applicationRow{}, errors.Wrap(err, "marshalling agreements")
	}

	str := func(s string) null.String { return null.NewString(s, s != "") }
	row := applicationRow{
		ID:     rec.ID,
		UserID: rec.UserID,

		ProblemStatement: str(rec.ProblemStatement),
		TargetAudience:   str(rec.TargetAudience),
		ProblemSize:      str(rec.ProblemSize),
		Urgency:          str(rec.Urgency),
		CurrentSolutions: str(rec.CurrentSolutions),

		SolutionDescription: str(rec.SolutionDescription),
		ValueProposition:    str(rec.ValueProposition),
		ProductType:         str(rec.ProductType),
		DevelopmentStage:    str(rec.DevelopmentStage),

		MarketSize:          str(rec.MarketSize),
		TargetMarket:        str(rec.TargetMarket),
		Competitors:         str(rec.Competitors),
		CustomerAcquisition: str(rec.CustomerAcquisition),
		RevenueModel:        str(rec.RevenueModel),

		TeamVision:  str(rec.TeamVision),
		TeamMembers: members,
		TeamGaps:    str(rec.TeamGaps),

		CompanyName:   str(rec.CompanyName),
		Sectors:       sectors,
		BusinessStage: str(rec.BusinessStage),
		BusinessModel: str(rec.BusinessModel),
		FundingNeeds:  str(rec.FundingNeeds),
		Traction:      str(rec.Traction),
		Challenges:    str(rec.Challenges),
		Timeline:      str(rec.Timeline),

		Documents:      documents,
		AdditionalInfo: str(rec.AdditionalInfo),
		Agreements:     agreements,

		Status:      str(rec.Status),
		SubmittedAt: null.NewTime(rec.SubmittedAt.UTC(), !rec.SubmittedAt.IsZero()),
		CreatedAt:   null.NewTime(rec.CreatedAt.UTC(), !rec.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}
	return row, nil
}

func (repo applicationRepository) unpack(row applicationRow) (application.Record, error) {
	rec := application.Record{
		ID:     row.ID,
		UserID: row.UserID,
		Application: application.Application{
			ProblemStatement: row.ProblemStatement.String,
			TargetAudience:   row.TargetAudience.String,
			ProblemSize:      row.ProblemSize.String,
			Urgency:          row.Urgency.String,
			CurrentSolutions: row.CurrentSolutions.String,

			SolutionDescription: row.SolutionDescription.String,
			ValueProposition:    row.ValueProposition.String,
			ProductType:         row.ProductType.String,
			DevelopmentStage:    row.DevelopmentStage.String,

			MarketSize:          row.MarketSize.String,
			TargetMarket:        row.TargetMarket.String,
			Competitors:         row.Competitors.String,
			CustomerAcquisition: row.CustomerAcquisition.String,
			RevenueModel:        row.RevenueModel.String,

			TeamVision: row.TeamVision.String,
			TeamGaps:   row.TeamGaps.String,

			CompanyName:   row.CompanyName.String,
			BusinessStage: row.BusinessStage.String,
			BusinessModel: row.BusinessModel.String,
			FundingNeeds:  row.FundingNeeds.String,
			Traction:      row.Traction.String,
			Challenges:    row.Challenges.String,
			Timeline:      row.Timeline.String,

			AdditionalInfo: row.AdditionalInfo.String,
		},
		Status:      row.Status.String,
		SubmittedAt: row.SubmittedAt.Time,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}

	if len(row.TeamMembers) > 0 {
		if err := json.Unmarshal(row.TeamMembers, &rec.TeamMembers); err != nil {
			return application.Record{}, errors.Wrap(err, "unmarshalling team members")
		}
	}
	if len(row.Sectors) > 0 {
		if err := json.Unmarshal(row.Sectors, &rec.Sectors); err != nil {
			return application.Record{}, errors.Wrap(err, "unmarshalling sectors")
		}
	}
	if len(row.Documents) > 0 {
		if err := json.Unmarshal(row.Documents, &rec.Documents); err != nil {
			return application.Record{}, errors.Wrap(err, "unmarshalling documents")
		}
	}
	if len(row.Agreements) > 0 {
		if err := json.Unmarshal(row.Agreements, &rec.Agreements); err != nil {
			return application.Record{}, errors.Wrap(err, "unmarshalling agreements")
		}
	}
	return rec, nil
}

// trapAppErr is trapErr with the application's not-found sentinel.
func trapAppErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return application.ErrNotFound
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == pqUndefinedTable {
		return core.NewSetupError(err)
	}
	return errors.Wrap(err, msg)
}

// applicationOrderColumns are the columns application queries may order by.
var applicationOrderColumns = map[string]bool{
	"company_name": true,
	"status":       true,
	"submitted_at": true,
	"created_at":   true,
	"updated_at":   true,
}

const applicationColumns = `
	id, user_id,
	problem_statement, target_audience, problem_size, urgency, current_solutions,
	solution_description, value_proposition, product_type, development_stage,
	market_size, target_market, competitors, customer_acquisition, revenue_model,
	team_vision, team_members, team_gaps,
	company_name, sectors, business_stage, business_model, funding_needs, traction, challenges, timeline,
	documents, additional_info, agreements,
	status, submitted_at, created_at, updated_at`

// UpsertApplication inserts the record or fully overwrites the existing one for
// the same owning user. A single statement keyed on the user_id UNIQUE
// constraint: two near-simultaneous submissions can never both insert.
func (repo applicationRepository) UpsertApplication(ctx context.Context, rec application.Record) (application.Record, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	row, err := repo.pack(rec)
	if err != nil {
		return application.Record{}, false, err
	}

	query := `
		INSERT INTO application (` + applicationColumns + `)
		VALUES (
			:id, :user_id,
			:problem_statement, :target_audience, :problem_size, :urgency, :current_solutions,
			:solution_description, :value_proposition, :product_type, :development_stage,
			:market_size, :target_market, :competitors, :customer_acquisition, :revenue_model,
			:team_vision, :team_members, :team_gaps,
			:company_name, :sectors, :business_stage, :business_model, :funding_needs, :traction, :challenges, :timeline,
			:documents, :additional_info, :agreements,
			:status, :submitted_at, :created_at, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			problem_statement = EXCLUDED.problem_statement,
			target_audience = EXCLUDED.target_audience,
			problem_size = EXCLUDED.problem_size,
			urgency = EXCLUDED.urgency,
			current_solutions = EXCLUDED.current_solutions,
			solution_description = EXCLUDED.solution_description,
			value_proposition = EXCLUDED.value_proposition,
			product_type = EXCLUDED.product_type,
			development_stage = EXCLUDED.development_stage,
			market_size = EXCLUDED.market_size,
			target_market = EXCLUDED.target_market,
			competitors = EXCLUDED.competitors,
			customer_acquisition = EXCLUDED.customer_acquisition,
			revenue_model = EXCLUDED.revenue_model,
			team_vision = EXCLUDED.team_vision,
			team_members = EXCLUDED.team_members,
			team_gaps = EXCLUDED.team_gaps,
			company_name = EXCLUDED.company_name,
			sectors = EXCLUDED.sectors,
			business_stage = EXCLUDED.business_stage,
			business_model = EXCLUDED.business_model,
			funding_needs = EXCLUDED.funding_needs,
			traction = EXCLUDED.traction,
			challenges = EXCLUDED.challenges,
			timeline = EXCLUDED.timeline,
			documents = EXCLUDED.documents,
			additional_info = EXCLUDED.additional_info,
			agreements = EXCLUDED.agreements,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + applicationColumns + `, (xmax = 0) AS inserted`

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, row)
	if err != nil {
		return application.Record{}, false, trapAppErr(err, "upserting application")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return application.Record{}, false, trapAppErr(err, "upserting application")
		}
		return application.Record{}, false, errors.New("upsert returned no row")
	}
	var upserted upsertedRow
	if err = rows.StructScan(&upserted); err != nil {
		return application.Record{}, false, errors.Wrap(err, "scanning upserted application")
	}

	out, err := repo.unpack(upserted.applicationRow)
	if err != nil {
		return application.Record{}, false, err
	}
	return out, upserted.Inserted, nil
}

func (repo applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return application.Record{}, application.ErrNotFound
	}
	var row applicationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM application WHERE id = $1`, id); err != nil {
		return application.Record{}, trapAppErr(err, "finding application by ID")
	}
	return repo.unpack(row)
}

func (repo applicationRepository) GetApplicationByUserID(ctx context.Context, userID string) (application.Record, error) {
	var row applicationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM application WHERE user_id = $1`, userID); err != nil {
		return application.Record{}, trapAppErr(err, "finding application by user ID")
	}
	return repo.unpack(row)
}

func (repo applicationRepository) QueryApplications(ctx context.Context, filter *application.QueryFilter, ordering ...core.DBOrdering) ([]application.Record, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Status != "" {
			conds = append(conds, "status = "+arg(filter.Status))
		}
		if filter.Search != "" {
			conds = append(conds, "company_name ILIKE "+arg("%"+filter.Search+"%"))
		}
		if !filter.SubmittedFrom.IsZero() {
			conds = append(conds, "submitted_at >= "+arg(filter.SubmittedFrom.UTC()))
		}
		if !filter.SubmittedTo.IsZero() {
			conds = append(conds, "submitted_at <= "+arg(filter.SubmittedTo.UTC()))
		}
	}

	query := `SELECT ` + applicationColumns + ` FROM application`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderClause(applicationOrderColumns, ordering)

	var rows []applicationRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapAppErr(err, "querying applications")
	}
	recs := make([]application.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := repo.unpack(row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (repo applicationRepository) UpdateApplicationStatus(ctx context.Context, id, status string) (application.Record, error) {
	var row applicationRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE application SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+applicationColumns, status, id)
	if err != nil {
		return application.Record{}, trapAppErr(err, "updating application status")
	}
	return repo.unpack(row)
}

func (repo applicationRepository) CountApplicationsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := repo.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM application GROUP BY status`)
	if err != nil {
		return nil, trapAppErr(err, "counting applications by status")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "scanning status count")
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "counting applications by status")
	}
	return counts, nil
}
