package application

import (
	"time"

	"github.com/ubunifu/launchpad/core"
)

// Review statuses
const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
)

var statusTransitions = map[string][]string{
	StatusSubmitted:   {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusAccepted, StatusRejected},
	StatusAccepted:    {},
	StatusRejected:    {StatusUnderReview},
}

// CanTransition reports whether a review status change is allowed.
func CanTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Team member commitment levels
const (
	CommitmentFullTime   = "full-time"
	CommitmentPartTime   = "part-time"
	CommitmentAdvisor    = "advisor"
	CommitmentConsultant = "consultant"
)

var AllCommitments = []string{CommitmentFullTime, CommitmentPartTime, CommitmentAdvisor, CommitmentConsultant}

func validCommitment(c string) bool {
	for _, lvl := range AllCommitments {
		if c == lvl {
			return true
		}
	}
	return false
}

type TeamMember struct {
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Email      string   `json:"email"`
	Experience string   `json:"experience"`
	Skills     []string `json:"skills,omitempty"`
	LinkedIn   string   `json:"linkedIn,omitempty"`
	Commitment string   `json:"commitment" validate:"omitempty,commitment"`
}

type Agreements struct {
	Accuracy      bool `json:"accuracy"`
	Terms         bool `json:"terms"`
	Privacy       bool `json:"privacy"`
	Communication bool `json:"communication"`
}

// DocumentRef is a stable reference to an already-uploaded document.
// Files are uploaded to blob storage on selection; the aggregate only ever
// carries references, never raw bytes.
type DocumentRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Application is the single accumulated aggregate of all wizard steps.
type Application struct {
	// Problem
	ProblemStatement string `json:"problemStatement"`
	TargetAudience   string `json:"targetAudience"`
	ProblemSize      string `json:"problemSize"`
	Urgency          string `json:"urgency"`
	CurrentSolutions string `json:"currentSolutions"`

	// Solution
	SolutionDescription string `json:"solutionDescription"`
	ValueProposition    string `json:"valueProposition"`
	ProductType         string `json:"productType"`
	DevelopmentStage    string `json:"developmentStage"`

	// Market
	MarketSize          string `json:"marketSize"`
	TargetMarket        string `json:"targetMarket"`
	Competitors         string `json:"competitors"`
	CustomerAcquisition string `json:"customerAcquisition"`
	RevenueModel        string `json:"revenueModel"`

	// Team
	TeamVision  string       `json:"teamVision"`
	TeamMembers []TeamMember `json:"teamMembers"`
	TeamGaps    string       `json:"teamGaps"`

	// Business
	CompanyName   string   `json:"companyName"`
	Sectors       []string `json:"sectors"`
	BusinessStage string   `json:"businessStage"`
	BusinessModel string   `json:"businessModel"`
	FundingNeeds  string   `json:"fundingNeeds"`
	Traction      string   `json:"traction"`
	Challenges    string   `json:"challenges"`
	Timeline      string   `json:"timeline"`

	// Documents
	Documents      []DocumentRef `json:"documents"`
	AdditionalInfo string        `json:"additionalInfo"`

	// Review
	Agreements Agreements `json:"agreements"`
}

// Update is a struct of optionals merged into the aggregate: only fields a step
// actually sets mutate their key, everything already accumulated stays put.
type Update struct {
	ProblemStatement *string `json:"problemStatement,omitempty"`
	TargetAudience   *string `json:"targetAudience,omitempty"`
	ProblemSize      *string `json:"problemSize,omitempty"`
	Urgency          *string `json:"urgency,omitempty"`
	CurrentSolutions *string `json:"currentSolutions,omitempty"`

	SolutionDescription *string `json:"solutionDescription,omitempty"`
	ValueProposition    *string `json:"valueProposition,omitempty"`
	ProductType         *string `json:"productType,omitempty"`
	DevelopmentStage    *string `json:"developmentStage,omitempty"`

	MarketSize          *string `json:"marketSize,omitempty"`
	TargetMarket        *string `json:"targetMarket,omitempty"`
	Competitors         *string `json:"competitors,omitempty"`
	CustomerAcquisition *string `json:"customerAcquisition,omitempty"`
	RevenueModel        *string `json:"revenueModel,omitempty"`

	TeamVision  *string       `json:"teamVision,omitempty"`
	TeamMembers *[]TeamMember `json:"teamMembers,omitempty"`
	TeamGaps    *string       `json:"teamGaps,omitempty"`

	CompanyName   *string   `json:"companyName,omitempty"`
	Sectors       *[]string `json:"sectors,omitempty"`
	BusinessStage *string   `json:"businessStage,omitempty"`
	BusinessModel *string   `json:"businessModel,omitempty"`
	FundingNeeds  *string   `json:"fundingNeeds,omitempty"`
	Traction      *string   `json:"traction,omitempty"`
	Challenges    *string   `json:"challenges,omitempty"`
	Timeline      *string   `json:"timeline,omitempty"`

	Documents      *[]DocumentRef `json:"documents,omitempty"`
	AdditionalInfo *string        `json:"additionalInfo,omitempty"`

	Agreements *Agreements `json:"agreements,omitempty"`
}

// Apply shallow-merges upd into the aggregate; last write wins per field.
func (app *Application) Apply(upd Update) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&app.ProblemStatement, upd.ProblemStatement)
	setStr(&app.TargetAudience, upd.TargetAudience)
	setStr(&app.ProblemSize, upd.ProblemSize)
	setStr(&app.Urgency, upd.Urgency)
	setStr(&app.CurrentSolutions, upd.CurrentSolutions)
	setStr(&app.SolutionDescription, upd.SolutionDescription)
	setStr(&app.ValueProposition, upd.ValueProposition)
	setStr(&app.ProductType, upd.ProductType)
	setStr(&app.DevelopmentStage, upd.DevelopmentStage)
	setStr(&app.MarketSize, upd.MarketSize)
	setStr(&app.TargetMarket, upd.TargetMarket)
	setStr(&app.Competitors, upd.Competitors)
	setStr(&app.CustomerAcquisition, upd.CustomerAcquisition)
	setStr(&app.RevenueModel, upd.RevenueModel)
	setStr(&app.TeamVision, upd.TeamVision)
	setStr(&app.TeamGaps, upd.TeamGaps)
	setStr(&app.CompanyName, upd.CompanyName)
	setStr(&app.BusinessStage, upd.BusinessStage)
	setStr(&app.BusinessModel, upd.BusinessModel)
	setStr(&app.FundingNeeds, upd.FundingNeeds)
	setStr(&app.Traction, upd.Traction)
	setStr(&app.Challenges, upd.Challenges)
	setStr(&app.Timeline, upd.Timeline)
	setStr(&app.AdditionalInfo, upd.AdditionalInfo)

	if upd.TeamMembers != nil {
		app.TeamMembers = *upd.TeamMembers
	}
	if upd.Sectors != nil {
		app.Sectors = *upd.Sectors
	}
	if upd.Documents != nil {
		app.Documents = *upd.Documents
	}
	if upd.Agreements != nil {
		app.Agreements = *upd.Agreements
	}
}

// Record is the persisted application: one row per owning user.
type Record struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Application
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubmitApplication is the submission wire payload: the flattened aggregate
// plus the owning-user identifier.
type SubmitApplication struct {
	Application
	UserID string `json:"userId"`
}

// submitRequired duplicates the client-side required rules server-side;
// defense in depth, not the primary gate.
type submitRequired struct {
	CompanyName         string       `json:"companyName" validate:"required"`
	ProblemStatement    string       `json:"problemStatement" validate:"required"`
	SolutionDescription string       `json:"solutionDescription" validate:"required"`
	TeamMembers         []TeamMember `json:"teamMembers" validate:"required,min=1,dive"`
}

func (sa *SubmitApplication) Validate() error {
	sa.CompanyName = core.CleanString(sa.CompanyName)
	sa.ProblemStatement = core.CleanString(sa.ProblemStatement)
	sa.SolutionDescription = core.CleanString(sa.SolutionDescription)

	return core.Validate.Struct(submitRequired{
		CompanyName:         sa.CompanyName,
		ProblemStatement:    sa.ProblemStatement,
		SolutionDescription: sa.SolutionDescription,
		TeamMembers:         sa.TeamMembers,
	})
}

type QueryFilter struct {
	Status        string
	Search        string // case-insensitive match on company name
	SubmittedFrom time.Time
	SubmittedTo   time.Time
}
