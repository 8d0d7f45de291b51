package application

import (
	"reflect"
	"testing"
)

// validApplication returns an aggregate that passes every step validator.
func validApplication() Application {
	return Application{
		ProblemStatement: "Rural clinics lose vaccines to cold-chain failures",
		TargetAudience:   "Rural health facilities",
		ProblemSize:      "large",
		Urgency:          "high",

		SolutionDescription: "Solar-powered smart fridges with telemetry",
		ValueProposition:    "Reliable cold chain at half the running cost",
		ProductType:         "hardware",
		DevelopmentStage:    "prototype",

		MarketSize:          "12000 facilities in East Africa",
		TargetMarket:        "Clinics and district hospitals",
		CustomerAcquisition: "Partnerships with county health departments",
		RevenueModel:        "Hardware lease plus monitoring subscription",

		TeamVision: "Health infrastructure that never fails silently",
		TeamMembers: []TeamMember{
			{
				Name:       "Amina Yusuf",
				Role:       "CEO",
				Email:      "amina@juasolar.co.ke",
				Experience: "8 years in medical logistics",
				Commitment: CommitmentFullTime,
			},
		},

		CompanyName:   "Jua Solar",
		Sectors:       []string{"energy", "healthcare"},
		BusinessStage: "early-revenue",
		BusinessModel: "B2B lease",
		FundingNeeds:  "USD 250k seed",

		Agreements: Agreements{Accuracy: true, Terms: true, Privacy: true, Communication: true},
	}
}

func Test_validateProblemStep(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(app *Application)
		want   []string
	}{
		{name: "valid", mutate: func(app *Application) {}},
		{
			name:   "empty aggregate",
			mutate: func(app *Application) { *app = Application{} },
			want: []string{
				"Problem statement is required",
				"Target audience is required",
				"Please select a problem size",
				"Please select the urgency level",
			},
		},
		{
			name:   "whitespace-only statement",
			mutate: func(app *Application) { app.ProblemStatement = "   " },
			want:   []string{"Problem statement is required"},
		},
		{
			name:   "missing urgency",
			mutate: func(app *Application) { app.Urgency = "" },
			want:   []string{"Please select the urgency level"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			if got := validateProblemStep(&app); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("validateProblemStep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_validateSolutionStep(t *testing.T) {
	app := validApplication()
	if got := validateSolutionStep(&app); got != nil {
		t.Errorf("validateSolutionStep() = %v, want nil", got)
	}

	app = Application{}
	want := []string{
		"Solution description is required",
		"Value proposition is required",
		"Please select a product type",
		"Please select your development stage",
	}
	if got := validateSolutionStep(&app); !reflect.DeepEqual(got, want) {
		t.Errorf("validateSolutionStep() = %v, want %v", got, want)
	}
}

func Test_validateMarketStep(t *testing.T) {
	app := validApplication()
	if got := validateMarketStep(&app); got != nil {
		t.Errorf("validateMarketStep() = %v, want nil", got)
	}

	app.CustomerAcquisition = " "
	want := []string{"Customer acquisition strategy is required"}
	if got := validateMarketStep(&app); !reflect.DeepEqual(got, want) {
		t.Errorf("validateMarketStep() = %v, want %v", got, want)
	}
}

func Test_validateTeamStep(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(app *Application)
		want   []string
	}{
		{name: "valid", mutate: func(app *Application) {}},
		{
			name:   "no members",
			mutate: func(app *Application) { app.TeamMembers = nil },
			want:   []string{"At least one team member is required"},
		},
		{
			name: "second member incomplete",
			mutate: func(app *Application) {
				app.TeamMembers = append(app.TeamMembers, TeamMember{})
			},
			want: []string{
				"Team member 2: Name is required",
				"Team member 2: Role is required",
				"Team member 2: Email is required",
				"Team member 2: Experience is required",
				"Team member 2: Please select a commitment level",
			},
		},
		{
			name: "invalid email",
			mutate: func(app *Application) {
				app.TeamMembers[0].Email = "not-an-email"
			},
			want: []string{"Team member 1: Email is invalid"},
		},
		{
			name: "unknown commitment",
			mutate: func(app *Application) {
				app.TeamMembers[0].Commitment = "weekends"
			},
			want: []string{"Team member 1: Invalid commitment level"},
		},
		{
			name:   "missing vision",
			mutate: func(app *Application) { app.TeamVision = "" },
			want:   []string{"Team vision is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			if got := validateTeamStep(&app); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("validateTeamStep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_validateBusinessStep(t *testing.T) {
	app := validApplication()
	if got := validateBusinessStep(&app); got != nil {
		t.Errorf("validateBusinessStep() = %v, want nil", got)
	}

	app.CompanyName = ""
	app.Sectors = nil
	want := []string{
		"Company name is required",
		"Please select at least one sector",
	}
	if got := validateBusinessStep(&app); !reflect.DeepEqual(got, want) {
		t.Errorf("validateBusinessStep() = %v, want %v", got, want)
	}
}

func Test_validateDocumentsStep(t *testing.T) {
	// everything on the documents step is optional
	app := Application{}
	if got := validateDocumentsStep(&app); got != nil {
		t.Errorf("validateDocumentsStep() = %v, want nil", got)
	}
}

func Test_validateReviewStep(t *testing.T) {
	app := validApplication()
	if got := validateReviewStep(&app); got != nil {
		t.Errorf("validateReviewStep() = %v, want nil", got)
	}

	app.Agreements = Agreements{Accuracy: true}
	want := []string{
		"You must accept the terms and conditions",
		"You must accept the privacy policy",
		"You must agree to receive program communications",
	}
	if got := validateReviewStep(&app); !reflect.DeepEqual(got, want) {
		t.Errorf("validateReviewStep() = %v, want %v", got, want)
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	if reg.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", reg.Len())
	}
	order := []string{StepProblem, StepSolution, StepMarket, StepTeam, StepBusiness, StepDocuments, StepReview}
	for i, id := range order {
		if reg.Step(i).ID != id {
			t.Errorf("Step(%d).ID = %q, want %q", i, reg.Step(i).ID, id)
		}
		if reg.Index(id) != i {
			t.Errorf("Index(%q) = %d, want %d", id, reg.Index(id), i)
		}
	}
	if reg.Index("lol") != -1 {
		t.Errorf("Index(lol) = %d, want -1", reg.Index("lol"))
	}
}
