package application

import (
	"fmt"
	"log"
	"net/mail"

	"github.com/ubunifu/launchpad/core"
)

// Step identifiers, in wizard order.
const (
	StepProblem   = "problem"
	StepSolution  = "solution"
	StepMarket    = "market"
	StepTeam      = "team"
	StepBusiness  = "business"
	StepDocuments = "documents"
	StepReview    = "review"
)

// DefaultRegistry returns the seven-step application wizard.
func DefaultRegistry() *StepRegistry {
	reg, err := NewStepRegistry(
		StepDefinition{ID: StepProblem, Title: "Problem", Validate: validateProblemStep},
		StepDefinition{ID: StepSolution, Title: "Solution", Validate: validateSolutionStep},
		StepDefinition{ID: StepMarket, Title: "Market", Validate: validateMarketStep},
		StepDefinition{ID: StepTeam, Title: "Team", Validate: validateTeamStep},
		StepDefinition{ID: StepBusiness, Title: "Business", Validate: validateBusinessStep},
		StepDefinition{ID: StepDocuments, Title: "Documents", Validate: validateDocumentsStep},
		StepDefinition{ID: StepReview, Title: "Review & Submit", Validate: validateReviewStep},
	)
	if err != nil {
		log.Fatalf("building default step registry: %v", err) // unreachable: IDs are constants
	}
	return reg
}

// missing treats empty and whitespace-only input as absent.
func missing(s string) bool {
	return core.CleanString(s) == ""
}

func validateProblemStep(app *Application) []string {
	var errs []string
	if missing(app.ProblemStatement) {
		errs = append(errs, "Problem statement is required")
	}
	if missing(app.TargetAudience) {
		errs = append(errs, "Target audience is required")
	}
	if missing(app.ProblemSize) {
		errs = append(errs, "Please select a problem size")
	}
	if missing(app.Urgency) {
		errs = append(errs, "Please select the urgency level")
	}
	return errs
}

func validateSolutionStep(app *Application) []string {
	var errs []string
	if missing(app.SolutionDescription) {
		errs = append(errs, "Solution description is required")
	}
	if missing(app.ValueProposition) {
		errs = append(errs, "Value proposition is required")
	}
	if missing(app.ProductType) {
		errs = append(errs, "Please select a product type")
	}
	if missing(app.DevelopmentStage) {
		errs = append(errs, "Please select your development stage")
	}
	return errs
}

func validateMarketStep(app *Application) []string {
	var errs []string
	if missing(app.MarketSize) {
		errs = append(errs, "Market size estimate is required")
	}
	if missing(app.TargetMarket) {
		errs = append(errs, "Target market is required")
	}
	if missing(app.CustomerAcquisition) {
		errs = append(errs, "Customer acquisition strategy is required")
	}
	if missing(app.RevenueModel) {
		errs = append(errs, "Revenue model is required")
	}
	return errs
}

// validateTeamStep validates every member individually; messages are indexed by
// member position (1-based) so users can tell which card needs fixing.
func validateTeamStep(app *Application) []string {
	var errs []string
	if missing(app.TeamVision) {
		errs = append(errs, "Team vision is required")
	}
	if len(app.TeamMembers) == 0 {
		errs = append(errs, "At least one team member is required")
		return errs
	}
	for i, m := range app.TeamMembers {
		pos := i + 1
		if missing(m.Name) {
			errs = append(errs, fmt.Sprintf("Team member %d: Name is required", pos))
		}
		if missing(m.Role) {
			errs = append(errs, fmt.Sprintf("Team member %d: Role is required", pos))
		}
		if missing(m.Email) {
			errs = append(errs, fmt.Sprintf("Team member %d: Email is required", pos))
		} else if _, err := mail.ParseAddress(core.CleanString(m.Email)); err != nil {
			errs = append(errs, fmt.Sprintf("Team member %d: Email is invalid", pos))
		}
		if missing(m.Experience) {
			errs = append(errs, fmt.Sprintf("Team member %d: Experience is required", pos))
		}
		if missing(m.Commitment) {
			errs = append(errs, fmt.Sprintf("Team member %d: Please select a commitment level", pos))
		} else if !validCommitment(m.Commitment) {
			errs = append(errs, fmt.Sprintf("Team member %d: Invalid commitment level", pos))
		}
	}
	return errs
}

func validateBusinessStep(app *Application) []string {
	var errs []string
	if missing(app.CompanyName) {
		errs = append(errs, "Company name is required")
	}
	if len(app.Sectors) == 0 {
		errs = append(errs, "Please select at least one sector")
	}
	if missing(app.BusinessStage) {
		errs = append(errs, "Please select your business stage")
	}
	if missing(app.BusinessModel) {
		errs = append(errs, "Business model is required")
	}
	if missing(app.FundingNeeds) {
		errs = append(errs, "Funding needs are required")
	}
	return errs
}

// validateDocumentsStep: all documents-step fields are optional.
func validateDocumentsStep(*Application) []string {
	return nil
}

func validateReviewStep(app *Application) []string {
	var errs []string
	if !app.Agreements.Accuracy {
		errs = append(errs, "You must confirm the accuracy of your application")
	}
	if !app.Agreements.Terms {
		errs = append(errs, "You must accept the terms and conditions")
	}
	if !app.Agreements.Privacy {
		errs = append(errs, "You must accept the privacy policy")
	}
	if !app.Agreements.Communication {
		errs = append(errs, "You must agree to receive program communications")
	}
	return errs
}
