package application

import (
	"github.com/go-playground/validator/v10"

	"github.com/ubunifu/launchpad/core"
)

var (
	reviewStatusTag  = "reviewstatus"
	reviewStatusText = "invalid review status"

	commitmentTag  = "commitment"
	commitmentText = "invalid commitment level"
)

func init() {
	_ = core.Validate.RegisterValidation(reviewStatusTag, reviewStatusValidation)
	core.RegisterCustomTranslation(reviewStatusTag, reviewStatusText)

	_ = core.Validate.RegisterValidation(commitmentTag, commitmentValidation)
	core.RegisterCustomTranslation(commitmentTag, commitmentText)
}

// Custom Validators

// reviewStatusValidation checks that the provided status is a known review status.
func reviewStatusValidation(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, known := statusTransitions[status]
	return known
}

// commitmentValidation checks that the provided commitment level is known.
func commitmentValidation(fl validator.FieldLevel) bool {
	c, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return validCommitment(c)
}
