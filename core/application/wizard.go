package application

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateStepID  = errors.New("duplicate step identifier")
	ErrEmptyRegistry    = errors.New("a wizard needs at least one step")
	ErrStepNotReached   = errors.New("step has not been reached yet")
	ErrStepOutOfRange   = errors.New("no such step")
	ErrNotLastStep      = errors.New("submission is only allowed from the final step")
	ErrStepInvalid      = errors.New("current step has validation errors")
	ErrAlreadySubmitted = errors.New("application already submitted")
)

// StepValidator checks the accumulated aggregate for one step and returns
// human-readable error messages; an empty list means the step is valid.
// Validators never mutate the aggregate.
type StepValidator func(app *Application) []string

type StepDefinition struct {
	ID       string
	Title    string
	Validate StepValidator
}

// StepRegistry is a fixed, ordered sequence of step definitions. Order defines
// both the UI sequence and the furthest-reached gating rule.
type StepRegistry struct {
	steps []StepDefinition
}

func NewStepRegistry(steps ...StepDefinition) (*StepRegistry, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyRegistry
	}
	seen := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		if _, dup := seen[s.ID]; dup {
			return nil, errors.Wrap(ErrDuplicateStepID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return &StepRegistry{steps: steps}, nil
}

func (r *StepRegistry) Len() int { return len(r.steps) }

func (r *StepRegistry) Step(i int) StepDefinition { return r.steps[i] }

// Index returns the position of a step ID, or -1.
func (r *StepRegistry) Index(id string) int {
	for i, s := range r.steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// SubmissionGateway hands a finished aggregate off for persistence.
type SubmissionGateway interface {
	Submit(ctx context.Context, ownerID string, sub SubmitApplication) (Record, bool, error)
}

// Wizard owns navigation and aggregate state for one application session.
// States are step indices 0..N-1 plus a terminal "submitted" state; validation
// gates forward movement only, never backward.
type Wizard struct {
	registry *StepRegistry
	gateway  SubmissionGateway
	ownerID  string

	app       Application
	current   int
	furthest  int // highest index ever successfully validated-and-advanced-through
	stepErrs  map[int][]string
	submitted bool
}

func NewWizard(registry *StepRegistry, gateway SubmissionGateway, ownerID string) *Wizard {
	w := &Wizard{
		registry: registry,
		gateway:  gateway,
		ownerID:  ownerID,
		stepErrs: make(map[int][]string),
	}
	// the team step always shows at least one (possibly empty) member
	w.app.TeamMembers = []TeamMember{{}}
	return w
}

// Aggregate returns a copy of the accumulated form data.
func (w *Wizard) Aggregate() Application { return w.app }

func (w *Wizard) Current() int                { return w.current }
func (w *Wizard) Furthest() int               { return w.furthest }
func (w *Wizard) Submitted() bool             { return w.submitted }
func (w *Wizard) CurrentStep() StepDefinition { return w.registry.Step(w.current) }
func (w *Wizard) StepErrors(i int) []string   { return w.stepErrs[i] }

// Merge shallow-merges a partial step update into the aggregate;
// last write wins per field, untouched fields persist.
func (w *Wizard) Merge(upd Update) {
	if w.submitted {
		return
	}
	w.app.Apply(upd)
}

// ValidateCurrentStep runs the active step's validator and records the result.
func (w *Wizard) ValidateCurrentStep() []string {
	errs := w.registry.Step(w.current).Validate(&w.app)
	w.stepErrs[w.current] = errs
	return errs
}

// Advance moves to the next step iff the current one validates; repeated failed
// advances never move the index. Cannot advance past the last step.
func (w *Wizard) Advance() bool {
	if w.submitted {
		return false
	}
	if errs := w.ValidateCurrentStep(); len(errs) > 0 {
		return false
	}
	if w.current >= w.registry.Len()-1 {
		return false
	}
	w.current++
	if w.current > w.furthest {
		w.furthest = w.current
	}
	return true
}

// Retreat moves backward unconditionally, floored at the first step.
func (w *Wizard) Retreat() {
	if w.submitted {
		return
	}
	if w.current > 0 {
		w.current--
	}
}

// JumpTo navigates directly to an already-reached step. Jumping beyond the
// furthest-reached index is rejected and leaves the index unchanged.
func (w *Wizard) JumpTo(i int) error {
	if w.submitted {
		return ErrAlreadySubmitted
	}
	if i < 0 || i >= w.registry.Len() {
		return ErrStepOutOfRange
	}
	if i > w.furthest {
		return ErrStepNotReached
	}
	w.current = i
	return nil
}

// AddTeamMember appends a member record to the aggregate.
func (w *Wizard) AddTeamMember(m TeamMember) {
	if w.submitted {
		return
	}
	w.app.TeamMembers = append(w.app.TeamMembers, m)
}

// RemoveTeamMember removes the member at i; removing the last remaining member
// is a no-op (at least one is always present).
func (w *Wizard) RemoveTeamMember(i int) bool {
	if w.submitted || len(w.app.TeamMembers) <= 1 || i < 0 || i >= len(w.app.TeamMembers) {
		return false
	}
	w.app.TeamMembers = append(w.app.TeamMembers[:i], w.app.TeamMembers[i+1:]...)
	return true
}

// Submit delegates the full aggregate to the submission gateway. Only callable
// from the last step with its validation passing; success is terminal, while a
// gateway failure keeps the wizard on the last step for retry.
func (w *Wizard) Submit(ctx context.Context) (Record, error) {
	if w.submitted {
		return Record{}, ErrAlreadySubmitted
	}
	if w.current != w.registry.Len()-1 {
		return Record{}, ErrNotLastStep
	}
	if errs := w.ValidateCurrentStep(); len(errs) > 0 {
		return Record{}, ErrStepInvalid
	}

	rec, _, err := w.gateway.Submit(ctx, w.ownerID, SubmitApplication{
		Application: w.app,
		UserID:      w.ownerID,
	})
	if err != nil {
		return Record{}, err
	}
	w.submitted = true
	return rec, nil
}
