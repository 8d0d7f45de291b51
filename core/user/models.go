package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ubunifu/launchpad/core"
)

// Roles
const (
	RoleFounder  = "founder"
	RoleMentor   = "mentor"
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

var (
	AllRoles = []string{RoleFounder, RoleMentor, RoleInvestor, RoleAdmin}

	rolePriorities = map[string]int{
		RoleAdmin:    30,
		RoleInvestor: 20,
		RoleMentor:   10,
		RoleFounder:  1,
	}

	Roles = []Role{
		{Name: "Founder", Value: RoleFounder},
		{Name: "Mentor", Value: RoleMentor},
		{Name: "Investor", Value: RoleInvestor},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User mirrors an identity-provider principal into the portal's own user table.
// Founders/mentors/investors authenticate upstream; only staff accounts created
// through the admin CLI carry a local password hash.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsFounder() bool  { return u.Role == RoleFounder }
func (u *User) IsMentor() bool   { return u.Role == RoleMentor }
func (u *User) IsInvestor() bool { return u.Role == RoleInvestor }

// NewUser contains information needed to create a new local (staff) User.
type NewUser struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,portalrole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(context.Background(), nu.Email)
}

// IdentityProfile is the narrow slice of an identity-provider user the portal
// mirrors locally.
type IdentityProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// IdentityProvider is the external identity/session service collaborator.
type IdentityProvider interface {
	UserByID(ctx context.Context, id string) (IdentityProfile, error)
}

type QueryFilter struct {
	Search      string
	Role        string
	IsActive    *bool
	CreatedFrom time.Time
	CreatedTo   time.Time
}
