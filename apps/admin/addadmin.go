package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/user"
)

// addAdmin updates or creates an admin user.User
func (cli *commandLine) addAdmin(first, last, email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			FirstName: core.CleanString(first),
			LastName:  core.CleanString(last),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}

	usr.Role = user.RoleAdmin
	active := true
	usr.IsActive = &active
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
