package main

import (
	"time"

	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/user"
)

// addUser updates or creates a user.
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Name:      uname,
			Username:  uname,
			Email:     email,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if isAdmin {
			usr.Roles = []string{user.RoleAdmin}
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	if isAdmin {
		usr.Roles = []string{user.RoleAdmin}
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	return err
}
