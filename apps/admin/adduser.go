package main

import (
	"context"
	"fmt"

	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/user"
)

// addUser creates an active user.User, applying the password policy.
func (cli *commandLine) addUser(name, email string, role session.Role, pwd string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s %s <%s>\n", usr.Role, usr.Name, usr.Email)
	return nil
}

func (cli *commandLine) setPassword(email, pwd string) error {
	_, err := cli.usrSvc.SetPassword(context.Background(), email, pwd)
	return err
}
