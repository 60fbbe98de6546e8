package main

import (
	"context"
	"fmt"

	"github.com/trezcool/bursary/core/user"
)

// addUser validates nu against the password policy and creates the user.
func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "user %q created (id %d)\n", usr.Username, usr.ID)
	return nil
}
