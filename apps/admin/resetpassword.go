package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	if err := cli.usrSvc.ResetPassword(context.Background(), uname, pwd); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "password of %q updated\n", uname)
	return nil
}
