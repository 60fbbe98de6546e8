package main

import (
	"github.com/pkg/errors"
)

var errNoDB = errors.New("no database connection")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDB
	}
	return migrateFunc(cli.db, args[0], args[1:]...)
}
