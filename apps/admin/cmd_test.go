package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	repos := testutil.OpenRepos()
	usrRepo = repos.Users
	validate, _ := testutil.NewValidator()

	return &commandLine{
		db:       new(sql.DB), // never dialed: migrations are mocked
		usrSvc:   user.NewService(usrRepo),
		validate: validate,
		out:      ioutil.Discard,
	}
}

// mockPasswords makes readPasswordFunc return pwds in order, then empty input.
func mockPasswords(pwds ...string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		gotCommand = command
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "discounts", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			gotCommand = ""
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
				assert.Equal(t, tt.args[1], gotCommand)
			}
		})
	}

	t.Run("no database", func(t *testing.T) {
		noDB := *cli
		noDB.db = nil
		assert.Equal(t, errNoDB, noDB.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "Taken", "taken", "taken@test.cd", "", []string{user.RoleTeacher}, true)

	const pwd = "Xq7#mRt2!vL"
	type extra struct {
		pwds    []string
		invalid bool
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-username", "jdoe", "-name", "Jane Doe"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "jdoe", "-name", "Jane Doe", "-role", user.RoleAdminAccountant}, wantErr: errHelp},
		{
			name:  "password mismatch",
			args:  []string{"adduser", "-username", "jdoe", "-name", "Jane Doe", "-role", user.RoleAdminAccountant},
			extra: extra{pwds: []string{pwd, "lol"}, invalid: true},
		},
		{
			name:  "weak password",
			args:  []string{"adduser", "-username", "jdoe", "-name", "Jane Doe", "-role", user.RoleAdminAccountant},
			extra: extra{pwds: []string{"lol", "lol"}, invalid: true},
		},
		{
			name:  "unknown role",
			args:  []string{"adduser", "-username", "jdoe", "-name", "Jane Doe", "-role", "lol"},
			extra: extra{pwds: []string{pwd, pwd}, invalid: true},
		},
		{
			name:  "username taken",
			args:  []string{"adduser", "-username", "taken", "-name", "Jane Doe", "-role", user.RoleAdminAccountant},
			extra: extra{pwds: []string{pwd, pwd}, invalid: true},
		},
		{
			name:  "created",
			args:  []string{"adduser", "-username", "JDoe", "-name", "Jane Doe", "-email", "jane@test.cd", "-role", user.RoleAdminAccountant, "-role", user.RoleTeacher},
			extra: extra{pwds: []string{pwd, pwd}},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ex, _ := tt.extra.(extra)
		mockPasswords(ex.pwds...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case ex.invalid:
				require.Error(t, err)
				_, isFieldErr := err.(validator.ValidationErrors)
				assert.True(t, isFieldErr || core.IsValidation(err), "unexpected error type %T: %v", err, err)
			default:
				require.NoError(t, err)
				usr, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), "jdoe")
				require.NoError(t, err)
				assert.Equal(t, "Jane Doe", usr.Name)
				assert.Equal(t, "jane@test.cd", usr.Email)
				assert.ElementsMatch(t, []string{user.RoleAdminAccountant, user.RoleTeacher}, usr.Roles)
				assert.True(t, usr.IsActive)
				assert.NoError(t, usr.CheckPassword(pwd))
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ex, ok := tt.extra.(extra)
		if ok {
			mockPasswords(ex.pwd)
		} else {
			mockPasswords()
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(ex.pwd))
		})
	}
}
