package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/tests"
)

const strongPwd = "Xq7#mRt2!vL"

func TestNewUser_Validate(t *testing.T) {
	repos := testutil.OpenRepos()
	svc := user.NewService(repos.Users)
	validate, translator := testutil.NewValidator()
	testutil.CreateUser(t, repos.Users, "Taken", "taken", "taken@test.cd", strongPwd, []string{user.RoleTeacher}, true)

	valid := func() user.NewUser {
		return user.NewUser{
			Name: "Jane Doe", Username: "  JDoe ", Email: "JDOE@test.cd",
			Password: strongPwd, PasswordConfirm: strongPwd, Roles: []string{user.RoleAdminAccountant},
		}
	}

	tests := []struct {
		name      string
		mutate    func(nu *user.NewUser)
		wantField string
		wantMsg   string
	}{
		{name: "valid"},
		{name: "short password", mutate: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Aa1!", "Aa1!" }, wantField: "password", wantMsg: "password must contain at least 8 characters"},
		{name: "numeric password", mutate: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "12345678", "12345678" }, wantField: "password", wantMsg: "password cannot be entirely numeric"},
		{name: "simple password", mutate: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "password1", "password1" }, wantField: "password"},
		{name: "password like email", mutate: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Jdoe@test.cd1", "Jdoe@test.cd1" }, wantField: "password", wantMsg: "password cannot be similar to user attributes"},
		{name: "mismatch", mutate: func(nu *user.NewUser) { nu.PasswordConfirm = strongPwd + "x" }, wantField: "password_confirm"},
		{name: "unknown role", mutate: func(nu *user.NewUser) { nu.Roles = []string{"admin:janitor"} }, wantField: "roles", wantMsg: "invalid roles"},
		{name: "bad username", mutate: func(nu *user.NewUser) { nu.Username = "j-doe" }, wantField: "username"},
		{name: "username taken", mutate: func(nu *user.NewUser) { nu.Username = "TAKEN" }, wantField: "username", wantMsg: user.ErrUsernameExists.Error()},
		{name: "email taken", mutate: func(nu *user.NewUser) { nu.Email = "taken@test.cd" }, wantField: "email", wantMsg: user.ErrEmailExists.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			if tt.mutate != nil {
				tt.mutate(&nu)
			}
			err := nu.Validate(context.Background(), validate, svc)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "jdoe", nu.Username)
				assert.Equal(t, "jdoe@test.cd", nu.Email)
				return
			}
			require.Error(t, err)

			var field, msg string
			switch e := errors.Cause(err).(type) {
			case validator.ValidationErrors:
				field, msg = e[0].Field(), e[0].Translate(translator)
			case *core.ValidationError:
				field, msg = e.Fields[0].Field, e.Fields[0].Error
			default:
				t.Fatalf("unexpected error %T: %v", err, err)
			}
			assert.Equal(t, tt.wantField, field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, msg)
			}
		})
	}
}

func Test_service(t *testing.T) {
	repos := testutil.OpenRepos()
	svc := user.NewService(repos.Users)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Name: "Kay", Username: "kay", Email: "kay@test.cd", Password: strongPwd, Roles: []string{user.RoleTeacher}})
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsTeacher())
	assert.False(t, usr.IsAdmin())
	require.NoError(t, usr.CheckPassword(strongPwd))

	t.Run("lookup is case insensitive", func(t *testing.T) {
		got, err := svc.GetByUsernameOrEmail(ctx, " KAY@test.cd ")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)
	})

	t.Run("last login", func(t *testing.T) {
		got, err := svc.SetLastLogin(ctx, usr)
		require.NoError(t, err)
		assert.False(t, got.LastLogin.IsZero())
		stored, err := svc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.LastLogin.Equal(stored.LastLogin))
	})

	t.Run("reset password", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, "kay", "N3w&Secret"))
		stored, err := svc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, stored.CheckPassword("N3w&Secret"))
		assert.Error(t, stored.CheckPassword(strongPwd))

		assert.Equal(t, user.ErrNotFound, errors.Cause(svc.ResetPassword(ctx, "nobody", "N3w&Secret")))
	})

	t.Run("filter", func(t *testing.T) {
		users, err := svc.Filter(ctx, user.QueryFilter{Search: " ka "})
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestPermissions(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		perm    string
		granted bool
	}{
		{name: "owner manages users", roles: []string{user.RoleAdminOwner}, perm: user.PermManageUsers, granted: true},
		{name: "principal does not", roles: []string{user.RoleAdminPrincipal}, perm: user.PermManageUsers},
		{name: "accountant collects", roles: []string{user.RoleAdminAccountant}, perm: user.PermCollectStudentFees, granted: true},
		{name: "principal does not collect", roles: []string{user.RoleAdminPrincipal}, perm: user.PermCollectStudentFees},
		{name: "principal promotes", roles: []string{user.RoleAdminPrincipal}, perm: user.PermPromoteStudent, granted: true},
		{name: "accountant does not promote", roles: []string{user.RoleAdminAccountant}, perm: user.PermPromoteStudent},
		{name: "teacher views promotions", roles: []string{user.RoleTeacher}, perm: user.PermViewStudentPromotion, granted: true},
		{name: "teacher cannot see fees", roles: []string{user.RoleTeacher}, perm: user.PermViewStudentFees},
		{name: "roles add up", roles: []string{user.RoleTeacher, user.RoleAdminAccountant}, perm: user.PermViewStudentPromotion, granted: true},
		{name: "unknown role", roles: []string{"janitor"}, perm: user.PermViewStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.granted, user.HasPermission(tt.roles, tt.perm))
		})
	}

	assert.Equal(t, user.AllPermissions, user.Permissions([]string{user.RoleAdminOwner}))
	assert.Empty(t, user.Permissions(nil))
	assert.Equal(t, 30, user.MaxRolePriority([]string{user.RoleTeacher, user.RoleAdminOwner}))
}
