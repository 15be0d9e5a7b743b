package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsers(t *testing.T) (UserService, *testRepos) {
	repos := newRepos(t)
	userRepo := repository.NewUserRepository(repos.db)
	return NewUserService(userRepo, repos.historyRepo), repos
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newUsers(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		UserCode: "u1", Name: "사용자", Role: "superuser", Password: "secret",
	})
	assert.Error(t, err)

	// Branch role requires a branch code.
	_, err = svc.CreateUser(ctx, CreateUserRequest{
		UserCode: "u1", Name: "사용자", Role: model.RoleBranch, Password: "secret",
	})
	assert.Error(t, err)

	created, err := svc.CreateUser(ctx, CreateUserRequest{
		UserCode: "u1", Name: "사용자", Role: model.RoleBranch, BranchCode: "BR-01", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "BR-01", created.BranchCode)

	_, err = svc.CreateUser(ctx, CreateUserRequest{
		UserCode: "u1", Name: "중복", Role: model.RoleAdminCS, Password: "secret",
	})
	assert.Error(t, err, "duplicate user code must be rejected")
}

func TestLogin_RecordsHistory(t *testing.T) {
	svc, repos := newUsers(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		UserCode: "cs01", Name: "상담원", Role: model.RoleAdminCS, Password: "secret",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginUserRequest{UserCode: "cs01", Password: "wrong"}, "10.0.0.1")
	assert.Error(t, err)

	resp, err := svc.Login(ctx, LoginUserRequest{UserCode: "cs01", Password: "secret"}, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.False(t, resp.MustChangePassword)
	assert.Equal(t, "cs01", resp.User.UserCode)

	logins, total, err := repos.historyRepo.ListLogins(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "cs01", logins[0].UserCode)
	assert.Equal(t, "10.0.0.1", logins[0].ClientIP)
}

func TestResetAndChangePassword(t *testing.T) {
	svc, _ := newUsers(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		UserCode: "br01", Name: "지점", Role: model.RoleBranch, BranchCode: "BR-01", Password: "secret",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "br01"))

	resp, err := svc.Login(ctx, LoginUserRequest{UserCode: "br01", Password: DefaultPassword}, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, resp.MustChangePassword)

	err = svc.ChangePassword(ctx, "br01", ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "newpass",
	})
	assert.Error(t, err)

	err = svc.ChangePassword(ctx, "br01", ChangePasswordRequest{
		CurrentPassword: DefaultPassword, NewPassword: "newpass",
	})
	require.NoError(t, err)

	resp, err = svc.Login(ctx, LoginUserRequest{UserCode: "br01", Password: "newpass"}, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, resp.MustChangePassword)
}
