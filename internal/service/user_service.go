package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"context"
	"errors"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is assigned on admin resets; the user must change it at
// the next login.
const DefaultPassword = "0000"

// DTOs for Request validation
type CreateUserRequest struct {
	UserCode   string `json:"user_code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role" binding:"required"`
	BranchCode string `json:"branch_code"`
	Password   string `json:"password" binding:"required,min=4"`
}

type UpdateUserRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	BranchCode string `json:"branch_code"`
}

type LoginUserRequest struct {
	UserCode string `json:"user_code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=4"`
}

type LoginResponse struct {
	Token              string `json:"token"`
	MustChangePassword bool   `json:"must_change_password"`
	User               *UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	UserCode           string    `json:"user_code"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	BranchCode         string    `json:"branch_code"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          string    `json:"created_at"`
	UpdatedAt          string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest, clientIP string) (*LoginResponse, error)
	ChangePassword(ctx context.Context, userCode string, req ChangePasswordRequest) error
	ResetPassword(ctx context.Context, userCode string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int, role string) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo        repository.UserRepository
	historyRepo repository.HistoryRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, historyRepo repository.HistoryRepository) UserService {
	return &userService{repo: repo, historyRepo: historyRepo}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleAdminCS || role == model.RoleAdminQuality || role == model.RoleBranch
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:                 user.ID,
		UserCode:           user.UserCode,
		Name:               user.Name,
		Role:               user.Role,
		BranchCode:         user.BranchCode,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !validateRole(req.Role) {
		return nil, errors.New("invalid role: must be admin_cs, admin_quality, or branch")
	}
	if req.Role == model.RoleBranch && req.BranchCode == "" {
		return nil, errors.New("branch users require a branch code")
	}

	if _, err := s.repo.GetByUserCode(ctx, req.UserCode); err == nil {
		return nil, errors.New("user code already exists")
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		UserCode:   req.UserCode,
		Name:       req.Name,
		Role:       req.Role,
		BranchCode: req.BranchCode,
		Password:   string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest, clientIP string) (*LoginResponse, error) {
	user, err := s.repo.GetByUserCode(ctx, req.UserCode)
	if err != nil {
		return nil, errors.New("invalid user code or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid user code or password")
	}

	// Generate JWT Token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    user.ID.String(),
		"code":   user.UserCode,
		"role":   user.Role,
		"branch": user.BranchCode,
	})

	// Use same fallback strategy as middleware for simplicity here or get from env centrally
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	entry := &model.LoginHistory{
		UserCode: user.UserCode,
		Role:     user.Role,
		ClientIP: clientIP,
	}
	if err := s.historyRepo.LogLogin(ctx, entry); err != nil {
		return nil, errors.New("failed to record login")
	}

	return &LoginResponse{
		Token:              tokenString,
		MustChangePassword: user.MustChangePassword,
		User:               mapToResponse(user),
	}, nil
}

func (s *userService) ChangePassword(ctx context.Context, userCode string, req ChangePasswordRequest) error {
	user, err := s.repo.GetByUserCode(ctx, userCode)
	if err != nil {
		return errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return errors.New("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user.Password = string(hashedPassword)
	user.MustChangePassword = false
	return s.repo.Update(ctx, user)
}

// ResetPassword sets the default password and forces a change at next login.
func (s *userService) ResetPassword(ctx context.Context, userCode string) error {
	user, err := s.repo.GetByUserCode(ctx, userCode)
	if err != nil {
		return errors.New("user not found")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user.Password = string(hashedPassword)
	user.MustChangePassword = true
	return s.repo.Update(ctx, user)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int, role string) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit, role)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, errors.New("invalid role: must be admin_cs, admin_quality, or branch")
		}
		user.Role = req.Role
	}

	if req.Name != "" {
		user.Name = req.Name
	}

	if req.BranchCode != "" {
		user.BranchCode = req.BranchCode
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}
	return s.repo.Delete(ctx, id)
}
