package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

// Queries is the subset of generated queries used for accounts.
type Queries interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error)
	DeleteUser(ctx context.Context, id pgtype.UUID) (int64, error)
	GetUser(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	GetUserByEmail(ctx context.Context, email string) (dbgen.User, error)
	ListUsers(ctx context.Context, arg dbgen.ListUsersParams) ([]dbgen.User, error)
}

// User is the public view of an account. The password hash never leaves the service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int32     `json:"age"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input is the payload for creating an account.
type Input struct {
	Name     string `json:"name" validate:"max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Age      int32  `json:"age" validate:"gte=0,lte=150"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Service manages user accounts.
type Service struct {
	Q      Queries
	Params *argon2id.Params
}

// Create hashes the password and stores the account. Only callers that pass
// allowRole may create admins; everyone else gets the user role.
func (s *Service) Create(ctx context.Context, in Input, allowRole bool) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := common.ValidateStruct(in); err != nil {
		return User{}, err
	}
	role := common.RoleUser
	if allowRole && in.Role != "" {
		role = in.Role
	}
	params := s.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	hash, err := argon2id.CreateHash(in.Password, params)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	row, err := s.Q.CreateUser(ctx, dbgen.CreateUserParams{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          pgtype.Int4{Int32: in.Age, Valid: true},
		Role:         role,
	})
	if err != nil {
		if common.IsUniqueViolation(err) {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return toDTO(row), nil
}

// List returns a page of users and the total count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.Q.ListUsers(ctx, dbgen.ListUsersParams{
		OffsetValue: int32((page - 1) * perPage),
		LimitValue:  int32(perPage),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	total, err := s.Q.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, total, nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return User{}, common.NotFound("user", err)
	}
	row, err := s.Q.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, common.NotFound("user", err)
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return toDTO(row), nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return common.NotFound("user", err)
	}
	n, err := s.Q.DeleteUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return common.NotFound("user", pgx.ErrNoRows)
	}
	return nil
}

func toDTO(row dbgen.User) User {
	return User{
		ID:        common.UUIDString(row.ID),
		Name:      row.Name,
		Email:     row.Email,
		Age:       row.Age.Int32,
		Role:      row.Role,
		CreatedAt: common.Time(row.CreatedAt),
		UpdatedAt: common.Time(row.UpdatedAt),
	}
}
