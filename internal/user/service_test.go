package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

type memQueries struct {
	mu   sync.Mutex
	rows map[uuid.UUID]dbgen.User
}

func newMemQueries() *memQueries {
	return &memQueries{rows: map[uuid.UUID]dbgen.User{}}
}

func (m *memQueries) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memQueries) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == arg.Email {
			return dbgen.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	row := dbgen.User{
		ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Age:          arg.Age,
		Role:         arg.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.rows[row.ID.Bytes] = row
	return row, nil
}

func (m *memQueries) DeleteUser(_ context.Context, id pgtype.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id.Bytes]; !ok {
		return 0, nil
	}
	delete(m.rows, id.Bytes)
	return 1, nil
}

func (m *memQueries) GetUser(_ context.Context, id pgtype.UUID) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id.Bytes]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *memQueries) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == email {
			return row, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (m *memQueries) ListUsers(_ context.Context, arg dbgen.ListUsersParams) ([]dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dbgen.User, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	start := int(arg.OffsetValue)
	if start > len(out) {
		start = len(out)
	}
	end := start + int(arg.LimitValue)
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

var fastParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newService() (*Service, *memQueries) {
	q := newMemQueries()
	return &Service{Q: q, Params: fastParams}, q
}

func TestCreateNormalisesAndHashes(t *testing.T) {
	svc, q := newService()
	out, err := svc.Create(context.Background(), Input{Name: " Iryna ", Email: " Iryna@Example.COM ", Password: "sweet-tooth", Age: 31}, false)
	require.NoError(t, err)
	require.Equal(t, "iryna@example.com", out.Email)
	require.Equal(t, "Iryna", out.Name)
	require.Equal(t, common.RoleUser, out.Role)
	require.EqualValues(t, 31, out.Age)

	stored, err := q.GetUserByEmail(context.Background(), "iryna@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "sweet-tooth", stored.PasswordHash)
	ok, err := argon2id.ComparePasswordAndHash("sweet-tooth", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreateRoleRequiresPrivilege(t *testing.T) {
	svc, _ := newService()
	out, err := svc.Create(context.Background(), Input{Email: "a@example.com", Password: "password1", Role: "admin"}, false)
	require.NoError(t, err)
	require.Equal(t, common.RoleUser, out.Role)

	out, err = svc.Create(context.Background(), Input{Email: "b@example.com", Password: "password1", Role: "admin"}, true)
	require.NoError(t, err)
	require.Equal(t, common.RoleAdmin, out.Role)

	_, err = svc.Create(context.Background(), Input{Email: "c@example.com", Password: "password1", Role: "root"}, true)
	require.Error(t, err)
}

func TestCreateRejectsDuplicateAndInvalid(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Create(context.Background(), Input{Email: "dup@example.com", Password: "password1"}, false)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Input{Email: "DUP@example.com", Password: "password1"}, false)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)

	_, err = svc.Create(context.Background(), Input{Email: "short@example.com", Password: "123"}, false)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = svc.Create(context.Background(), Input{Email: "nope", Password: "password1"}, false)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestHandlersRoundTrip(t *testing.T) {
	svc, _ := newService()
	h := &Handler{Service: svc}
	r := chi.NewRouter()
	r.Post("/users", h.Create)
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Get)
	r.Delete("/users/{id}", h.Delete)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Max","email":"max@example.com","password":"password1","role":"admin"}`))
	req = req.WithContext(common.WithRole(req.Context(), common.RoleAdmin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"admin"`)
	require.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	users, _, err := svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	id := users[0].ID

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
