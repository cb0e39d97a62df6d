package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorUsesAppErrorMetadata(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("wrapped: %w", NotFound("candy", errors.New("no rows"))))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, "candy not found", body.Error.Message)
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("db exploded"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "exploded")
}

func TestValidateStructReportsFields(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	}
	err := ValidateStruct(payload{Email: "nope"})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	fields := appErr.Details.(map[string]any)["fields"].([]map[string]string)
	require.Len(t, fields, 2)
	require.Equal(t, "name", fields[0]["field"])
	require.Equal(t, "email", fields[1]["field"])

	require.NoError(t, ValidateStruct(payload{Name: "ok"}))
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("other")))
}

func TestUUIDRoundTrip(t *testing.T) {
	id, err := ParseUUID("6F9619FF-8B86-D011-B42D-00C04FC964FF")
	require.NoError(t, err)
	require.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", UUIDString(id))

	_, err = ParseUUID("not-a-uuid")
	require.Error(t, err)
}

func TestReadPageClampsAndDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/candies?page=0&limit=5000", nil)
	p := ReadPage(req, 20, 100)
	require.Equal(t, Page{Number: 1, Size: 100}, p)

	req = httptest.NewRequest(http.MethodGet, "/candies?page=3&limit=abc", nil)
	p = ReadPage(req, 20, 100)
	require.Equal(t, Page{Number: 3, Size: 20}, p)
	require.Equal(t, 40, p.Offset())

	meta := Page{Number: 2, Size: 20}.Meta(41)
	require.Equal(t, Pagination{Page: 2, PerPage: 20, TotalItems: 41, TotalPages: 3}, meta)
}

func TestWriteListSetsTotalHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteList(rec, []string{"Barbaris"}, Page{Number: 1, Size: 10}.Meta(1))
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	require.JSONEq(t, `{"data":["Barbaris"],"pagination":{"page":1,"per_page":10,"total_items":1,"total_pages":1}}`, rec.Body.String())
}

func TestJSONKeepsAmpersands(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"name": "Milk & Honey"})
	require.Contains(t, rec.Body.String(), "Milk & Honey")
}

func TestOutboxRecordsCopies(t *testing.T) {
	var o Outbox
	require.NoError(t, o.Send("a@example.com", "Order", "<p>1</p>"))
	sent := o.Sent()
	sent[0].To = "changed"
	require.Equal(t, "a@example.com", o.Sent()[0].To)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.1, 70.41.3.18"}, "192.0.2.1:1234", "203.0.113.1"},
		{"forwarded skips junk hop", map[string]string{"X-Forwarded-For": "unknown, 70.41.3.18"}, "192.0.2.1:1234", "70.41.3.18"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "192.0.2.1:1234", "198.51.100.2"},
		{"mapped v4", map[string]string{"X-Real-IP": "::ffff:198.51.100.9"}, "192.0.2.1:1234", "198.51.100.9"},
		{"remote addr fallback", nil, "198.51.100.3:8080", "198.51.100.3"},
		{"remote addr without port", nil, "198.51.100.4", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remoteAddr
			require.Equal(t, tt.want, ClientIP(req))
		})
	}
}
