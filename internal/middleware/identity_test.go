package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laklak-api/internal/model"
)

func TestIdentityResolvesActor(t *testing.T) {
	var got model.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetActor(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "7")
	req.Header.Set("X-User-Role", model.RoleSupplier)
	rec := httptest.NewRecorder()

	Identity(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, model.RoleSupplier, got.Role)
}

func TestIdentityRejectsBadHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	cases := []struct {
		name string
		id   string
		role string
	}{
		{"missing id", "", model.RoleSupplier},
		{"non-numeric id", "abc", model.RoleSupplier},
		{"zero id", "0", model.RoleSupplier},
		{"missing role", "7", ""},
		{"unknown role", "7", "intruder"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.id != "" {
				req.Header.Set("X-User-ID", tc.id)
			}
			if tc.role != "" {
				req.Header.Set("X-User-Role", tc.role)
			}
			rec := httptest.NewRecorder()

			Identity(next).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetActorZeroValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, model.Actor{}, GetActor(req.Context()))
}
