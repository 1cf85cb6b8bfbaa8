package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/nearmarket/nearmarket-backend/pkg/auth"
	"github.com/nearmarket/nearmarket-backend/pkg/config"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	"github.com/nearmarket/nearmarket-backend/pkg/logger"
)

func TestAuthMiddleware(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	cfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "nearmarket-test",
		ExpirationMinutes: 15,
	}
	userID := uuid.New()

	var seenUserID, seenRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		seenRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(cfg, logg)(next)

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without credentials, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
		}
	})

	t.Run("valid token seeds context", func(t *testing.T) {
		token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
			UserID: userID,
			Role:   enums.UserRoleVendor,
		})
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 with valid token, got %d", rec.Code)
		}
		if seenUserID != userID.String() {
			t.Fatalf("expected user id %s in context, got %q", userID, seenUserID)
		}
		if seenRole != string(enums.UserRoleVendor) {
			t.Fatalf("expected vendor role in context, got %q", seenRole)
		}
	})
}

func TestRequireRole(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(enums.UserRoleAdmin, logg)(next)

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleCustomer)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for wrong role, got %d", rec.Code)
		}
	})

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleAdmin)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for matching role, got %d", rec.Code)
		}
	})
}
