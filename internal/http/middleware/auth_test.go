package middleware

import (
	"context"
	"docauth/internal/models"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSessionStorer struct {
	mock.Mock
}

func (m *mockSessionStorer) UserByToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "u1", Login: "reviewer1", OrganizationID: "org-a"}

	tests := []struct {
		name       string
		target     string
		header     string
		storeToken string
		storeErr   error
		wantStatus int
	}{
		{
			name:       "bearer header",
			target:     "/api/documents",
			header:     "Bearer tok-1",
			storeToken: "tok-1",
			wantStatus: http.StatusOK,
		},
		{
			name:       "query parameter",
			target:     "/api/documents?token=tok-2",
			storeToken: "tok-2",
			wantStatus: http.StatusOK,
		},
		{
			name:       "header wins over query",
			target:     "/api/documents?token=tok-q",
			header:     "Bearer tok-h",
			storeToken: "tok-h",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			target:     "/api/documents",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown session",
			target:     "/api/documents?token=stale",
			storeToken: "stale",
			storeErr:   models.ErrInvalidCredentials,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			storer := new(mockSessionStorer)
			if tt.storeToken != "" {
				var found *models.User
				if tt.storeErr == nil {
					found = user
				}
				storer.On("UserByToken", mock.Anything, tt.storeToken).Return(found, tt.storeErr)
			}

			var seen *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = Requester(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Auth(discard(), storer)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, user, seen)
			} else {
				assert.Nil(t, seen)
			}
			storer.AssertExpectations(t)
		})
	}
}

func TestRequester_Missing(t *testing.T) {
	t.Parallel()

	user, ok := Requester(context.Background())

	assert.False(t, ok)
	assert.Nil(t, user)
}
