package docs

import (
	"docauth/internal/models"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "archived", wantStatus: http.StatusNoContent},
		{name: "not owner", err: fmt.Errorf("verificationService/ArchiveDocument: %w", models.ErrNotOwner), wantStatus: http.StatusForbidden},
		{name: "not found", err: models.ErrDocumentNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc1", nil)
			ctx := withUser(req.Context(), testUser())
			w := httptest.NewRecorder()

			dd := new(mockDocDeleter)
			dd.On("DeleteDocument", mock.Anything, "doc1", testUser()).Return(tt.err)

			Delete(ctx, discardLogger(), w, req.WithContext(ctx), "doc1", dd)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.err == nil {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}
