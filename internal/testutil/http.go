package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/jwt"
)

// Bearer returns an Authorization header value carrying a fresh access token for s.
func Bearer(t *testing.T, s *models.Subscriber) string {
	t.Helper()
	token, err := jwt.Sign(s.ID, s.Email, jwt.AccessTokenTTL)
	require.NoError(t, err)
	return "Bearer " + token
}

// Do serves a JSON request through r. A nil body sends no payload; an empty
// auth sends no Authorization header.
func Do(r *gin.Engine, method, path string, body interface{}, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a JSON object response body.
func Decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
