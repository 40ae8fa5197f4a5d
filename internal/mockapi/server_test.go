package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/normalizer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost, Logger: logger.Nop()})
}

func call(t *testing.T, s *Server, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, s *Server, body string) string {
	t.Helper()
	status, out := call(t, s, http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusOK, status, out)
	return out["access_token"].(string)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	_, err := s.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"by email", `{"email":"jane@example.com","password":"correct-horse"}`, http.StatusOK},
		{"by username", `{"username":"jane","password":"correct-horse"}`, http.StatusOK},
		{"email case-insensitive", `{"email":"JANE@example.com","password":"correct-horse"}`, http.StatusOK},
		{"wrong password", `{"email":"jane@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"bob","password":"correct-horse"}`, http.StatusUnauthorized},
		{"missing fields", `{"password":"x"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := call(t, s, http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.status, status)
			if status == http.StatusOK {
				assert.NotEmpty(t, out["access_token"])
				assert.NotEmpty(t, out["refresh_token"])
			} else {
				assert.NotEmpty(t, out["error"])
			}
		})
	}
}

func TestRegisterVerifyAndProfile(t *testing.T) {
	s := newTestServer(t)

	status, out := call(t, s, http.MethodPost, "/api/auth/register", "",
		`{"username":"sam","email":"sam@example.com","password":"longenough","company":"Acme"}`)
	require.Equal(t, http.StatusCreated, status, out)
	assert.NotContains(t, out, "access_token")

	status, out = call(t, s, http.MethodPost, "/api/auth/register", "",
		`{"username":"sam2","email":"sam@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", out["error"])

	status, _ = call(t, s, http.MethodPost, "/api/auth/register", "",
		`{"username":"x","email":"x@example.com","password":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	token := login(t, s, `{"email":"sam@example.com","password":"longenough"}`)
	status, out = call(t, s, http.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, status)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, false, user["is_verified"])
	assert.Equal(t, "Acme", user["company"])
	assert.NotContains(t, user, "first_name")

	verification, ok := s.MailedToken("sam@example.com")
	require.True(t, ok)
	status, _ = call(t, s, http.MethodPost, "/api/auth/verify-email", "", `{"verification_token":"`+verification+`"}`)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, s, http.MethodPost, "/api/auth/verify-email", "", `{"verification_token":"`+verification+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	_, out = call(t, s, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, true, out["user"].(map[string]interface{})["is_verified"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	_, err := s.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)

	status, _ := call(t, s, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, s, http.MethodGet, "/api/auth/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	other := New(Config{Secret: "other-secret", BcryptCost: bcrypt.MinCost, Logger: logger.Nop()})
	_, err = other.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)
	foreign := login(t, other, `{"username":"jane","password":"correct-horse"}`)
	status, _ = call(t, s, http.MethodGet, "/api/auth/me", foreign, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestExpiredAndRevokedTokens(t *testing.T) {
	s := New(Config{Secret: "s", TokenTTL: time.Millisecond, BcryptCost: bcrypt.MinCost, Logger: logger.Nop()})
	_, err := s.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)
	token := login(t, s, `{"username":"jane","password":"correct-horse"}`)
	time.Sleep(1100 * time.Millisecond)
	status, _ := call(t, s, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	s = newTestServer(t)
	_, err = s.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)
	token = login(t, s, `{"username":"jane","password":"correct-horse"}`)
	require.NoError(t, s.RevokeTokens("jane"))
	status, _ = call(t, s, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Error(t, s.RevokeTokens("nobody"))
}

func TestForgotAndResetPassword(t *testing.T) {
	s := newTestServer(t)
	_, err := s.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)

	known, knownBody := call(t, s, http.MethodPost, "/api/auth/forgot-password", "", `{"email":"jane@example.com"}`)
	unknown, unknownBody := call(t, s, http.MethodPost, "/api/auth/forgot-password", "", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, known)
	assert.Equal(t, known, unknown)
	assert.Equal(t, knownBody, unknownBody)
	_, ok := s.MailedToken("ghost@example.com")
	assert.False(t, ok)

	reset, ok := s.MailedToken("jane@example.com")
	require.True(t, ok)
	status, _ := call(t, s, http.MethodPost, "/api/auth/reset-password", "",
		`{"reset_token":"`+reset+`","new_password":"battery-staple"}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, s, http.MethodPost, "/api/auth/login", "", `{"username":"jane","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	login(t, s, `{"username":"jane","password":"battery-staple"}`)

	status, out := call(t, s, http.MethodPost, "/api/auth/reset-password", "",
		`{"reset_token":"`+reset+`","new_password":"another-one"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired reset token", out["error"])
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	s := newTestServer(t)
	_, err := s.AddUser("jane", "jane@example.com", "correct-horse", true)
	require.NoError(t, err)
	_, err = s.AddUser("bob", "bob@example.com", "correct-horse", true)
	require.NoError(t, err)
	token := login(t, s, `{"username":"jane","password":"correct-horse"}`)

	status, out := call(t, s, http.MethodPut, "/api/auth/me", token, `{"first_name":"Jane","company":"Acme"}`)
	require.Equal(t, http.StatusOK, status)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, "Jane", user["first_name"])
	assert.Equal(t, "jane", user["username"])

	status, _ = call(t, s, http.MethodPut, "/api/auth/me", token, `{"username":"bob"}`)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = call(t, s, http.MethodPut, "/api/auth/me", token, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, out = call(t, s, http.MethodPost, "/api/auth/change-password", token,
		`{"current_password":"wrong","new_password":"battery-staple"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Current password is incorrect", out["error"])

	status, _ = call(t, s, http.MethodPost, "/api/auth/change-password", token,
		`{"current_password":"correct-horse","new_password":"battery-staple"}`)
	require.Equal(t, http.StatusOK, status)
	login(t, s, `{"username":"jane","password":"battery-staple"}`)
}

func TestAnalysisEndpointsProduceKnownShapes(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`{"input":"local seo","domain":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	a, err := normalizer.Normalize(body)
	require.NoError(t, err)
	assert.Equal(t, normalizer.ShapeLegacy, a.Shape)
	assert.Equal(t, "local seo", a.Keyword)

	req = httptest.NewRequest(http.MethodPost, "/api/blueprints/generate", strings.NewReader(`{"keyword":"local seo"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	bp, err := normalizer.NormalizeBlueprint(body)
	require.NoError(t, err)
	assert.True(t, bp.Available)
	assert.Equal(t, "local seo", bp.TargetKeyword)
	assert.Equal(t, normalizer.ShapeBlueprint, bp.Shape)
	assert.Len(t, bp.Recommendations, 3)
	assert.Len(t, bp.Outline.Subsections, 4)

	status, out := call(t, s, http.MethodPost, "/api/process", "", `{"input":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "input is required", out["error"])
}
