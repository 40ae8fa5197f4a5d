package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"seostrategy-go/internal/mockapi"
	"seostrategy-go/pkg/analysis"
	"seostrategy-go/pkg/api"
	"seostrategy-go/pkg/authapi"
	"seostrategy-go/pkg/export"
	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/session"
)

type harness struct {
	t       *testing.T
	app     *App
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	store   session.Store
	mock    *mockapi.Server
	baseURL string
	config  string
}

func startMock(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	srv := mockapi.New(mockapi.Config{Secret: "cli-test", BcryptCost: bcrypt.MinCost, Logger: logger.Nop()})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, "http://" + ln.Addr().String()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, baseURL := startMock(t)
	return newHarnessFor(t, srv, baseURL)
}

func newHarnessFor(t *testing.T, srv *mockapi.Server, baseURL string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "seostrategy.yaml")
	content := "api:\n  base_url: " + baseURL + "\n  timeout: 5s\nsession:\n  backend: memory\nlogger:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	h := &harness{
		t:       t,
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		store:   session.NewMemoryStore(),
		mock:    srv,
		baseURL: baseURL,
		config:  cfgPath,
	}
	h.app = &App{Out: h.out, Err: h.errOut, Store: h.store}
	return h
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	h.app.In = strings.NewReader(stdin)
	err := h.app.Run(context.Background(), append([]string{"--config", h.config}, args...))
	return h.out.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(h.t, err, "stderr: %s", h.errOut.String())
	return out
}

func (h *harness) seed(username, email, password string) {
	h.t.Helper()
	_, err := h.mock.AddUser(username, email, password, true)
	require.NoError(h.t, err)
}

func decodeJSON(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func TestLoginProfileLogout(t *testing.T) {
	h := newHarness(t)
	h.seed("jane", "jane@example.com", "correct-horse")

	out := h.mustRun("", "login", "-u", "jane", "-p", "correct-horse")
	assert.Contains(t, out, "Logged in as jane.")

	status := decodeJSON(t, h.mustRun("", "status", "-o", "json"))
	assert.Equal(t, "authenticated", status["state"])
	assert.Equal(t, "1", status["subject"])
	assert.Equal(t, false, status["expired"])
	assert.Equal(t, h.baseURL, status["base_url"])

	out = h.mustRun("", "profile", "show")
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "Verified:  true")

	updated := decodeJSON(t, h.mustRun("", "profile", "update", "--company", "Acme", "-o", "json"))
	assert.Equal(t, "Acme", updated["company"])
	assert.Equal(t, "jane", updated["username"])

	assert.Contains(t, h.mustRun("", "logout"), "Logged out.")
	status = decodeJSON(t, h.mustRun("", "status", "-o", "json"))
	assert.Equal(t, "anonymous", status["state"])
	assert.NotContains(t, status, "subject")
}

func TestLogin_PromptsForMissingValues(t *testing.T) {
	h := newHarness(t)
	h.seed("jane", "jane@example.com", "correct-horse")

	out := h.mustRun("jane@example.com\ncorrect-horse\n", "login")
	assert.Contains(t, out, "Logged in as jane@example.com.")
	assert.Contains(t, h.errOut.String(), "Password: ")
	assert.Equal(t, session.Authenticated, session.StateOf(context.Background(), h.store))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.seed("jane", "jane@example.com", "correct-horse")

	_, err := h.run("", "login", "-u", "jane", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, authapi.KindInvalidCredentials, authapi.KindOf(err))
	assert.Equal(t, "Invalid credentials", describeError(err))
	assert.Equal(t, session.Anonymous, session.StateOf(context.Background(), h.store))
}

func TestRegisterVerifyAndResetPassword(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "register", "--username", "sam", "--email", "sam@example.com", "--password", "longenough")
	assert.Contains(t, out, "Account created")
	assert.Equal(t, session.Anonymous, session.StateOf(context.Background(), h.store))

	_, err := h.run("", "register", "--username", "sam2", "--email", "sam@example.com", "--password", "longenough")
	require.Error(t, err)
	assert.Equal(t, authapi.KindValidationFailed, authapi.KindOf(err))
	assert.Equal(t, "Email already registered", describeError(err))

	token, ok := h.mock.MailedToken("sam@example.com")
	require.True(t, ok)
	assert.Contains(t, h.mustRun("", "verify-email", token), "Email verified.")
	_, err = h.run("", "verify-email", token)
	assert.Error(t, err)

	known := h.mustRun("", "forgot-password", "sam@example.com")
	unknown := h.mustRun("", "forgot-password", "ghost@example.com")
	assert.Equal(t, known, unknown)
	assert.Contains(t, known, authapi.ResetRequestedMessage)

	reset, ok := h.mock.MailedToken("sam@example.com")
	require.True(t, ok)
	require.NotEqual(t, token, reset)
	h.mustRun("", "reset-password", "--token", reset, "--password", "new-password-1")

	_, err = h.run("", "login", "-u", "sam", "-p", "longenough")
	assert.Error(t, err)
	h.mustRun("", "login", "-u", "sam", "-p", "new-password-1")
}

func TestSessionExpiryClearsStore(t *testing.T) {
	h := newHarness(t)
	h.seed("jane", "jane@example.com", "correct-horse")
	h.mustRun("", "login", "-u", "jane", "-p", "correct-horse")

	require.NoError(t, h.mock.RevokeTokens("jane"))
	_, err := h.run("", "profile", "show")
	require.Error(t, err)
	assert.True(t, authapi.IsSessionExpired(err))

	_, ok := h.store.AccessToken(context.Background())
	assert.False(t, ok)
	_, ok = h.store.RefreshToken(context.Background())
	assert.False(t, ok)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	h.seed("jane", "jane@example.com", "correct-horse")
	h.mustRun("", "login", "-u", "jane", "-p", "correct-horse")

	_, err := h.run("", "change-password", "--current", "nope", "--new", "battery-staple")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", describeError(err))

	h.mustRun("correct-horse\nbattery-staple\n", "change-password")
	h.mustRun("", "logout")
	h.mustRun("", "login", "-u", "jane", "-p", "battery-staple")
}

func TestAnalyze_Formats(t *testing.T) {
	h := newHarness(t)

	text := h.mustRun("", "analyze", "content", "strategy")
	assert.Contains(t, text, "Keyword: content strategy")
	assert.Contains(t, text, "Keyword metrics")
	assert.Contains(t, text, "Performance prediction")
	assert.NotContains(t, text, "DEMO DATA")

	doc := decodeJSON(t, h.mustRun("", "analyze", "content strategy", "-o", "json"))
	assert.Equal(t, "live", doc["provenance"])
	assert.Equal(t, "legacy", doc["shape"])
	assert.Equal(t, "content strategy", doc["keyword"])

	yamlOut := h.mustRun("", "analyze", "content strategy", "-o", "yaml")
	assert.Contains(t, yamlOut, "provenance: live")
	assert.Contains(t, yamlOut, "keyword: content strategy")
	assert.NotContains(t, yamlOut, `"provenance":`)
}

func TestAnalyze_WithBlueprint(t *testing.T) {
	h := newHarness(t)

	doc := decodeJSON(t, h.mustRun("", "analyze", "local seo", "--blueprint", "--project", "p1", "-o", "json"))
	bp := doc["blueprint"].(map[string]interface{})
	assert.Equal(t, true, bp["available"])
	assert.True(t, strings.HasPrefix(bp["blueprint_id"].(string), "bp_"))
	assert.Equal(t, "local seo", bp["target_keyword"])
}

func TestBlueprintCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "blueprint", "local", "seo", "-o", "yaml")
	assert.Contains(t, out, "target_keyword: local seo")
	assert.Contains(t, out, "status: completed")

	text := h.mustRun("", "blueprint", "local seo")
	assert.Contains(t, text, "Content Recommendation 1")
	assert.Contains(t, text, "- Step-by-step process")
}

func TestAnalyze_EmptyKeyword(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "analyze")
	assert.ErrorIs(t, err, analysis.ErrEmptyKeyword)

	_, err = h.run("\n  \n", "analyze", "--interactive")
	assert.ErrorIs(t, err, analysis.ErrEmptyKeyword)
}

func closedURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr
}

func TestAnalyze_UnreachableBackend(t *testing.T) {
	srv, _ := startMock(t)
	h := newHarnessFor(t, srv, closedURL(t))

	_, err := h.run("", "analyze", "seo")
	require.Error(t, err)
	assert.True(t, api.IsNetworkError(err))
	assert.Contains(t, describeError(err), "Cannot connect to the backend")

	out := h.mustRun("", "analyze", "seo", "--demo")
	assert.Contains(t, out, "DEMO DATA")
	assert.Contains(t, out, "Keyword: seo")

	doc := decodeJSON(t, h.mustRun("", "analyze", "seo", "--demo", "-o", "json"))
	assert.Equal(t, "demo", doc["provenance"])
}

func TestAnalyze_InteractiveShowsNewestLast(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("seo\n\nlocal seo\n", "analyze", "--interactive", "-o", "json")
	dec := json.NewDecoder(strings.NewReader(out))
	var keywords []string
	for {
		var doc map[string]interface{}
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		keywords = append(keywords, doc["keyword"].(string))
	}
	require.NotEmpty(t, keywords)
	assert.Equal(t, "local seo", keywords[len(keywords)-1])
	assert.LessOrEqual(t, len(keywords), 2)
}

func TestMetricsFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "cli.prom")

	h.mustRun("", "analyze", "seo", "--metrics-file", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `seostrategy_api_requests_total{endpoint="process",outcome="success"} 1`)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "status", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "boom", describeError(errors.New("boom")))
	assert.Equal(t, "Interrupted.", describeError(context.Canceled))
	assert.Equal(t, "Analysis failed: HTTP 502: bad gateway",
		describeError(&api.UpstreamError{Status: 502, Message: "bad gateway"}))
	assert.Equal(t, "Session expired. Please log in again.",
		describeError(&authapi.AuthError{Kind: authapi.KindSessionExpired, Message: "Session expired. Please log in again."}))
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "out")

	doc := decodeJSON(t, h.mustRun("", "export", "content strategy", "--format", "csv", "--dir", dir, "-o", "json"))
	assert.Equal(t, "csv", doc["format"])
	assert.Equal(t, "live", doc["provenance"])

	path := doc["path"].(string)
	assert.Equal(t, dir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "keyword,role,search_volume"))

	md := h.mustRun("", "export", "content strategy", "--stdout")
	assert.Contains(t, md, "# SEO analysis: content strategy")

	_, err = h.run("", "export", "content strategy", "--format", "pdf", "--dir", dir)
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
