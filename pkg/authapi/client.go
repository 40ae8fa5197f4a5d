package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"seostrategy-go/pkg/api"
	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/metrics"
	"seostrategy-go/pkg/session"
)

const DefaultBasePath = "/api/auth"

type Options struct {
	BasePath string // defaults to /api/auth
	Logger   *logger.Logger
	Metrics  *metrics.Recorder
}

// Client calls the account API. Tokens live in the injected session.Store;
// the client holds no session state of its own.
type Client struct {
	doer     api.Doer
	store    session.Store
	basePath string
	log      *logger.Logger
	secure   *logger.SecurityLogger
	metrics  *metrics.Recorder
}

func NewClient(doer api.Doer, store session.Store, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.Component("auth_client")
	base := strings.TrimRight(opts.BasePath, "/")
	if base == "" {
		base = DefaultBasePath
	}
	return &Client{
		doer:     doer,
		store:    store,
		basePath: base,
		log:      log,
		secure:   logger.NewSecurityLogger(log),
		metrics:  opts.Metrics,
	}
}

// Login authenticates with an email or username. Exactly one of the two is
// sent, chosen by whether identifier contains "@".
func (c *Client) Login(ctx context.Context, identifier, password string) (*session.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, validationError("Identifier and password are required.")
	}

	body := loginRequest{Password: password}
	if strings.Contains(identifier, "@") {
		body.Email = identifier
	} else {
		body.Username = identifier
	}

	resp, err := c.send(ctx, http.MethodPost, "/login", "login", body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		c.secure.SafeWarn("Login rejected", map[string]interface{}{"identifier": identifier, "status": resp.StatusCode})
		msg := api.ErrorMessage(resp.Body)
		if msg == "" {
			msg = msgInvalidCredentials
		}
		return nil, &AuthError{Kind: KindInvalidCredentials, Message: msg, Status: resp.StatusCode}
	}

	var tokens tokenResponse
	if err := json.Unmarshal(resp.Body, &tokens); err != nil || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, &AuthError{Kind: KindUnknown, Message: "Login response did not include a session.", Status: resp.StatusCode}
	}
	if err := c.store.SetTokens(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	c.metrics.SessionTransition(string(session.Authenticated))
	c.secure.SafeInfo("Logged in", map[string]interface{}{"identifier": identifier, "access_token": tokens.AccessToken})
	return &session.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return validationError("Username, email and password are required.")
	}
	resp, err := c.send(ctx, http.MethodPost, "/register", "register", req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return failure(resp, "Please check your details.")
	}
	c.secure.SafeInfo("Account registered", map[string]interface{}{"email": req.Email})
	return nil
}

// RequestPasswordReset asks for a reset link. Accepted requests always yield
// ResetRequestedMessage; a 404 for an unknown address is reported the same
// way so the result never reveals whether the email is registered.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", validationError("Email is required.")
	}
	resp, err := c.send(ctx, http.MethodPost, "/forgot-password", "forgot_password", forgotPasswordRequest{Email: email})
	if err != nil {
		return "", err
	}
	if resp.OK() || resp.StatusCode == http.StatusNotFound {
		c.secure.SafeDebug("Password reset requested", map[string]interface{}{"email": email, "status": resp.StatusCode})
		return ResetRequestedMessage, nil
	}
	return "", failure(resp, "Could not process request.")
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return validationError("Reset token and new password are required.")
	}
	body := resetPasswordRequest{ResetToken: resetToken, NewPassword: newPassword}
	resp, err := c.send(ctx, http.MethodPost, "/reset-password", "reset_password", body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return failure(resp, "Could not reset password.")
	}
	return nil
}

// VerifyEmail confirms an address. It does not authenticate.
func (c *Client) VerifyEmail(ctx context.Context, verificationToken string) error {
	if verificationToken == "" {
		return validationError("Verification token is required.")
	}
	body := verifyEmailRequest{VerificationToken: verificationToken}
	resp, err := c.send(ctx, http.MethodPost, "/verify-email", "verify_email", body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return failure(resp, "Could not verify email.")
	}
	return nil
}

// AuthorizedRequest sends req with the stored bearer token, or without
// one when the store is empty. A 401 is returned to the caller as-is.
func (c *Client) AuthorizedRequest(ctx context.Context, req *api.Request) (*api.Response, error) {
	out := *req
	out.Headers = make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		out.Headers[k] = v
	}
	if token, ok := c.store.AccessToken(ctx); ok {
		out.Headers["Authorization"] = "Bearer " + token
	}
	return c.doer.Do(ctx, &out)
}

// GetProfile fetches the current user. A 401 clears the session and
// returns KindSessionExpired.
func (c *Client) GetProfile(ctx context.Context) (*UserProfile, error) {
	resp, err := c.protected(ctx, http.MethodGet, "/me", "get_profile", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure(resp, "Failed to load profile.")
	}
	return decodeUser(resp)
}

func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (*UserProfile, error) {
	if patch.Empty() {
		return nil, validationError("Nothing to update.")
	}
	resp, err := c.protected(ctx, http.MethodPut, "/me", "update_profile", patch)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure(resp, "Could not update profile.")
	}
	return decodeUser(resp)
}

func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	if current == "" || newPassword == "" {
		return validationError("Current and new password are required.")
	}
	body := changePasswordRequest{CurrentPassword: current, NewPassword: newPassword}
	resp, err := c.protected(ctx, http.MethodPost, "/change-password", "change_password", body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return failure(resp, "Could not change password.")
	}
	return nil
}

// Logout drops the stored session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.ClearTokens(ctx); err != nil {
		return err
	}
	c.metrics.SessionTransition(string(session.Anonymous))
	c.log.Debug("Logged out")
	return nil
}

func (c *Client) State(ctx context.Context) session.State {
	return session.StateOf(ctx, c.store)
}

// protected performs an authorized call and applies the expiry policy:
// a 401 clears the store and becomes KindSessionExpired.
func (c *Client) protected(ctx context.Context, method, path, endpoint string, body interface{}) (*api.Response, error) {
	req, err := c.newRequest(method, path, endpoint, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.AuthorizedRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if clearErr := c.store.ClearTokens(ctx); clearErr != nil {
			c.log.WithError(clearErr).Error("Failed to clear expired session")
		}
		c.metrics.SessionTransition(string(session.Anonymous))
		c.log.WithField("endpoint", endpoint).Info("Session expired")
		return nil, &AuthError{Kind: KindSessionExpired, Message: msgSessionExpired, Status: resp.StatusCode}
	}
	return resp, nil
}

// send performs an unauthenticated call.
func (c *Client) send(ctx context.Context, method, path, endpoint string, body interface{}) (*api.Response, error) {
	req, err := c.newRequest(method, path, endpoint, body)
	if err != nil {
		return nil, err
	}
	return c.doer.Do(ctx, req)
}

func (c *Client) newRequest(method, path, endpoint string, body interface{}) (*api.Request, error) {
	req := &api.Request{
		Method:   method,
		Path:     c.basePath + path,
		Endpoint: endpoint,
		Headers:  map[string]string{"Content-Type": "application/json"},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		req.Body = data
	}
	return req, nil
}

func decodeUser(resp *api.Response) (*UserProfile, error) {
	var env userEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.User == nil {
		return nil, &AuthError{Kind: KindUnknown, Message: "Profile response was malformed.", Status: resp.StatusCode}
	}
	return env.User, nil
}
