package mockapi

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

const (
	minPasswordLength = 8
	localsUserID      = "user_id"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" || req.Password == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Email or username and password are required")
	}

	u, ok := s.users.authenticate(identifier, req.Password)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	access, err := s.tokens.issue(u.ID, u.tokenVersion)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": s.users.issueRefresh(u.ID),
		"token_type":    "bearer",
		"user":          u,
	})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Username is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "A valid email is required")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Password must be at least 8 characters")
	}

	u, _, err := s.users.create(req.Username, req.Email, req.Password, false)
	switch {
	case errors.Is(err, errDuplicateEmail):
		return errorJSON(c, fiber.StatusConflict, "Email already registered")
	case errors.Is(err, errDuplicateUsername):
		return errorJSON(c, fiber.StatusConflict, "Username already taken")
	case err != nil:
		return err
	}
	if req.FirstName != "" || req.LastName != "" || req.Company != "" {
		u, err = s.users.update(u.ID, profileUpdate{
			FirstName: optional(req.FirstName),
			LastName:  optional(req.LastName),
			Company:   optional(req.Company),
		})
		if err != nil {
			return err
		}
	}

	s.log.WithField("user_id", u.ID).Info("User registered")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful. Please verify your email.",
		"user":    u,
	})
}

func (s *Server) forgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email != "" {
		s.users.requestReset(strings.TrimSpace(req.Email))
	}
	return c.JSON(fiber.Map{"message": "If the email exists, a reset link was sent."})
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req struct {
		ResetToken  string `json:"reset_token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if utf8.RuneCountInString(req.NewPassword) < minPasswordLength {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Password must be at least 8 characters")
	}
	if err := s.users.resetPassword(req.ResetToken, req.NewPassword); err != nil {
		if errors.Is(err, errInvalidToken) {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired reset token")
		}
		return err
	}
	return c.JSON(fiber.Map{"message": "Password has been reset."})
}

func (s *Server) verifyEmail(c *fiber.Ctx) error {
	var req struct {
		VerificationToken string `json:"verification_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.users.verifyEmail(req.VerificationToken); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired verification token")
	}
	return c.JSON(fiber.Map{"message": "Email verified."})
}

// requireAuth accepts a Bearer access token whose version is still current.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	id, version, err := s.tokens.parse(token)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	current, ok := s.users.version(id)
	if !ok || current != version {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	c.Locals(localsUserID, id)
	return c.Next()
}

func currentUser(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localsUserID).(int64)
	return id
}

func (s *Server) getProfile(c *fiber.Ctx) error {
	u, ok := s.users.get(currentUser(c))
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(fiber.Map{"user": u})
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var patch profileUpdate
	if err := c.BodyParser(&patch); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if patch.Email != nil {
		if _, err := mail.ParseAddress(*patch.Email); err != nil {
			return errorJSON(c, fiber.StatusUnprocessableEntity, "A valid email is required")
		}
	}
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Username cannot be empty")
	}

	u, err := s.users.update(currentUser(c), patch)
	switch {
	case errors.Is(err, errDuplicateEmail):
		return errorJSON(c, fiber.StatusConflict, "Email already registered")
	case errors.Is(err, errDuplicateUsername):
		return errorJSON(c, fiber.StatusConflict, "Username already taken")
	case err != nil:
		return errorJSON(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(fiber.Map{"user": u})
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if utf8.RuneCountInString(req.NewPassword) < minPasswordLength {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Password must be at least 8 characters")
	}
	ok, err := s.users.changePassword(currentUser(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Current password is incorrect")
	}
	return c.JSON(fiber.Map{"message": "Password changed."})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
