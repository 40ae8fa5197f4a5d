package mockapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"seostrategy-go/pkg/normalizer"
)

//go:embed blueprint.json
var blueprintTemplate []byte

func (s *Server) process(c *fiber.Ctx) error {
	var req struct {
		Input  string `json:"input"`
		Domain string `json:"domain"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	keyword := strings.TrimSpace(req.Input)
	if keyword == "" {
		return errorJSON(c, fiber.StatusBadRequest, "input is required")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(normalizer.DemoPayload(keyword))
}

func (s *Server) generateBlueprint(c *fiber.Ctx) error {
	var req struct {
		Keyword   string `json:"keyword"`
		ProjectID string `json:"project_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return errorJSON(c, fiber.StatusBadRequest, "keyword is required")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(renderBlueprint(keyword, time.Now().UTC()))
}

func renderBlueprint(keyword string, now time.Time) []byte {
	out := blueprintTemplate
	for placeholder, value := range map[string]string{
		"__KEYWORD__":      keyword,
		"__BLUEPRINT_ID__": "bp_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		"__CREATED_AT__":   now.Format(time.RFC3339),
	} {
		quoted, _ := json.Marshal(value)
		out = bytes.ReplaceAll(out, []byte(`"`+placeholder+`"`), quoted)
	}
	return out
}
