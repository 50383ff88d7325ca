package engine

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"research-backend/internal/metadata"
)

// Handler exposes the Service over HTTP. It only translates: every decision
// about scope and validity is made by the Service.
type Handler struct {
	service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

// List handles GET /api/:resource. Every query parameter is a filter.
func (h *Handler) List(c *fiber.Ctx) error {
	recs, err := h.service.List(c.UserContext(), c.Params("resource"), getIdentity(c), queryFilters(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"data": recs})
}

// GetByID handles GET /api/:resource/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	rec, err := h.service.GetOne(c.UserContext(), c.Params("resource"), getIdentity(c), c.Params("id"), queryFilters(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"data": rec})
}

// Create handles POST /api/:resource
func (h *Handler) Create(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return handleError(c, err)
	}

	rec, err := h.service.Create(c.UserContext(), c.Params("resource"), getIdentity(c), body)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": rec})
}

// Update handles PUT and PATCH /api/:resource/:id. Both are partial.
func (h *Handler) Update(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return handleError(c, err)
	}

	rec, err := h.service.Update(c.UserContext(), c.Params("resource"), getIdentity(c), c.Params("id"), body)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"data": rec})
}

// Delete handles DELETE /api/:resource/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.service.Delete(c.UserContext(), c.Params("resource"), getIdentity(c), id); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

func getIdentity(c *fiber.Ctx) string {
	if user, ok := c.Locals("user").(*metadata.UserContext); ok && user != nil {
		return user.ID
	}
	return ""
}

func queryFilters(c *fiber.Ctx) map[string]any {
	queries := c.Queries()
	filters := make(map[string]any, len(queries))
	for k, v := range queries {
		filters[k] = v
	}
	return filters
}

// parseBody decodes a JSON object body. An empty body is an empty payload.
func parseBody(c *fiber.Ctx) (map[string]any, error) {
	if len(c.Body()) == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, NewAppError(CodeInvalidPayload, fiber.StatusBadRequest, "Invalid JSON body")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

// handleError renders an AppError. Anything else goes to the app's error handler.
func handleError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}
	return err
}
