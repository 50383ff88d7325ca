package engine

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the resource routes under /api. File routes are
// registered first so they win over the generic /:resource/:id patterns.
func RegisterRoutes(api fiber.Router, h *Handler, fh *FileHandler) {
	if fh != nil {
		api.Post("/files/upload", fh.Upload)
		api.Get("/files/:id/content", fh.Content)
		api.Delete("/files/:id", fh.Delete)
	}

	api.Get("/:resource", h.List)
	api.Get("/:resource/:id", h.GetByID)
	api.Post("/:resource", h.Create)
	api.Put("/:resource/:id", h.Update)
	api.Patch("/:resource/:id", h.Update)
	api.Delete("/:resource/:id", h.Delete)
}
