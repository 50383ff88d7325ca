package engine

import (
	"fmt"
	"log"
	"mime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-backend/internal/instrument"
	"research-backend/internal/metadata"
	"research-backend/internal/storage"
)

// FileHandler serves blob upload and download for File records.
type FileHandler struct {
	service *Service
	storage storage.FileStorage
	maxSize int64
}

func NewFileHandler(svc *Service, fs storage.FileStorage, maxSize int64) *FileHandler {
	return &FileHandler{service: svc, storage: fs, maxSize: maxSize}
}

// Upload handles POST /api/files/upload. The blob is saved first, then the
// File record; a failed insert removes the blob again.
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	identity := getIdentity(c)
	if identity == "" {
		return respondError(c, UnauthorizedError("Authentication required"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, NewAppError(CodeInvalidPayload, fiber.StatusBadRequest, "Missing file in form data"))
	}

	if h.maxSize > 0 && file.Size > h.maxSize {
		msg := fmt.Sprintf("File too large: %d bytes (max %d)", file.Size, h.maxSize)
		return respondError(c, NewAppError("FILE_TOO_LARGE", fiber.StatusRequestEntityTooLarge, msg))
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	fileID := uuid.New().String()
	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ctx := c.UserContext()
	key, err := h.storage.Save(ctx, identity, fileID, src)
	if err != nil {
		log.Printf("ERROR: save blob [trace=%s]: %v", instrument.GetTraceID(ctx), err)
		return respondError(c, StoreError(err))
	}

	payload := map[string]any{
		"name": file.Filename,
		"type": mimeType,
		"size": file.Size,
		"url":  fmt.Sprintf("/api/files/%s/content", fileID),
	}
	if projectID := c.FormValue("projectId"); projectID != "" {
		payload["projectId"] = projectID
	}
	if c.FormValue("isPrivate") == "true" {
		payload["isPrivate"] = true
	}

	rec, err := h.service.CreateWithID(ctx, metadata.Files, identity, fileID, payload)
	if err != nil {
		// Clean up stored blob on failed insert
		_ = h.storage.Delete(ctx, key)
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": rec})
}

// Content handles GET /api/files/:id/content under the same visibility as a read.
func (h *FileHandler) Content(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()

	rec, err := h.service.GetOne(ctx, metadata.Files, getIdentity(c), id, nil)
	if err != nil {
		return handleError(c, err)
	}

	key := h.blobKey(rec)
	reader, err := h.storage.Open(ctx, key)
	if err != nil {
		log.Printf("ERROR: open blob %s [trace=%s]: %v", key, instrument.GetTraceID(ctx), err)
		return respondError(c, NotFoundError("File", id))
	}

	contentType, _ := rec["type"].(string)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name, _ := rec["name"].(string)

	c.Set(fiber.HeaderContentType, contentType)
	if disposition := mime.FormatMediaType("inline", map[string]string{"filename": name}); disposition != "" {
		c.Set(fiber.HeaderContentDisposition, disposition)
	} else {
		c.Set(fiber.HeaderContentDisposition, "inline")
	}

	// SendStream closes the reader once the body is written.
	return c.SendStream(reader)
}

// Delete handles DELETE /api/files/:id. The record goes first; a blob that
// cannot be removed afterwards is only logged.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()

	rec, err := h.service.Delete(ctx, metadata.Files, getIdentity(c), id)
	if err != nil {
		return handleError(c, err)
	}

	key := h.blobKey(rec)
	if err := h.storage.Delete(ctx, key); err != nil {
		log.Printf("WARN: delete blob %s [trace=%s]: %v", key, instrument.GetTraceID(ctx), err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// blobKey addresses the blob by the record's owner and id. Both are
// immutable, so nothing a caller writes into the record can redirect it.
func (h *FileHandler) blobKey(rec Record) string {
	var owner string
	if res, err := h.service.Registry().SchemaFor(metadata.Files); err == nil {
		owner, _ = rec[res.OwnerKey].(string)
	}
	id, _ := rec[metadata.IDKey].(string)
	return storage.ObjectKey(owner, id)
}
