package server

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

var errRedisUnavailable = errors.New("redis is not configured")

// respondError writes err with the status its code maps to. Internal errors
// are logged with the request context before the generic body goes out.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePage reads the 1-based ?page= query value. A missing page is 1,
// anything that is not an integer writes a 400 and returns errResponseWritten.
func (s *Server) parsePage(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"page": "A valid integer is required."}))
		return 0, errResponseWritten
	}
	return page, nil
}

// parseBody decodes the request body into dst, writing a 400 on failure.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// formUpload reads a multipart file field. It returns nil when the field is absent.
func formUpload(c *fiber.Ctx, field string) (*storage.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// formValue returns a pointer to a submitted form field, or nil when the
// client did not send it.
func formValue(c *fiber.Ctx, key string) *string {
	if form, err := c.MultipartForm(); err == nil {
		if values, ok := form.Value[key]; ok && len(values) > 0 {
			return &values[0]
		}
		return nil
	}
	args := c.Request().PostArgs()
	if !args.Has(key) {
		return nil
	}
	v := string(args.Peek(key))
	return &v
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}
