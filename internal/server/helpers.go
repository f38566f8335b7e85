package server

import (
	"errors"
	"strconv"

	"postchain/internal/ledger"
	"postchain/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePostID extracts the :id route parameter as a positive post id.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parsePostID(c *fiber.Ctx) (ledger.PostID, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
		return 0, errResponseWritten
	}
	return ledger.PostID(id), nil
}

// parseIndex extracts the :index route parameter as a zero-based list index.
func (s *Server) parseIndex(c *fiber.Ctx) (uint64, error) {
	index, err := strconv.ParseUint(c.Params("index"), 10, 64)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post index"))
		return 0, errResponseWritten
	}
	return index, nil
}

// callerPrincipal returns the authenticated principal set by AuthRequired.
func (s *Server) callerPrincipal(c *fiber.Ctx) ledger.Principal {
	principal, _ := c.Locals("principal").(string)
	return ledger.Principal(principal)
}

// pathPrincipal extracts the :principal route parameter.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) pathPrincipal(c *fiber.Ctx) (ledger.Principal, error) {
	principal := c.Params("principal")
	if principal == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid principal"))
		return "", errResponseWritten
	}
	return ledger.Principal(principal), nil
}
