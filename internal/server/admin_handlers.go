package server

import (
	"postchain/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PauseLedger handles POST /api/admin/pause. Only the ledger owner may
// pause; everyone else gets a 403 from the authorization check.
func (s *Server) PauseLedger(c *fiber.Ctx) error {
	ctx := c.Context()
	caller := s.callerPrincipal(c)

	if err := s.ledger.Pause(ctx, caller); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"paused": true})
}

// UnpauseLedger handles POST /api/admin/unpause
func (s *Server) UnpauseLedger(c *fiber.Ctx) error {
	ctx := c.Context()
	caller := s.callerPrincipal(c)

	if err := s.ledger.Unpause(ctx, caller); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"paused": false})
}

// GetLedgerStatus handles GET /api/ledger/status
func (s *Server) GetLedgerStatus(c *fiber.Ctx) error {
	return c.JSON(s.ledger.Status(c.Context()))
}
