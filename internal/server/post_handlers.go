package server

import (
	"postchain/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	caller := s.callerPrincipal(c)

	var req struct {
		ContentRef string `json:"content_ref"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	id, err := s.ledger.CreatePost(ctx, caller, req.ContentRef)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	post, err := s.ledger.GetPost(ctx, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	post, err := s.ledger.GetPost(ctx, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	return c.JSON(post)
}

// GetTotalPosts handles GET /api/posts/total
func (s *Server) GetTotalPosts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"total_posts": s.ledger.GetTotalPosts(c.Context()),
	})
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	ctx := c.Context()
	caller := s.callerPrincipal(c)
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	if err := s.ledger.LikePost(ctx, caller, id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	post, err := s.ledger.GetPost(ctx, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"post_id":    post.ID,
		"like_count": post.LikeCount,
		"liked":      true,
	})
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	ctx := c.Context()
	caller := s.callerPrincipal(c)
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	if err := s.ledger.UnlikePost(ctx, caller, id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	post, err := s.ledger.GetPost(ctx, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"post_id":    post.ID,
		"like_count": post.LikeCount,
		"liked":      false,
	})
}

// GetLikedByMe handles GET /api/posts/:id/liked
func (s *Server) GetLikedByMe(c *fiber.Ctx) error {
	ctx := c.Context()
	caller := s.callerPrincipal(c)
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	return c.JSON(fiber.Map{
		"post_id": id,
		"liked":   s.ledger.HasUserLiked(ctx, id, caller),
	})
}

// GetUserPostCount handles GET /api/users/:principal/posts/count
func (s *Server) GetUserPostCount(c *fiber.Ctx) error {
	ctx := c.Context()
	user, err := s.pathPrincipal(c)
	if err != nil {
		return nil
	}

	return c.JSON(fiber.Map{
		"principal":  user,
		"post_count": s.ledger.GetUserPostCount(ctx, user),
	})
}

// GetUserPostAt handles GET /api/users/:principal/posts/:index
func (s *Server) GetUserPostAt(c *fiber.Ctx) error {
	ctx := c.Context()
	user, err := s.pathPrincipal(c)
	if err != nil {
		return nil
	}
	index, err := s.parseIndex(c)
	if err != nil {
		return nil
	}

	id, err := s.ledger.GetUserPostAt(ctx, user, index)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	return c.JSON(fiber.Map{
		"principal": user,
		"index":     index,
		"post_id":   id,
	})
}
