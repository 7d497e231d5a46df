package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"memoryd/internal/apierr"
	"memoryd/internal/models"
)

type promptRequest struct {
	SystemInstructionID string `json:"system_instruction_id"`
	Content             string `json:"content"`
	SortOrder           int    `json:"sort_order"`
}

func (s *Server) listPromptsHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}
	list, err := s.prompts.List(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) upsertPromptHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}
	var req promptRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}
	sid, err := uuid.Parse(req.SystemInstructionID)
	if err != nil {
		return mapError(apierr.ValidationError("invalid system_instruction_id"))
	}
	if req.Content == "" {
		return mapError(apierr.ValidationError("content is required"))
	}

	p := &models.UserCustomPrompt{
		UserID: userID, SystemInstructionID: sid, Content: req.Content, SortOrder: req.SortOrder,
	}
	if err := s.prompts.Upsert(c.Request().Context(), p); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deletePromptHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return mapError(apierr.ValidationError("invalid id"))
	}
	if err := s.prompts.Delete(c.Request().Context(), id, userID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
