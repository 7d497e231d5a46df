package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"memoryd/internal/apierr"
	"memoryd/internal/models"
)

type instructionRequest struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	IsActive  bool   `json:"is_active"`
	IsDefault bool   `json:"is_default"`
	SortOrder int    `json:"sort_order"`
}

func (s *Server) listInstructionsHandler(c echo.Context) error {
	list, err := s.instructions.List(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) createInstructionHandler(c echo.Context) error {
	var req instructionRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}
	if req.Name == "" || req.Content == "" {
		return mapError(apierr.ValidationError("name and content are required"))
	}
	si := &models.SystemInstruction{
		Name: req.Name, Content: req.Content, IsActive: req.IsActive,
		IsDefault: req.IsDefault, SortOrder: req.SortOrder,
	}
	if err := s.instructions.Create(c.Request().Context(), si); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, si)
}

func (s *Server) updateInstructionHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return mapError(apierr.ValidationError("invalid id"))
	}
	var req instructionRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}
	si := &models.SystemInstruction{
		ID: id, Name: req.Name, Content: req.Content, IsActive: req.IsActive,
		IsDefault: req.IsDefault, SortOrder: req.SortOrder,
	}
	if err := s.instructions.Update(c.Request().Context(), si); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, si)
}

func (s *Server) deleteInstructionHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return mapError(apierr.ValidationError("invalid id"))
	}
	if err := s.instructions.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
