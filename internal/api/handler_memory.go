package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"memoryd/internal/apierr"
)

func (s *Server) listMemoryHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}

	var sid *uuid.UUID
	if raw := c.QueryParam("system_instruction_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mapError(apierr.ValidationError("invalid system_instruction_id"))
		}
		sid = &id
	}
	includeDeleted := c.QueryParam("include_deleted") == "true"

	list, err := s.memories.List(c.Request().Context(), userID, sid, includeDeleted)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) deleteMemoryHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return mapError(apierr.ValidationError("invalid id"))
	}
	if err := s.memories.SoftDelete(c.Request().Context(), id, userID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type clearOldRequest struct {
	SystemInstructionID *string `json:"system_instruction_id"`
	Months              int     `json:"months"`
}

type clearOldResponse struct {
	Deleted int64 `json:"deleted"`
}

// clearOldMemoryHandler is the supplemented §7 endpoint letting a user
// explicitly clear memories older than a chosen horizon (1-12 months),
// reusing C7's ad-hoc ClearOld rather than waiting for the daily job.
func (s *Server) clearOldMemoryHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}
	var req clearOldRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}

	var sid *uuid.UUID
	if req.SystemInstructionID != nil && *req.SystemInstructionID != "" {
		id, err := uuid.Parse(*req.SystemInstructionID)
		if err != nil {
			return mapError(apierr.ValidationError("invalid system_instruction_id"))
		}
		sid = &id
	}

	n, err := s.gc.ClearOld(c.Request().Context(), userID, sid, req.Months)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, clearOldResponse{Deleted: n})
}
