package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"memoryd/internal/apierr"
	"memoryd/internal/chat"
	"memoryd/internal/llm"
)

var validChatRoles = map[string]bool{
	string(chat.RoleUser):      true,
	string(chat.RoleAssistant): true,
	string(chat.RoleSystem):    true,
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages            []chatMessage `json:"messages"`
	SystemInstruction   string        `json:"system_instruction"`
	SystemInstructionID *string       `json:"system_instruction_id"`
	Temperature         float64       `json:"temperature"`
	MaxTokens           int           `json:"max_tokens"`
}

type chatResponse struct {
	Message string   `json:"message"`
	Usage   llm.Usage `json:"usage"`
}

func (s *Server) chatHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}
	if len(req.Messages) == 0 {
		return mapError(apierr.ValidationError("messages must not be empty"))
	}

	var sid *uuid.UUID
	if req.SystemInstructionID != nil && *req.SystemInstructionID != "" {
		id, err := uuid.Parse(*req.SystemInstructionID)
		if err != nil {
			return mapError(apierr.ValidationError("invalid system_instruction_id"))
		}
		sid = &id
	}

	messages := make([]chat.Message, 0, len(req.Messages))
	for i, m := range req.Messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			return mapError(apierr.ValidationError(fmt.Sprintf("messages[%d].content must not be empty", i)))
		}
		if !validChatRoles[m.Role] {
			return mapError(apierr.ValidationError(fmt.Sprintf("messages[%d].role is invalid", i)))
		}
		messages = append(messages, chat.Message{Role: chat.Role(m.Role), Content: content})
	}

	result, err := s.orchestrator.Chat(c.Request().Context(), userID, chat.Request{
		Messages:            messages,
		SystemInstruction:   req.SystemInstruction,
		SystemInstructionID: sid,
		Temperature:         req.Temperature,
		MaxTokens:           req.MaxTokens,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, chatResponse{Message: result.Message, Usage: result.Usage})
}
