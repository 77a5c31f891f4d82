// Package mcp implements the Model Context Protocol (MCP) server for railcat.
package mcp

import (
	"context"
	"errors"
	"fmt"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
)

// Custom MCP error codes for railcat.
const (
	// ErrCodeNotLoaded indicates no catalogue is loaded.
	ErrCodeNotLoaded = -32001

	// ErrCodeUnknownDocument indicates a key that names no document.
	ErrCodeUnknownDocument = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeSnapshotBusy indicates the snapshot is locked by another writer.
	ErrCodeSnapshotBusy = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrNotLoaded indicates the server has no catalogue snapshot.
	ErrNotLoaded = errors.New("catalogue not loaded")

	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	if re, ok := railerr.As(err); ok {
		return mapRailError(re)
	}

	switch {
	case errors.Is(err, ErrNotLoaded):
		return &MCPError{
			Code:    ErrCodeNotLoaded,
			Message: "Catalogue not loaded. Check the corpus path and restart the server.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Tool not found.",
		}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid parameters.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapRailError converts a RailError to an MCPError by category, with a few
// codes singled out.
func mapRailError(re *railerr.RailError) *MCPError {
	message := re.Message
	if re.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", re.Message, re.Suggestion)
	}

	switch re.Code {
	case railerr.ErrCodeUnknownDocument:
		if key, ok := re.Details["key"]; ok {
			message = fmt.Sprintf("No document with key '%s'.", key)
			if re.Suggestion != "" {
				message += " " + re.Suggestion
			}
		}
		return &MCPError{Code: ErrCodeUnknownDocument, Message: message}
	case railerr.ErrCodeSnapshotLocked:
		return &MCPError{Code: ErrCodeSnapshotBusy, Message: message}
	}

	switch re.Category {
	case railerr.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default: // config, IO and internal
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
