package chat

// ErrorResponse is the error envelope returned to callers, matching the
// OpenAI-compatible shape upstream servers use.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the human-readable failure message.
type ErrorDetail struct {
	Message string `json:"message"`
}

// Error builds an ErrorResponse from a message.
func Error(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Message: message}}
}
