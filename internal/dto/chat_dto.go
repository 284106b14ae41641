package dto

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant model system"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Question            string        `json:"question" validate:"required"`
	Sources             []string      `json:"sources" validate:"required,min=1"`
	TargetSource        string        `json:"targetSource"`
	ConversationHistory []ChatMessage `json:"conversationHistory" validate:"omitempty,dive"`
}

// ChatErrorResponse is the structured body for non-streaming chat failures.
// Tokens mirrors the remaining quota so clients can render the counter.
type ChatErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Tokens int    `json:"tokens"`
}
