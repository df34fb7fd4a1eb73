package domain

// ChatRequest asks the backend to generate or amend a flow from a message.
type ChatRequest struct {
	Message     string    `json:"message"`
	SessionID   string    `json:"session_id"`
	CurrentFlow *Document `json:"current_flow,omitempty"`
}

// ChatResponse carries the generated flow, if any, and an explanation in markdown.
type ChatResponse struct {
	Explanation string    `json:"explanation"`
	Flow        *Document `json:"flow,omitempty"`
	Warnings    []string  `json:"warnings"`
	Suggestions []string  `json:"suggestions"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}
