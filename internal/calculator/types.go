package calculator

import "calcsession/internal/engine"

// CalcRequest is the JSON body for binary operations (add, subtract, multiply, divide).
// Operands are decimal strings so no precision is lost in transit.
type CalcRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// CalcResponse is the JSON response for the one-shot endpoints.
type CalcResponse struct {
	Operation string `json:"operation"`
	A         string `json:"a"`
	B         string `json:"b"`
	Result    string `json:"result"`  // full internal precision
	Display   string `json:"display"` // rounded for presentation
}

// ChainStep describes a single step in a chained calculation.
type ChainStep struct {
	Op    string `json:"op"`    // "add", "subtract", "multiply", "divide" or a symbol
	Value string `json:"value"` // the operand applied with the running total
}

// ChainRequest is the JSON body for POST /calculator/chain.
type ChainRequest struct {
	Initial string      `json:"initial"` // starting value
	Steps   []ChainStep `json:"steps"`
}

// ChainResponse is the JSON response for POST /calculator/chain.
type ChainResponse struct {
	Initial string        `json:"initial"`
	Steps   []ChainResult `json:"steps"`
	Result  string        `json:"result"`
	Display string        `json:"display"`
}

// ChainResult records one executed step.
type ChainResult struct {
	Op     string `json:"op"`
	Value  string `json:"value"`
	Result string `json:"result"`
}

// KeysRequest is the JSON body for POST /calculator/sessions/{id}/keys.
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// KeyMessage is one frame sent by a keypad WebSocket client.
type KeyMessage struct {
	Key string `json:"key"`
}

// SessionResponse is the view of a session returned after every command.
type SessionResponse struct {
	ID        string   `json:"id"`
	Lines     []string `json:"lines"` // newest first
	AngleMode string   `json:"angle_mode"`
	Mode      string   `json:"mode"`
	Status    string   `json:"status,omitempty"`
	Pending   int      `json:"pending"`
	Error     string   `json:"error,omitempty"` // WebSocket frames only
}

func newSessionResponse(id string, snap engine.Snapshot) SessionResponse {
	return SessionResponse{
		ID:        id,
		Lines:     snap.Lines,
		AngleMode: snap.AngleMode,
		Mode:      snap.Mode.String(),
		Status:    snap.Tag,
		Pending:   snap.Pending,
	}
}
