package api

// --- Data Structures for WebSocket Messages ---

// Input message types
const (
	InputTypeKey     = "key"
	InputTypeLimit   = "limit"
	InputTypeRelease = "release"
)

// InputMsg is one browser input event.
//
//	{"type":"key","key":"w","down":true}
//	{"type":"limit","axis":"throttle","percent":50}
//	{"type":"release"}
type InputMsg struct {
	Type    string `json:"type"`
	Key     string `json:"key,omitempty"`
	Down    bool   `json:"down,omitempty"`
	Axis    string `json:"axis,omitempty"`
	Percent int    `json:"percent,omitempty"`
}

// InputAck answers each WebSocket message.
type InputAck struct {
	Handled bool   `json:"handled"`
	Limit   *int   `json:"limit,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TargetRequest is the body of PUT /api/v1/target.
type TargetRequest struct {
	URL string `json:"url"`
}
