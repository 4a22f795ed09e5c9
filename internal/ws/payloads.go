package ws

// Frame types sent server -> client.
const (
	FrameReady         = "ready"
	FrameMining        = "mining"
	FrameTask          = "task"
	FrameTaskCompleted = "task_completed"
	FrameWithdrawal    = "withdrawal"
	FrameError         = "error"
)

type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
