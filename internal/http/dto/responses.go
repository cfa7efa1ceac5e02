package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// SweepResponse mirrors what the cron caller expects to log.
type SweepResponse struct {
	Success        bool     `json:"success"`
	ReleasedOrders []string `json:"released_orders"`
}
