package types

// SuccessEnvelope wraps successful API responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps failed API responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError is the public error body. Details is only populated for codes
// whose metadata allows exposing them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
