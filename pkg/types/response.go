package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. RequestID lets a buyer quote a failing
// plan or checkout call back to support.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
