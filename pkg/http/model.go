package http

// APIResponse is the envelope every endpoint returns. Status carries the
// application-level status code; the transport always answers 200 so that
// clients distinguish "service unreachable" from "request rejected".
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes a single failed validation rule on a request
// field. Params carries rule parameters (min, max, allowed options) so
// clients can render precise messages.
type ValidationError struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse wraps list endpoints with a total row count.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
