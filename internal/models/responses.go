package models

// Ack acknowledges a stored location.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is returned for rejected or failed writes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LocationsResponse is the read-path response body.
type LocationsResponse struct {
	Locations []LocationData `json:"locations"`
}
