package netx

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope of every JSON reply
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthResponse represents authentication-related responses
type AuthResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

// WriteJSON writes a JSON response with the specified status code
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response
func WriteSuccess(w http.ResponseWriter, message string, data any) error {
	return WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError writes an error JSON response
func WriteError(w http.ResponseWriter, statusCode int, message string, err error) error {
	response := APIResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	return WriteJSON(w, statusCode, response)
}

// WriteAuthSuccess writes a successful authentication response
func WriteAuthSuccess(w http.ResponseWriter, message string, username string) error {
	return WriteAuthSuccessWithToken(w, message, username, "")
}

// WriteAuthSuccessWithToken writes a successful authentication response with token
func WriteAuthSuccessWithToken(w http.ResponseWriter, message string, username string, token string) error {
	return WriteJSON(w, http.StatusOK, AuthResponse{
		Success:  true,
		Message:  message,
		Username: username,
		Token:    token,
	})
}

// WriteAuthError writes an authentication error response
func WriteAuthError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, AuthResponse{Message: message})
}

// WriteMethodNotAllowed writes a method not allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// WriteBadRequest writes a bad request response
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message, nil)
}

// WriteNotFound writes a not found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message, nil)
}

// WriteUnauthorized writes an unauthorized response
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteAuthError(w, http.StatusUnauthorized, message)
}

// WriteInternalServerError writes an internal server error response
func WriteInternalServerError(w http.ResponseWriter, message string, err error) error {
	return WriteError(w, http.StatusInternalServerError, message, err)
}
