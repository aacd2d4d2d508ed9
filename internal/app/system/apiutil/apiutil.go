// Package apiutil writes the JSON envelope every REST response uses:
// {success, data|error} plus optional count/total/pagination fields.
package apiutil

import (
	"encoding/json"
	"net/http"
)

// Pagination echoes the effective page/limit and the computed page count.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// PageCount computes ceil(total/limit) with a zero-safe limit.
func PageCount(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

type envelope struct {
	Success    bool        `json:"success"`
	Count      *int        `json:"count,omitempty"`
	Total      *int64      `json:"total,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes {success:true, data} with the given status.
func OK(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// List writes a counted, paginated collection response.
func List(w http.ResponseWriter, data any, count int, total int64, p Pagination) {
	write(w, http.StatusOK, envelope{
		Success:    true,
		Count:      &count,
		Total:      &total,
		Pagination: &p,
		Data:       data,
	})
}

// Error writes {success:false, error} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Success: false, Error: msg})
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

// Forbidden writes a 403 envelope.
func Forbidden(w http.ResponseWriter, msg string) {
	Error(w, http.StatusForbidden, msg)
}

// BadRequest writes a 400 envelope.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// ServerError writes a 500 envelope.
func ServerError(w http.ResponseWriter, msg string) {
	Error(w, http.StatusInternalServerError, msg)
}
