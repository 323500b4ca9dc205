package dto

import "time"

// Envelope is the common response wrapper: data on success, error on
// failure, meta always.
type Envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorInfo `json:"error,omitempty"`
	Meta  Meta       `json:"meta"`
}

// ErrorInfo carries the structured error payload.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta stamps a response with time and request id.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`
}

// Success builds a data envelope.
func Success(data any, requestID string) Envelope {
	return Envelope{Data: data, Meta: newMeta(requestID)}
}

// Failure builds an error envelope.
func Failure(code, message string, details any, requestID string) Envelope {
	return Envelope{
		Error: &ErrorInfo{Code: code, Message: message, Details: details},
		Meta:  newMeta(requestID),
	}
}

func newMeta(requestID string) Meta {
	return Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// PageInfo describes a page of a larger result set.
type PageInfo struct {
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// Page wraps a page of items with its pagination info.
type Page struct {
	Items any      `json:"items"`
	Page  PageInfo `json:"page"`
}

// NewPage assembles pagination metadata from a 1-based page number.
func NewPage(items any, number, size int, total int64) Page {
	if size <= 0 {
		size = 20
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return Page{
		Items: items,
		Page: PageInfo{
			Number:        number,
			Size:          size,
			TotalElements: total,
			TotalPages:    totalPages,
			First:         number <= 1,
			Last:          number >= totalPages,
		},
	}
}
