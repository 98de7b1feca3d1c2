// Package sdk holds the wire types shared between the assistant backend
// and its clients, plus a small HTTP client for Go consumers.
package sdk

import "encoding/json"

// StatusType labels the outcome of an API call
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusFail    StatusType = "fail"  // request was understood but refused
	StatusError   StatusType = "error" // something broke server-side
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  StatusType `json:"status"`          // Status message
	Code    int        `json:"code"`            // Status code
	Message string     `json:"message"`         // Human-readable message
	Data    T          `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any        `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccess(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  StatusSuccess,
		Code:    200,
		Message: message,
	}
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewFailResponse(code int, message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  StatusFail,
		Code:    code,
		Message: message,
	}
}

func NewFailResponseWithData[T any](code int, message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  StatusFail,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}
