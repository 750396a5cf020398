package handler

import "net/http"

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// ErrorStatus maps a service error to an HTTP status code.
func ErrorStatus(err error) int {
	if e, ok := err.(interface{ StatusCode() int }); ok {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}
