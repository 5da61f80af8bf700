package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrudenko/user-management-api/pkg/result"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
}

func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}

// StatusFor maps a result kind to its HTTP status. The switch is exhaustive
// over the known kinds; an unknown kind is a programming error, not a
// user-facing condition.
func StatusFor(k result.Kind) int {
	switch k {
	case result.KindSuccess:
		return http.StatusOK
	case result.KindSuccessCreate:
		return http.StatusCreated
	case result.KindFailure:
		return http.StatusBadRequest
	case result.KindNotFound:
		return http.StatusNotFound
	}
	panic(fmt.Sprintf("unhandled result kind %d", k))
}

// FromResult writes a Result as the HTTP response.
func FromResult[T any](c *gin.Context, r result.Result[T], okMessage string) {
	status := StatusFor(r.Kind())
	if r.OK() {
		resp := Success(c, status, r.Value(), okMessage, nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := Error[T](c, status, r.Message(), nil)
	c.JSON(resp.Status, resp)
}
