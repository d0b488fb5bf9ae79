// Package api holds the wire-level envelope and DTOs shared between the
// server handlers and the client's HTTP transport, so both sides encode
// and decode the exact same JSON shapes.
package api

import (
	"context"
	"net/http"

	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// Response is the unified envelope every endpoint returns: {code, message,
// data}. code == 200 means success regardless of HTTP status; clients
// must check code, not just transport status, per the base spec's §6.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteOkCtx writes a 200 envelope carrying data, using the request
// context so go-zero's logging middleware can attribute it to the span.
func WriteOkCtx(ctx context.Context, w http.ResponseWriter, data interface{}) {
	httpx.OkJsonCtx(ctx, w, Response{Code: http.StatusOK, Message: "ok", Data: data})
}

// WriteErrCtx translates err into the envelope shape and writes the
// matching HTTP status. Passwords and tokens must never reach err's message.
func WriteErrCtx(ctx context.Context, w http.ResponseWriter, err error) {
	apiErr := apierr.As(err)
	httpx.WriteJsonCtx(ctx, w, apiErr.Status, Response{
		Code:    apiErr.Status,
		Message: apiErr.Message,
	})
}
