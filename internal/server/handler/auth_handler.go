// Package handler wires HTTP requests to logic calls, grounded on the
// teacher's goctl-scaffolded handler pattern (httpx.Parse → logic call →
// api.WriteOkCtx/WriteErrCtx).
package handler

import (
	"net/http"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/logic/auth"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/middleware"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func RegisterHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		resp, err := auth.NewRegisterLogic(r.Context(), svcCtx).Register(&req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func LoginHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		resp, err := auth.NewLoginLogic(r.Context(), svcCtx).Login(&req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func RefreshHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RefreshRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		resp, err := auth.NewRefreshLogic(r.Context(), svcCtx).Refresh(&req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

// DeleteAccountHandler is the supplemental protected route from
// SPEC_FULL §4.11.
func DeleteAccountHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		if err := auth.NewDeleteAccountLogic(r.Context(), svcCtx).DeleteAccount(userID); err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, map[string]any{})
	}
}
