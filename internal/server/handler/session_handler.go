package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/logic/session"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/middleware"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

type sessionIDPath struct {
	ID string `path:"id"`
}

func ListSessionsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := session.New(r.Context(), svcCtx).List(userID)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func CreateSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateSshSessionRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := session.New(r.Context(), svcCtx).Create(userID, &req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func GetSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var path sessionIDPath
		if err := httpx.Parse(r, &path); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := session.New(r.Context(), svcCtx).Get(userID, path.ID)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func UpdateSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var path sessionIDPath
		if err := httpx.Parse(r, &path); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		var req api.UpdateSshSessionRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := session.New(r.Context(), svcCtx).Update(userID, path.ID, &req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func DeleteSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var path sessionIDPath
		if err := httpx.Parse(r, &path); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		if err := session.New(r.Context(), svcCtx).Delete(userID, path.ID); err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, map[string]any{})
	}
}
