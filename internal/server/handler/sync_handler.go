package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/logic/sync"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/middleware"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

func SyncHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SyncRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := sync.New(r.Context(), svcCtx).Sync(userID, &req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func ResolveConflictHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ResolveConflictRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := sync.New(r.Context(), svcCtx).ResolveConflict(userID, &req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}
