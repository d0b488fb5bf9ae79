package handler

import (
	"net/http"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/logic/profile"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/middleware"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func GetProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := profile.New(r.Context(), svcCtx).Get(userID)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func UpdateProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.UpdateProfileRequest
		if err := httpx.Parse(r, &req); err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Validation(err.Error()))
			return
		}
		userID, _ := middleware.UserIDFromContext(r.Context())
		resp, err := profile.New(r.Context(), svcCtx).Update(userID, &req)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, resp)
	}
}

func DeleteProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		if err := profile.New(r.Context(), svcCtx).Delete(userID); err != nil {
			api.WriteErrCtx(r.Context(), w, err)
			return
		}
		api.WriteOkCtx(r.Context(), w, map[string]any{})
	}
}
