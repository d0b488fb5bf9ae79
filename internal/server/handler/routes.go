package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/middleware"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
)

// RegisterHandlers wires every route onto server, grounded on the
// teacher's goctl-scaffolded registration pattern. Public auth routes
// carry no guard; everything under /api and the account deletion route
// run behind AuthGuard.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	guard := middleware.NewAuthGuard(svcCtx.JWT, svcCtx.Store.Users())

	server.AddRoutes([]rest.Route{
		{Method: http.MethodPost, Path: "/auth/register", Handler: RegisterHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/auth/login", Handler: LoginHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/auth/refresh", Handler: RefreshHandler(svcCtx)},
	})

	server.AddRoutes([]rest.Route{
		{Method: http.MethodDelete, Path: "/auth/account", Handler: guard.Handle(DeleteAccountHandler(svcCtx))},

		{Method: http.MethodGet, Path: "/api/user/profile", Handler: guard.Handle(GetProfileHandler(svcCtx))},
		{Method: http.MethodPut, Path: "/api/user/profile", Handler: guard.Handle(UpdateProfileHandler(svcCtx))},
		{Method: http.MethodDelete, Path: "/api/user/profile", Handler: guard.Handle(DeleteProfileHandler(svcCtx))},

		{Method: http.MethodGet, Path: "/api/ssh/sessions", Handler: guard.Handle(ListSessionsHandler(svcCtx))},
		{Method: http.MethodPost, Path: "/api/ssh/sessions", Handler: guard.Handle(CreateSessionHandler(svcCtx))},
		{Method: http.MethodGet, Path: "/api/ssh/sessions/:id", Handler: guard.Handle(GetSessionHandler(svcCtx))},
		{Method: http.MethodPut, Path: "/api/ssh/sessions/:id", Handler: guard.Handle(UpdateSessionHandler(svcCtx))},
		{Method: http.MethodDelete, Path: "/api/ssh/sessions/:id", Handler: guard.Handle(DeleteSessionHandler(svcCtx))},

		{Method: http.MethodPost, Path: "/api/sync", Handler: guard.Handle(SyncHandler(svcCtx))},
		{Method: http.MethodPost, Path: "/api/sync/resolve-conflict", Handler: guard.Handle(ResolveConflictHandler(svcCtx))},
	})
}
