// Package svc wires up the server's dependencies, grounded on the
// teacher's backend/services/gateway/internal/svc.ServiceContext shape.
package svc

import (
	"time"

	"github.com/zeromicro/go-zero/core/stores/redis"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/cache"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/config"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/jwtauth"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/third_party/database"
)

type ServiceContext struct {
	Config        config.Config
	Store         repository.Store
	RefreshTokens cache.RefreshTokens
	JWT           *jwtauth.Manager
}

func NewServiceContext(c config.Config) *ServiceContext {
	db, err := database.NewPostgresConnection(c.DataSource)
	if err != nil {
		panic(err)
	}

	redisClient := redis.MustNewRedis(c.Redis)

	if c.IsSecretDefault() {
		panic("config: Auth.Secret must be overridden from the insecure default before deployment")
	}

	return &ServiceContext{
		Config:        c,
		Store:         repository.NewPostgresStore(db),
		RefreshTokens: cache.NewRefreshTokens(redisClient),
		JWT: jwtauth.NewManager(
			c.Auth.Secret,
			time.Duration(c.Auth.AccessExpireMins)*time.Minute,
			time.Duration(c.Auth.RefreshExpireDays)*24*time.Hour,
		),
	}
}
