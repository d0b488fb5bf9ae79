package config

import (
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/rest"
)

// Config is loaded via conf.MustLoad from etc/syncapi.yaml, following the
// teacher's shared/config.Config shape. Secrets must be overridden by the
// deployment; DefaultInsecureSecret is only ever used to detect that a
// deployer forgot to do so.
type Config struct {
	rest.RestConf
	DataSource string
	Redis      redis.RedisConf
	Auth       AuthConfig
}

type AuthConfig struct {
	Secret            string
	AccessExpireMins  int64
	RefreshExpireDays int64
}

// DefaultInsecureSecret is the value shipped in the example config; a
// production deployment MUST override it (base spec §6).
const DefaultInsecureSecret = "dev-only-insecure-secret-change-me"

func (c Config) IsSecretDefault() bool {
	return c.Auth.Secret == "" || c.Auth.Secret == DefaultInsecureSecret
}
