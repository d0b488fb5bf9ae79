// Package config defines the client's on-disk settings, loaded the same
// way the server config is (github.com/zeromicro/go-zero/core/conf),
// just without the rest.RestConf server-listener fields the client has
// no use for.
package config

import "time"

type Config struct {
	ServerURL       string
	CatalogPath     string
	SyncIntervalSec int64
}

// SyncInterval returns a sane default when the config omits it — the
// original schedules background sync every few minutes rather than on
// every keystroke.
func (c Config) SyncInterval() time.Duration {
	if c.SyncIntervalSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SyncIntervalSec) * time.Second
}
