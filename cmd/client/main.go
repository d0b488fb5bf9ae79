// Code scaffolded in the teacher's goctl style. Safe to edit.
//
// This is the sync-core entrypoint only (base spec Non-goals: no CLI
// flag plumbing, no terminal UI) — it loads the on-disk config, opens
// the local catalog, and starts the background sync schedule. A real
// desktop shell embeds this core the way original_source/src-tauri
// embeds its Rust services behind Tauri commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/account"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/catalog"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/config"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/httpclient"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/sync"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/token"
)

var configFile = flag.String("f", "etc/syncclient.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	store, err := catalog.Open(c.CatalogPath)
	if err != nil {
		logx.Must(err)
	}
	defer store.Close()

	tokens := token.NewManager()
	httpc := httpclient.New(c.ServerURL, tokens)
	registry := account.NewRegistry(store, tokens)
	engine := sync.New(store, httpc, tokens, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// base spec §5 "Refresh token invalidated": once the refresh token
	// itself is rejected, drop the account's is_current flag and cached
	// tokens rather than retrying forever.
	httpc.OnRefreshFailed(func(ctx context.Context) {
		logx.Errorf("refresh token rejected by server, logging out current account")
		if err := registry.Logout(ctx); err != nil {
			logx.Errorf("logout after refresh failure: %v", err)
		}
	})

	// base spec §4.4 "auto_login": hydrate the token manager from whatever
	// account was current on last exit, purely from local state — a
	// device-bound decrypt failure clears is_current instead of driving
	// the sync loop below with empty/garbage credentials.
	if err := registry.AutoLogin(ctx); err != nil {
		logx.Errorf("auto login: %v", err)
	}

	if registry.HasCurrent(ctx) {
		if err := engine.StartSchedule(ctx, c.SyncInterval()); err != nil {
			logx.Must(err)
		}
		defer engine.StopSchedule()
	}

	fmt.Printf("sync client ready, catalog=%s server=%s\n", c.CatalogPath, c.ServerURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
