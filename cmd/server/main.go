// Code scaffolded in the teacher's goctl style. Safe to edit.
package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/config"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/handler"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
)

var configFile = flag.String("f", "etc/syncapi.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	server := rest.MustNewServer(c.RestConf, rest.WithCors("*"))
	defer server.Stop()

	ctx := svc.NewServiceContext(c)
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting sync server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
