// Command dvtreed wires a ctree.Tree to an rcp.Server and serves it over
// TCP. It exists to prove the pieces assemble, the way
// transitorykris-kbgp/cmd and gaissmai-bart/cmd each ship a thin demo atop
// their library rather than exercising every feature.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/client"
	"github.com/brightgate/dvtree/ctree"
	"github.com/brightgate/dvtree/internal/logx"
	"github.com/brightgate/dvtree/rcp"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:4040", "address to listen on")
	flag.Parse()

	logger, err := logx.New()
	if err != nil {
		panic(err)
	}
	defer logx.Sync(logger)

	tree := ctree.NewTree()
	tree.SetErrorLog(logx.ErrorLog(logger))

	if _, err := client.RegisterModule(tree, "/dvtree/server/",
		client.WithString("version", "0.1.0", 0, 64, attr.NoExport, "server build version"),
		client.WithInt("connections", 0, 0, 1<<30, attr.NotifyOnly, "active connection count"),
	); err != nil {
		logger.Fatal("register bootstrap module", zap.Error(err))
	}

	srv := rcp.NewServer(tree,
		rcp.WithErrorLog(logx.ErrorLog(logger)),
	)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", *addr), zap.Error(err))
	}
	logger.Info("dvtreed listening", zap.String("addr", ln.Addr().String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Serve(ctx, ln); err != nil {
		logger.Error("serve exited", zap.Error(err))
	}
	logger.Info("dvtreed stopped")
}
