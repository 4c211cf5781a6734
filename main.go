package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"farmbot-server/confs"
	"farmbot-server/db"
	"farmbot-server/server"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"
)

var revision = "unknown"

func main() {
	fmt.Printf("farmbot-server %s\n", revision)

	// load config
	opts, err := confs.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogs(opts.Dbg)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	database, err := db.Connect(opts)
	if err != nil {
		log.Fatalf("[ERROR] failed to connect to DB: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGINT, SIGQUIT and SIGTERM

	if err := server.NewServer(database, opts).Start(ctx); err != nil {
		log.Fatalf("[ERROR] server failed: %v", err)
	}
	log.Printf("[INFO] terminated")
}

func setupLogs(dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return
	}
	gin.SetMode(gin.ReleaseMode)
	log.Setup(log.Msec)
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] got %s, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
}
