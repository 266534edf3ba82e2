package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"baatcheet/global"
	"baatcheet/logger"
	"baatcheet/middleware"
	chathdl "baatcheet/module/chat"
	userhdl "baatcheet/module/user"
	chatsrv "baatcheet/service/chat"
	"baatcheet/service/media"
	"baatcheet/service/mgo"
	"baatcheet/service/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	cfg, err := global.Load(*configPath)
	if err != nil {
		logger.Errorf("[main] load config: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	global.ConfigAll(ctx, cfg)

	mediaStore, err := media.NewStore(cfg.Server.MediaDir, cfg.Server.MediaBaseURL)
	if err != nil {
		logger.Errorf("[main] media store: %v", err)
		return
	}

	srv := chatsrv.NewServer(chatsrv.Options{
		SendQueueSize: cfg.Chat.SendQueueSize,
		PingInterval:  cfg.Chat.PingInterval,
		PongTimeout:   cfg.Chat.PongTimeout,
	})

	opts := global.JWTOptions()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Origin(cfg.Server.AllowedOrigins))

	userhdl.NewHandler(opts, mediaStore).RegisterRoutes(r.Group("/api/auth"))
	chathdl.NewHandler(opts, srv.Relay(), mediaStore).RegisterRoutes(r.Group("/api/messages"))
	r.GET("/ws", srv.HandleWS)
	r.Static(cfg.Server.MediaBaseURL, cfg.Server.MediaDir)

	// Handlers hit the database on the first request, so block startup on
	// the initial connection instead of serving 500s.
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mgo.WaitReady(waitCtx); err != nil {
		logger.Errorf("[main] mongo not ready: %v", err)
		return
	}

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Infof("[main] listening on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[main] serve: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[main] shutting down")

	shutCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(shutCtx)
	srv.Close()
	storage.CloseRedis()
	logger.Info("[main] bye")
}
