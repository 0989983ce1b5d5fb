package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"shopchat/global"
	"shopchat/logger"
	midsec "shopchat/middleware/security"
	chatsvc "shopchat/module/chat/service"
	usersvc "shopchat/module/user/service"
	"shopchat/service/chat"
	"shopchat/service/mgo"
	"shopchat/service/storage"
	redisstore "shopchat/service/storage/redis"
	"shopchat/tools/ids"
	"shopchat/tools/security"
)

func main() {
	cfg := global.Load()
	ids.SetNodeID(cfg.NodeID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mgo.Init(ctx, &mgo.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase}); err != nil {
		logger.Errorf("[boot] mongodb: %v", err)
		return
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = mgo.Close(cctx)
	}()

	// Presence mirroring is optional; the gateway runs without redis.
	var online chat.OnlineTracker
	var onlineStore *storage.OnlineStore
	if err := redisstore.Init(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Warnf("[boot] redis unavailable, presence mirroring disabled: %v", err)
	} else {
		onlineStore = storage.NewOnlineStore(redisstore.Get(), storage.OnlineConfig{TTL: 5 * time.Minute})
		online = onlineStore
		defer func() { _ = redisstore.Close() }()
	}

	jwtOpts := security.DefaultOptions(cfg.JWTSecret)
	db := mgo.GetDB()

	gw := chat.NewServer(chat.Deps{
		Verifier:  chat.JWTVerifier{Opts: jwtOpts},
		Users:     usersvc.NewUserService(db),
		Messages:  chatsvc.NewMessageService(db),
		Online:    online,
		QueueSize: cfg.SendQueueSize,
	})

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(cfg.WSPath, gw.HandleWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api", midsec.Middleware(jwtOpts))
	api.GET("/presence", func(c *gin.Context) {
		if onlineStore == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "Presence tracking unavailable"}})
			return
		}
		emails, err := onlineStore.ListOnline(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to list online users"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": emails})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		logger.Infof("[http] listening on %s (ws path %s)", cfg.HTTPAddr, cfg.WSPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[http] server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warnf("[http] shutdown: %v", err)
	}
	gw.Close()
}
