package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"farmbot-server/cache"
	"farmbot-server/confs"
	"farmbot-server/db"
	"farmbot-server/handlers"
	httpHandler "farmbot-server/handlers/http"
	"farmbot-server/middlewares"
	"farmbot-server/repositories"
	"farmbot-server/resources"
	"farmbot-server/services"
	"farmbot-server/usecases"
	"farmbot-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"
)

// readings closer than this to the previous kept value are dropped on flush
const readingThreshold = 0.5

type Server struct {
	app  *gin.Engine
	db   db.Database
	opts *confs.Options

	manager   *ws.Manager
	processor *services.DataProcessor
	releases  *services.ReleaseChecker
}

func NewServer(database db.Database, opts *confs.Options) *Server {
	s := &Server{
		app:       gin.Default(),
		db:        database,
		opts:      opts,
		manager:   ws.NewManager(),
		releases:  services.NewReleaseChecker(opts.Releases.URL, opts.Releases.Interval),
		processor: services.NewDataProcessor(repositories.NewResourcePgRepository(database), opts.FlushInterval, readingThreshold),
	}
	s.routes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.app }

func (s *Server) routes() {
	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", httpHandler.RpcIDHeader}
	s.app.Use(cors.New(config))

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "OK",
		})
	})

	// Initialize repositories
	deviceRepo := repositories.NewDevicePgRepository(s.db)
	resourceRepo := repositories.NewResourcePgRepository(s.db)
	commandRepo := repositories.NewCommandPgRepository(s.db)

	// Initialize use cases
	job := resources.NewJob(resourceRepo, s.manager)
	authUseCase := usecases.NewAuthUseCase(s.db, s.opts.JWTSecret, s.opts.TokenTTL)
	deviceUseCase := usecases.NewDeviceUseCase(deviceRepo, cache.NewBotStateCache(), s.releases, s.manager)
	resourceUseCase := usecases.NewResourceUseCase(resourceRepo, job, s.manager)
	commandsUseCase := usecases.NewCommandsUseCase(commandRepo, s.manager)

	// Initialize handlers
	loginHandler := httpHandler.NewLoginHandler(authUseCase)
	deviceHandler := httpHandler.NewDeviceHandler(deviceUseCase, commandsUseCase)
	resourceHandler := httpHandler.NewResourceHandler(resourceUseCase, deviceUseCase)
	cmdHandler := httpHandler.NewCommandHandler(commandsUseCase)
	cacheHandler := handlers.NewCacheHandler(s.processor)
	wsHandler := handlers.NewWSHandler(s.manager, deviceUseCase, commandsUseCase, resources.NewService(job), s.processor)

	auth := middlewares.AuthMiddleware(authUseCase)

	api := s.app.Group("/api/v1")
	{
		// public
		api.POST("/users", loginHandler.Register)
		api.POST("/tokens", loginHandler.Login)
	}

	private := api.Group("", auth)
	{
		device := private.Group("/device")
		{
			device.GET("", deviceHandler.GetDevice)
			device.PUT("", deviceHandler.UpdateDevice)
			device.PATCH("", deviceHandler.UpdateDevice)
			device.DELETE("", deviceHandler.DeleteDevice)
			device.GET("/os_update", deviceHandler.OsUpdate)
			device.POST("/check_updates", deviceHandler.CheckUpdates)
			device.GET("/connected", wsHandler.GetConnectedDevices)
		}

		for _, kind := range resources.Kinds() {
			resourceHandler.Register(private.Group("/"+kind.Plural), kind)
		}
		private.POST("/resources", resourceHandler.RunJob)

		rpc := private.Group("/rpc")
		{
			rpc.POST("", cmdHandler.Enqueue)
			rpc.GET("/poll", cmdHandler.Poll)
			rpc.POST("/ack", cmdHandler.Ack)
		}

		readings := private.Group("/readings")
		{
			readings.POST("/flush", cacheHandler.FlushReadings)
			readings.GET("/stats", cacheHandler.GetCacheStats)
		}
	}

	s.app.GET("/ws", auth, wsHandler.HandleDeviceWS)
	s.app.GET("/ws/sync", auth, wsHandler.HandleSyncWS)
}

// Start runs background workers and serves HTTP until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.processor.Start(ctx)
	s.releases.Start(ctx)

	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] listening on %s", s.opts.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
