package server

import (
	"fmt"
	"net/http"

	"github.com/delorenj/vaultsync/internal/server/handlers/api"
	"github.com/delorenj/vaultsync/internal/server/handlers/blob"
	"github.com/delorenj/vaultsync/internal/server/middlewares"
	"github.com/delorenj/vaultsync/internal/version"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(config *Config, svc *Services) (http.Handler, error) {
	rateLimit := config.HTTP.RateLimit
	if rateLimit == "" {
		rateLimit = DefaultRateLimit
	}
	limiter, err := middlewares.RateLimiter(rateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	r := gin.New()
	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.Secure(config.HTTP.TLS()))
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())

	blobH := blob.New(svc.Blob)

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	facade := r.Group("/")
	facade.Use(limiter, middlewares.BearerToken(config.APIToken))
	{
		facade.GET("/api/list", blobH.ListObjects)
		facade.POST("/api/sync", blobH.SyncBatch)
		facade.DELETE("/api/delete-all", blobH.DeleteAll)

		facade.GET("/files/*path", blobH.GetFile)
		facade.PUT("/files/*path", blobH.PutFile)
		facade.DELETE("/files/*path", blobH.DeleteFile)
	}

	r.NoRoute(func(ctx *gin.Context) {
		ctx.PureJSON(http.StatusNotFound, api.APIError{Code: api.CodeNotFound, Message: "not found"})
	})

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(ctx *gin.Context) {
		ctx.PureJSON(http.StatusMethodNotAllowed, api.APIError{Code: api.CodeInvalidRequest, Message: "method not allowed"})
	})

	return r.Handler(), nil
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
