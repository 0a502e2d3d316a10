package server

import (
	"time"

	"social-publisher/domain/repository"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"}

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	connectionHandler httpHandler.IConnectionHandler,
	contentHandler httpHandler.IContentHandler,
	webhookHandler httpHandler.IWebhookHandler,
	healthHandler httpHandler.IHealthHandler,
	contentStream gin.HandlerFunc,
	userRepository repository.IUser,
	secretKey string,
	origins ...string,
) *gin.Engine {
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			_, ok := allowed[origin]
			return ok
		},
		MaxAge: 12 * time.Hour,
	}))

	auth := middleware.Auth(userRepository, secretKey)

	router.POST("/login", userHandler.Login)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)
	router.GET("/metrics", healthHandler.Metrics)

	// OAuth connection flow; the callback is authenticated by its state parameter
	router.GET("/:platform/connect", auth, connectionHandler.Connect)
	router.GET("/:platform/callback", connectionHandler.Callback)
	router.POST("/:platform/disconnect", auth, connectionHandler.Disconnect)
	router.GET("/social-profiles/status", auth, connectionHandler.Status)

	// Platform webhooks are verified by signature, not by user token
	if webhookHandler != nil {
		router.GET("/webhooks/:platform", webhookHandler.Verify)
		router.POST("/webhooks/:platform", webhookHandler.Receive)
	}

	api := router.Group("api")
	api.Use(auth)

	content := api.Group("/content")
	{
		content.POST("", contentHandler.Create)
		if contentStream != nil {
			content.GET("/stream", contentStream)
		}
		content.GET("/:id", contentHandler.Get)
		content.POST("/:id/schedule", contentHandler.Schedule)
		content.POST("/:id/cancel", contentHandler.Cancel)
		content.POST("/:id/publish", contentHandler.Publish)
		content.GET("/:id/metrics", contentHandler.Metrics)
		content.DELETE("/:id/posts", contentHandler.DeletePosts)
		content.GET("/:id/audit", contentHandler.History)
	}
	api.POST("/scheduler/run", contentHandler.RunScheduler)

	if webhookHandler != nil {
		api.GET("/webhooks/events", webhookHandler.Inbox)
		api.POST("/webhooks/events/:id/read", webhookHandler.MarkRead)
	}

	return router
}
