package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/config"
	"github.com/grocerly/grocerly-backend/internal/app/controller"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	goredis "github.com/redis/go-redis/v9"
)

type Router struct {
	authController         *controller.AuthController
	intakeController       *controller.IntakeController
	applicationController  *controller.ApplicationController
	adminController        *controller.AdminController
	uploadController       *controller.UploadController
	notificationController *controller.NotificationController
	storeController        *controller.StoreController
	productController      *controller.ProductController
	wsController           *controller.WSController
	authMiddleware         *middleware.AuthMiddleware
	redisClient            *goredis.Client
	config                 *config.Config
}

// Controllers groups the HTTP handlers the router mounts.
type Controllers struct {
	Auth         *controller.AuthController
	Intake       *controller.IntakeController
	Applications *controller.ApplicationController
	Admin        *controller.AdminController
	Upload       *controller.UploadController
	Notification *controller.NotificationController
	Stores       *controller.StoreController
	Products     *controller.ProductController
	WS           *controller.WSController
}

// NewRouter wires the handlers. redisClient may be nil, in which case rate
// limits are kept in process memory.
func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	redisClient *goredis.Client,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         controllers.Auth,
		intakeController:       controllers.Intake,
		applicationController:  controllers.Applications,
		adminController:        controllers.Admin,
		uploadController:       controllers.Upload,
		notificationController: controllers.Notification,
		storeController:        controllers.Stores,
		productController:      controllers.Products,
		wsController:           controllers.WS,
		authMiddleware:         authMiddleware,
		redisClient:            redisClient,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Grocerly API is running",
		})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login",
				middleware.RateLimit(r.redisClient, "login", r.config.RateLimit.LoginPerMinute),
				r.authController.Login,
			)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		submitLimit := middleware.RateLimit(r.redisClient, "submit", r.config.RateLimit.SubmitPerMinute)
		// Every draft holds storage until its TTL, so opening one is limited too.
		draftLimit := middleware.RateLimit(r.redisClient, "draft", r.config.RateLimit.SubmitPerMinute*2)
		applications := api.Group("/store-applications", r.authMiddleware.OptionalAuthenticate())
		{
			applications.POST("", submitLimit, r.intakeController.Submit)
			applications.POST("/drafts", draftLimit, r.intakeController.CreateDraft)
			applications.GET("/drafts/:token", r.intakeController.GetDraft)
			applications.PUT("/drafts/:token/steps/:step", r.intakeController.SaveStep)
			applications.POST("/drafts/:token/submit", submitLimit, r.intakeController.SubmitDraft)
		}

		api.POST("/uploads/presigned-url",
			middleware.RateLimit(r.redisClient, "upload", r.config.RateLimit.SubmitPerMinute*6),
			r.uploadController.GeneratePresignedURL,
		)

		me := api.Group("/me", r.authMiddleware.Authenticate())
		{
			me.GET("/application", r.applicationController.Mine)
			me.GET("/store", r.storeController.Mine)

			products := me.Group("/store/products", r.authMiddleware.RequireRole(model.RoleStoreOwner))
			{
				products.POST("", r.productController.Create)
				products.GET("", r.productController.ListMine)
			}
		}

		stores := api.Group("/stores")
		{
			stores.GET("", r.storeController.List)
			stores.GET("/:slug", r.storeController.Get)
			stores.GET("/:slug/products", r.storeController.Products)
		}

		notifications := api.Group("/notifications", r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.List)
			notifications.GET("/unread-count", r.notificationController.UnreadCount)
			notifications.PATCH("/read-all", r.notificationController.MarkAllAsRead)
			notifications.PATCH("/:id/read", r.notificationController.MarkAsRead)
		}

		admin := api.Group("/admin", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin())
		{
			admin.GET("/ws", r.wsController.Connect)
			admin.GET("/stats", r.adminController.Stats)

			owners := admin.Group("/store-owners")
			{
				owners.GET("", r.applicationController.List)
				owners.GET("/export", r.applicationController.Export)
				owners.GET("/:id", r.applicationController.Get)
				owners.POST("", r.applicationController.Decide)
				owners.PATCH("/:id", r.applicationController.UpdateStatus)
			}

			users := admin.Group("/users")
			{
				users.GET("", r.adminController.ListUsers)
				users.PATCH("/:id", r.adminController.UpdateUser)
				users.DELETE("/:id", r.adminController.DeleteUser)
			}

			products := admin.Group("/products")
			{
				products.GET("/pending", r.adminController.PendingProducts)
				products.PATCH("/:id", r.adminController.ModerateProduct)
			}

			stores := admin.Group("/stores")
			{
				stores.GET("", r.adminController.ListStores)
				stores.PATCH("/:id", r.adminController.UpdateStore)
			}
		}
	}

	return router
}

// corsConfig treats an empty list or "*" as allow-all.
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}
