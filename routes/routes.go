package routes

import (
	"Moneta/controllers"
	"Moneta/middleware"
	"Moneta/services/rooms"
	"Moneta/sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, registry *rooms.Registry, syncManager *sync.SyncManager) {
	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.GET("/rooms/:room_code", controllers.GetRoomInfo(registry))

		authentication.GET("/history/:room_code", controllers.GetSessionHistory(syncManager))
	}
}
