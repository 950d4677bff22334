package socket_io

import (
	models "Moneta/models/postgres"
	"Moneta/middleware"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// VerifyUserConnection authenticates a freshly connected socket from its
// handshake auth data: a bearer token issued at login plus the matching
// account row. Returns the player's username on success.
func VerifyUserConnection(client *socket.Socket, db *gorm.DB) (bool, string) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		client.Emit("error", gin.H{"error": "Authentication failed: missing handshake data"})
		return false, ""
	}

	token, ok := authData["token"].(string)
	if !ok || token == "" {
		client.Emit("error", gin.H{"error": "Authentication failed: missing token"})
		return false, ""
	}

	username, err := middleware.ParseToken(token)
	if err != nil {
		client.Emit("error", gin.H{"error": "Authentication failed: invalid token"})
		return false, ""
	}

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		log.Printf("[AUTH-ERROR] Unknown user %s on socket %s", username, client.Id())
		client.Emit("error", gin.H{"error": "Authentication failed: unknown user"})
		return false, ""
	}

	return true, username
}
