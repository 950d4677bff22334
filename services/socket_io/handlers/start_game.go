package handlers

import (
	"Moneta/models/game"
	"Moneta/services/coordinator"
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleStartGame(registry *rooms.Registry, coord *coordinator.Coordinator,
	client *socket.Socket, username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		code, ok := registry.RoomCodeOf(username)
		if !ok {
			client.Emit("error", gin.H{"error": "You are not in a room"})
			return
		}

		snapshot, found := registry.GetSnapshot(code)
		if !found || snapshot.HostID != username {
			client.Emit("error", gin.H{"error": "Only the host can start the game"})
			return
		}

		var settings game.AdminSettings
		if len(args) > 0 {
			if err := bindArg(args[0], &settings); err != nil {
				log.Printf("[START-ERROR] Bad settings from %s: %v", username, err)
				client.Emit("error", gin.H{"error": "Invalid game settings"})
				return
			}
		}

		if err := coord.BeginSession(code, settings); err != nil {
			log.Printf("[START-ERROR] Room %s: %v", code, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
	}
}
