package handlers

import (
	"Moneta/services/coordinator"
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleSubmitNetworth(registry *rooms.Registry, coord *coordinator.Coordinator,
	client *socket.Socket, username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing net worth claim"})
			return
		}

		var claim coordinator.NetworthClaim
		if err := bindArg(args[0], &claim); err != nil {
			log.Printf("[NETWORTH-ERROR] Bad claim from %s: %v", username, err)
			client.Emit("error", gin.H{"error": "Invalid net worth claim"})
			return
		}

		code, ok := registry.RoomCodeOf(username)
		if !ok {
			client.Emit("error", gin.H{"error": "You are not in a room"})
			return
		}

		result, err := coord.ValidateNetworthClaim(code, username, claim)
		if err != nil {
			log.Printf("[NETWORTH-ERROR] Room %s, player %s: %v", code, username, err)
			client.Emit("error", gin.H{"error": "Could not validate net worth"})
			return
		}

		client.Emit("networth_validation", result)
	}
}
