package handlers

import (
	"Moneta/services/coordinator"
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleRequestKeyExchange(registry *rooms.Registry, coord *coordinator.Coordinator,
	client *socket.Socket, username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		code, ok := registry.RoomCodeOf(username)
		if !ok {
			client.Emit("error", gin.H{"error": "You are not in a room"})
			return
		}

		payload, err := coord.HandleKeyExchange(code, username)
		if err != nil {
			log.Printf("[KEY-EXCHANGE-ERROR] Room %s, player %s: %v", code, username, err)
			client.Emit("error", gin.H{"error": "Session keys are not available yet"})
			return
		}

		// Direct response on top of the push HandleKeyExchange already sent.
		client.Emit("key_exchange_response", payload)
	}
}
