package handlers

import (
	"Moneta/services/coordinator"
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"
)

// Function to handle socket.io client disconnections.
func HandleDisconnecting(registry *rooms.Registry, coord *coordinator.Coordinator,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] Player %s disconnecting", username)

		client, _ := sio.GetConnection(username)
		leaveCurrentRoom(registry, coord, client, username, sio, "disconnected")

		sio.RemoveConnection(username)
		log.Printf("[DISCONNECT-DONE] Player disconnected: %s", username)
	}
}
