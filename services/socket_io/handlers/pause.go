package handlers

import (
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleTogglePause(registry *rooms.Registry, client *socket.Socket,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		code, ok := registry.RoomCodeOf(username)
		if !ok {
			client.Emit("error", gin.H{"error": "You are not in a room"})
			return
		}

		paused, toggled := registry.TogglePause(code)
		if !toggled {
			// A manual toggle cannot override a quiz-gated barrier.
			client.Emit("error", gin.H{"error": "Cannot unpause while quizzes are in progress"})
			return
		}

		if paused {
			sio.ToRoom(code, "game_paused", gin.H{
				"room_code": code,
				"reason":    "manual",
			})
		} else {
			sio.ToRoom(code, "game_resumed", gin.H{
				"room_code": code,
				"reason":    "manual",
			})
		}
		log.Printf("[PAUSE] Room %s paused=%v (by %s)", code, paused, username)
	}
}
