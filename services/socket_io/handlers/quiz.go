package handlers

import (
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleQuizStarted(registry *rooms.Registry, client *socket.Socket,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		category, err := stringArg(args, 0)
		if err != nil {
			client.Emit("error", gin.H{"error": "Missing quiz category"})
			return
		}

		code, err := registry.MarkQuizStarted(username, category)
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		snapshot, _ := registry.GetSnapshot(code)
		sio.ToRoom(code, "game_paused", gin.H{
			"room_code": code,
			"reason":    "quiz",
			"waiting":   snapshot.State.QuizWaiting,
		})
	}
}

func HandleQuizFinished(registry *rooms.Registry, client *socket.Socket,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		category, err := stringArg(args, 0)
		if err != nil {
			client.Emit("error", gin.H{"error": "Missing quiz category"})
			return
		}

		code, shouldResume, err := registry.MarkQuizCompleted(username, category)
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		if shouldResume {
			sio.ToRoom(code, "game_resumed", gin.H{
				"room_code": code,
				"reason":    "quiz",
			})
			log.Printf("[QUIZ] Room %s resumed, all quizzes complete", code)
		} else {
			snapshot, _ := registry.GetSnapshot(code)
			sio.ToRoom(code, "game_paused", gin.H{
				"room_code": code,
				"reason":    "quiz",
				"waiting":   snapshot.State.QuizWaiting,
			})
		}
	}
}
