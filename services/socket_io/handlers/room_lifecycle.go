package handlers

import (
	"Moneta/services/coordinator"
	"Moneta/services/rooms"
	socketio_types "Moneta/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleCreateRoom(registry *rooms.Registry, client *socket.Socket,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		displayName := username
		if name, err := stringArg(args, 0); err == nil {
			displayName = name
		}

		code, err := registry.CreateRoom(username, displayName)
		if err != nil {
			log.Printf("[CREATE-ERROR] Player %s: %v", username, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		client.Join(socket.Room(code))
		client.Emit("room_created", gin.H{
			"room_code": code,
			"host_id":   username,
		})
		log.Printf("[CREATE] Player %s created room %s", username, code)
	}
}

func HandleJoinRoom(registry *rooms.Registry, client *socket.Socket,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		code, err := stringArg(args, 0)
		if err != nil {
			client.Emit("error", gin.H{"error": "Missing room code"})
			return
		}
		displayName := username
		if name, nameErr := stringArg(args, 1); nameErr == nil {
			displayName = name
		}

		snapshot, err := registry.JoinRoom(code, username, displayName)
		if err != nil {
			log.Printf("[JOIN-ERROR] Player %s joining %s: %v", username, code, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		client.Join(socket.Room(code))
		client.Emit("room_joined", gin.H{
			"room_code": code,
			"state":     snapshot,
		})
		sio.ToRoom(code, "player_joined", gin.H{
			"room_code": code,
			"player_id": username,
			"name":      displayName,
		})
		log.Printf("[JOIN] Player %s joined room %s", username, code)
	}
}

func HandleLeaveRoom(registry *rooms.Registry, coord *coordinator.Coordinator,
	client *socket.Socket, username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		leaveCurrentRoom(registry, coord, client, username, sio, "left")
	}
}

// leaveCurrentRoom is shared between the voluntary leave event and socket
// disconnection.
func leaveCurrentRoom(registry *rooms.Registry, coord *coordinator.Coordinator,
	client *socket.Socket, username string, sio *socketio_types.SocketServer, reason string) {

	result, err := registry.LeaveRoom(username)
	if err != nil {
		if err != rooms.ErrPlayerNotInRoom {
			log.Printf("[LEAVE-ERROR] Player %s: %v", username, err)
		}
		return
	}

	if client != nil {
		client.Leave(socket.Room(result.RoomCode))
	}

	sio.ToRoom(result.RoomCode, "player_left", gin.H{
		"room_code": result.RoomCode,
		"player_id": username,
		"was_host":  result.WasHost,
		"reason":    reason,
	})

	if result.Resumed {
		sio.ToRoom(result.RoomCode, "game_resumed", gin.H{
			"room_code": result.RoomCode,
			"reason":    "quiz",
		})
	}

	if result.RoomClosed {
		// Timer is already stopped by the registry; drop key material and
		// any pending broadcast too.
		coord.CleanupRoom(result.RoomCode)
		sio.ToRoom(result.RoomCode, "room_closed", gin.H{
			"room_code": result.RoomCode,
		})
	}
	log.Printf("[LEAVE] Player %s left room %s (%s)", username, result.RoomCode, reason)
}
