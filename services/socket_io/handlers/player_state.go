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

type playerStateUpdate struct {
	NetWorth  float64                 `json:"net_worth"`
	Breakdown game.PortfolioBreakdown `json:"breakdown"`
}

func HandleUpdatePlayerState(registry *rooms.Registry, coord *coordinator.Coordinator,
	client *socket.Socket, username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing player state"})
			return
		}

		var update playerStateUpdate
		if err := bindArg(args[0], &update); err != nil {
			log.Printf("[STATE-ERROR] Bad state update from %s: %v", username, err)
			client.Emit("error", gin.H{"error": "Invalid player state"})
			return
		}

		if !registry.UpdatePlayerState(username, update.NetWorth, update.Breakdown) {
			client.Emit("error", gin.H{"error": "You are not in a room"})
			return
		}

		code, ok := registry.RoomCodeOf(username)
		if ok {
			// Coalesced: bursts of updates collapse into one trailing push.
			coord.RequestLeaderboardBroadcast(code)
		}
	}
}
