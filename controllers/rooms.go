package controllers

import (
	"Moneta/services/rooms"
	"Moneta/sync"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Gives info of a room
// @Description Given a room code, returns its roster size, host and state
// @Tags room
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_code path string true "Code of the room"
// @Success 200 {object} object{room_code=string,host_id=string,player_count=integer,started=boolean}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms/{room_code} [get]
// @Security ApiKeyAuth
func GetRoomInfo(registry *rooms.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("room_code")

		snapshot, ok := registry.GetSnapshot(code)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"room_code":    snapshot.RoomCode,
			"host_id":      snapshot.HostID,
			"player_count": len(snapshot.Players),
			"started":      snapshot.State.Started,
			"ended":        snapshot.State.Ended,
			"year":         snapshot.State.CurrentYear,
			"month":        snapshot.State.CurrentMonth,
		})
	}
}

// @Summary Lists the persisted outcome of a finished session
// @Description Returns the per-player records of a finalized room, best first
// @Tags room
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_code path string true "Code of the room"
// @Success 200 {array} sync.PlayerRecord
// @Failure 500 {object} object{error=string}
// @Router /auth/history/{room_code} [get]
// @Security ApiKeyAuth
func GetSessionHistory(syncManager *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("room_code")

		records, err := syncManager.ReadLatestByPlayer(code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading session history"})
			return
		}

		c.JSON(http.StatusOK, records)
	}
}
