package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer is a struct that contains the socket.io server and a map of
// socket connections. It is used to handle socket.io connections and
// implements the coordinator's Broadcaster.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track player id -> socket connection
	UserConnections map[string]*socket.Socket
	mutex           sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		UserConnections: make(map[string]*socket.Socket),
	}
}

// Add methods to manage connections
func (s *SocketServer) AddConnection(playerID string, client *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserConnections[playerID] = client
}

func (s *SocketServer) RemoveConnection(playerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.UserConnections, playerID)
}

func (s *SocketServer) GetConnection(playerID string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	client, exists := s.UserConnections[playerID]
	return client, exists
}

// ToRoom broadcasts an event to every socket joined to the room.
func (s *SocketServer) ToRoom(roomCode, event string, payload interface{}) {
	s.Sio_server.To(socket.Room(roomCode)).Emit(event, payload)
}

// ToPlayer delivers an event to a single player's socket, reporting whether
// the player is currently connected.
func (s *SocketServer) ToPlayer(playerID, event string, payload interface{}) bool {
	client, exists := s.GetConnection(playerID)
	if !exists {
		return false
	}
	client.Emit(event, payload)
	return true
}
