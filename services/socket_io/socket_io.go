package socket_io

import (
	"Moneta/services/coordinator"
	"Moneta/services/rooms"
	"Moneta/services/socket_io/handlers"
	socketio_types "Moneta/services/socket_io/types"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

func (sio *MySocketServer) Start(router *gin.Engine, db *gorm.DB,
	registry *rooms.Registry, coord *coordinator.Coordinator) {

	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.UserConnections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Check if the client is authenticated
		success, username := VerifyUserConnection(client, db)
		if !success {
			return
		}

		server := (*socketio_types.SocketServer)(sio)
		server.AddConnection(username, client)
		log.Printf("[CONNECT] Player connected: %s (socket %s)", username, client.Id())

		// Room lifecycle
		client.On("create_room", handlers.HandleCreateRoom(registry, client, username, server))
		client.On("join_room", handlers.HandleJoinRoom(registry, client, username, server))
		client.On("leave_room", handlers.HandleLeaveRoom(registry, coord, client, username, server))

		// Session control (host)
		client.On("start_game", handlers.HandleStartGame(registry, coord, client, username, server))
		client.On("toggle_pause", handlers.HandleTogglePause(registry, client, username, server))

		// Per-player state and quiz gating
		client.On("update_player_state", handlers.HandleUpdatePlayerState(registry, coord, client, username, server))
		client.On("quiz_started", handlers.HandleQuizStarted(registry, client, username, server))
		client.On("quiz_finished", handlers.HandleQuizFinished(registry, client, username, server))

		// Price confidentiality and anti-cheat
		client.On("request_key_exchange", handlers.HandleRequestKeyExchange(registry, coord, client, username, server))
		client.On("submit_networth", handlers.HandleSubmitNetworth(registry, coord, client, username, server))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(registry, coord, username, server))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	log.Println("Socket server started")
}
