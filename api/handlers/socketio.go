package handlers

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/lexconnect/lexconnect-api/models"
)

var server *socketio.Server

// InitializeSocketIO initializes the Socket.IO server used for live message
// relay. Clients join one room per booking thread they have open.
func InitializeSocketIO() *socketio.Server {
	server = socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			polling.Default,
			websocket.Default,
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		log.Println("Socket.IO client connected:", s.ID())
		return nil
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("Socket.IO error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Println("Socket.IO client disconnected:", s.ID(), "reason:", reason)
	})

	server.OnEvent("/", "join", func(s socketio.Conn, userID string) {
		s.SetContext(userID)
		log.Println("Client identified as user:", userID)
	})

	server.OnEvent("/", "join_booking", func(s socketio.Conn, bookingID string) {
		s.Join(bookingID)
		log.Println("Client joined booking:", bookingID)
	})

	server.OnEvent("/", "leave_booking", func(s socketio.Conn, bookingID string) {
		s.Leave(bookingID)
		log.Println("Client left booking:", bookingID)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("Socket.IO server error: %v", err)
		}
	}()

	return server
}

// GetSocketIOServer returns the Socket.IO server instance
func GetSocketIOServer() *socketio.Server {
	return server
}

// EmitNewMessage relays a freshly stored message to everyone with the
// booking's thread open.
func EmitNewMessage(bookingID string, message models.Message) {
	if server != nil {
		server.BroadcastToRoom("/", bookingID, "new_message", message)
	}
}
