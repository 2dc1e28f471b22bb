package server

import (
	"net/http"

	"style-rush/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store RoomStore
	db    *gorm.DB
	cfg   config.Config
	stop  chan struct{}
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store: NewRoomStore(),
		db:    conn,
		cfg:   cfg,
		stop:  make(chan struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/queue/join", s.handleJoinQueue)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /api/themes", s.handleThemes)
	mux.HandleFunc("GET /ws/rooms/", s.handleRoomWebsocket)
	return mux
}
