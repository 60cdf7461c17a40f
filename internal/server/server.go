// Package server serves the web UI: static files, a WebSocket that accepts
// command tokens and streams notifications, and a small JSON API.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/lua"
	"neopixel-controller/internal/schedule"
)

// Status is the snapshot returned by GET /api/state.
type Status struct {
	Settings    core.Settings `json:"settings"`
	Fingerprint string        `json:"fingerprint"`
	Dirty       bool          `json:"dirty"`
	Scheduler   string        `json:"scheduler"`
	Rendering   interface{}   `json:"rendering,omitempty"`
	Frames      uint64        `json:"frames"`
	Started     uint64        `json:"tasks_started"`
	Handled     uint64        `json:"commands_handled"`
}

// Server manages the HTTP and WebSocket services.
type Server struct {
	Hub        *Hub
	httpServer *http.Server

	queue     *core.Queue
	registry  *effects.Registry
	schedules *schedule.Scheduler
	scripts   *lua.Library
	status    func() Status

	staticFilesDir string
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewServer creates a new server instance.
func NewServer(q *core.Queue, reg *effects.Registry, schedules *schedule.Scheduler, scripts *lua.Library, status func() Status, port string, staticFilesDir string, allowedOrigins []string) *Server {
	s := &Server{
		Hub:            NewHub(),
		queue:          q,
		registry:       reg,
		schedules:      schedules,
		scripts:        scripts,
		status:         status,
		staticFilesDir: staticFilesDir,
		allowedOrigins: allowedOrigins,
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				log.Println("[WS] Warning: CheckOrigin is disabled.")
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			log.Printf("[WS] Connection blocked: Origin '%s' not in allowed list.", origin)
			return false
		},
	}

	s.httpServer = &http.Server{Addr: ":" + port, Handler: s.routes()}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticFilesDir)))
	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/effects", s.handleEffects)
	mux.HandleFunc("POST /api/command", s.handleCommand)

	mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	mux.HandleFunc("POST /api/schedules", s.handleAddSchedule)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.handleRemoveSchedule)

	mux.HandleFunc("GET /api/scripts", s.handleListScripts)
	mux.HandleFunc("GET /api/scripts/{name}", s.handleGetScript)
	mux.HandleFunc("PUT /api/scripts/{name}", s.handleSaveScript)
	mux.HandleFunc("DELETE /api/scripts/{name}", s.handleDeleteScript)
	return mux
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the hub and the HTTP server until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go s.Hub.Run(ctx)
	log.Printf("[Server] Listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.status != nil {
		_ = conn.WriteJSON(NewMessage(MsgStatus, s.status()))
	}

	if !s.Hub.add(conn) {
		return
	}
	defer s.Hub.remove(conn)

	for {
		msgType, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		token := strings.TrimSpace(string(msgBytes))
		if token == "" {
			continue
		}
		core.Submit(s.queue, wsReply{hub: s.Hub, conn: conn}, token)
	}
}

// wsReply reports source specific errors to the sending client only.
type wsReply struct {
	hub  *Hub
	conn *websocket.Conn
}

func (r wsReply) Notify(text string) {
	if err := r.hub.writeTo(r.conn, NewMessage(MsgNotify, text)); err != nil {
		log.Printf("[WS] Reply error: %v", err)
	}
}
