package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/frikadellen/baf/internal/bot"
	"github.com/frikadellen/baf/internal/event"
)

const recentEventLimit = 100

// Controller is the bot surface exposed over HTTP.
type Controller interface {
	Status() bot.Status
	OnExecute(text string)
	SetPaused(paused bool)
}

type HttpServer struct {
	logger     *slog.Logger
	server     *http.Server
	controller Controller
	templates  *template.Template
	wsServer   *WebSocketServer

	eventsMux sync.Mutex
	events    []EventEntry
}

// EventEntry is a bot event as shown on the status page.
type EventEntry struct {
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var (
	//go:embed all:templates
	templatesFS embed.FS
)

func New(logger *slog.Logger, controller Controller) (*HttpServer, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"since": func(t time.Time) string {
			return time.Since(t).Round(time.Second).String()
		},
		"lower": strings.ToLower,
	}).ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	s := &HttpServer{
		logger:     logger,
		controller: controller,
		templates:  templates,
	}
	s.wsServer = NewWebSocketServer(logger, s.statusMessage)
	return s, nil
}

// Handler returns the routes served by the status server.
func (s *HttpServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/queue", s.queue)
	mux.HandleFunc("GET /api/events", s.recentEvents)
	mux.HandleFunc("POST /api/execute", s.execute)
	mux.HandleFunc("POST /api/pause", s.togglePause)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)
	return mux
}

// Listen serves until ctx is cancelled.
func (s *HttpServer) Listen(ctx context.Context, port int) error {
	go s.wsServer.Run(ctx)
	go s.BroadcastStatus(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	s.logger.Info("Status server listening", slog.Int("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HttpServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// BroadcastStatus pushes the bot status to every page once a second.
func (s *HttpServer) BroadcastStatus(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if msg := s.statusMessage(); msg != nil {
				s.wsServer.Broadcast(msg)
			}
		}
	}
}

func (s *HttpServer) statusMessage() []byte {
	data, err := json.Marshal(wsMessage{Type: "status", Data: s.controller.Status()})
	if err != nil {
		s.logger.Error("Failed to marshal status data", slog.Any("error", err))
		return nil
	}
	return data
}

// Handle records events for the status page and forwards them to open websockets.
func (s *HttpServer) Handle(_ context.Context, e event.Event) error {
	entry := EventEntry{Type: eventType(e), Message: e.Message(), OccurredAt: e.OccurredAt()}

	s.eventsMux.Lock()
	s.events = append(s.events, entry)
	if len(s.events) > recentEventLimit {
		s.events = s.events[len(s.events)-recentEventLimit:]
	}
	s.eventsMux.Unlock()

	data, err := json.Marshal(wsMessage{Type: "event", Data: entry})
	if err != nil {
		return err
	}
	s.wsServer.Broadcast(data)
	return nil
}

func eventType(e event.Event) string {
	name := fmt.Sprintf("%T", e)
	name = name[strings.LastIndex(name, ".")+1:]
	return strings.TrimSuffix(name, "Event")
}

func (s *HttpServer) index(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status bot.Status
		Events []EventEntry
	}{
		Status: s.controller.Status(),
		Events: s.snapshotEvents(),
	}
	if err := s.templates.ExecuteTemplate(w, "index.gohtml", data); err != nil {
		s.logger.Error("Failed to render index template", slog.Any("error", err))
	}
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *HttpServer) queue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status().Queue)
}

func (s *HttpServer) recentEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotEvents())
}

func (s *HttpServer) snapshotEvents() []EventEntry {
	s.eventsMux.Lock()
	defer s.eventsMux.Unlock()
	out := make([]EventEntry, len(s.events))
	copy(out, s.events)
	return out
}

func (s *HttpServer) execute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	command := strings.TrimSpace(req.Command)
	if command == "" {
		http.Error(w, "command is required", http.StatusBadRequest)
		return
	}

	s.controller.OnExecute(command)
	s.logger.Info("Command queued from status page", slog.String("command", command))
	writeJSON(w, http.StatusAccepted, map[string]string{"queued": command})
}

func (s *HttpServer) togglePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.controller.SetPaused(req.Paused)
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
