package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/lua"
)

const maxBodySize = 64 << 10

// EffectInfo describes one registered effect.
type EffectInfo struct {
	Name       string `json:"name"`
	NeedsColor bool   `json:"needs_color"`
}

type scheduleRequest struct {
	Spec    string `json:"spec"`
	Command string `json:"command"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("state not available"))
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	out := make([]EffectInfo, 0, len(list))
	for _, e := range list {
		out = append(out, EffectInfo{Name: string(e.Mode), NeedsColor: e.NeedsColor})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCommand queues the request body as one command token.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	token := strings.TrimSpace(string(body))
	if token == "" {
		writeError(w, http.StatusBadRequest, errors.New("empty command"))
		return
	}
	if err := s.queue.TryPut(token); err != nil {
		writeError(w, http.StatusServiceUnavailable, errors.New(core.QueueFullMessage))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"queued": token})
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.schedules.List())
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := s.schedules.Add(req.Spec, req.Command)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.Hub.Broadcast(NewMessage("schedule_list", s.schedules.List()))
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.schedules.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.Hub.Broadcast(NewMessage("schedule_list", s.schedules.List()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	names, err := s.scripts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	code, err := s.scripts.Code(r.PathValue("name"))
	if err != nil {
		writeError(w, scriptStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/x-lua; charset=utf-8")
	_, _ = io.WriteString(w, code)
}

// handleSaveScript validates and stores a script. Saved scripts are picked up
// by the effect registry on the next start.
func (s *Server) handleSaveScript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	script, err := lua.Probe(strings.TrimSuffix(name, ".lua"), string(body))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.scripts.Save(name, string(body)); err != nil {
		writeError(w, scriptStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, EffectInfo{Name: script.Name, NeedsColor: script.NeedsColor})
}

func (s *Server) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	if err := s.scripts.Delete(r.PathValue("name")); err != nil {
		writeError(w, scriptStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scriptStatus(err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, lua.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
