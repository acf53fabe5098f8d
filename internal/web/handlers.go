package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/geo"
	"github.com/v7h-lab/Nomen-origins/internal/intent"
	"github.com/v7h-lab/Nomen-origins/internal/markup"
	"github.com/v7h-lab/Nomen-origins/internal/model"
	"github.com/v7h-lab/Nomen-origins/internal/provider"
	"github.com/v7h-lab/Nomen-origins/internal/speech"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

const maxBodyBytes = 1 << 20

type messagePayload struct {
	Role     model.Role       `json:"role"`
	Text     string           `json:"text"`
	Segments []markup.Segment `json:"segments"`
}

// statePayload is a session snapshot with what the page needs to draw it.
type statePayload struct {
	explorer.State
	Gender   string            `json:"gender,omitempty"`
	CanTour  bool              `json:"canTour"`
	Busy     bool              `json:"busy"`
	Markers  []geo.Marker      `json:"markers"`
	Legend   []geo.LegendEntry `json:"legend"`
	Messages []messagePayload  `json:"messages"`
}

func newStatePayload(st explorer.State) statePayload {
	p := statePayload{
		State:    st,
		CanTour:  st.CanTour(),
		Busy:     st.Busy(),
		Markers:  []geo.Marker{},
		Legend:   geo.Legend(),
		Messages: make([]messagePayload, len(st.Transcript)),
	}
	if st.Result != nil {
		p.Gender = st.Result.CompactGender()
		p.Markers = geo.Markers(st.Result.Locations, st.Selected)
	}
	for i, m := range st.Transcript {
		p.Messages[i] = messagePayload{Role: m.Role, Text: m.Text, Segments: markup.Segments(m.Text)}
	}
	return p
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.resolve(w, r)
	writeJSON(w, http.StatusOK, newStatePayload(c.session.Snapshot()))
}

type submitRequest struct {
	Input string `json:"input"`
}

type submitResponse struct {
	Intent string       `json:"intent"`
	State  statePayload `json:"state"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := s.sessions.resolve(w, r)

	in, err := c.session.Submit(detach(r), req.Input)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Intent: in.String(), State: newStatePayload(c.session.Snapshot())})
}

type searchRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := s.sessions.resolve(w, r)

	if err := c.session.Search(detach(r), req.Name); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(c.session.Snapshot()))
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := s.sessions.resolve(w, r)

	if err := c.session.Chat(detach(r), req.Message); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(c.session.Snapshot()))
}

type selectRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "missing 'index'")
		return
	}
	c := s.sessions.resolve(w, r)

	if err := c.session.SelectWaypoint(*req.Index); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(c.session.Snapshot()))
}

func (s *Server) handleTour(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.resolve(w, r)

	switch action := r.PathValue("action"); action {
	case "toggle":
		c.session.ToggleTour()
	case "start":
		c.session.StartTour()
	case "stop":
		c.session.StopTour()
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tour action %q", action))
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(c.session.Snapshot()))
}

type backRequest struct {
	// To is "home", "chat", or empty to pick by transcript.
	To string `json:"to"`
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	var req backRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	c := s.sessions.resolve(w, r)

	switch req.To {
	case "":
		c.session.Back()
	case "home":
		c.session.BackToHome()
	case "chat":
		c.session.BackToChat()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown back target %q", req.To))
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(c.session.Snapshot()))
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	var voices []tour.Voice
	if !decodeBody(w, r, &voices) {
		return
	}
	c := s.sessions.resolve(w, r)
	c.remote.SetVoices(voices)
	w.WriteHeader(http.StatusNoContent)
}

type speechDoneRequest struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func (s *Server) handleSpeechDone(w http.ResponseWriter, r *http.Request) {
	var req speechDoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := s.sessions.resolve(w, r)

	if err := c.remote.Complete(req.ID, req.Error); err != nil {
		// Utterances canceled server side are already complete.
		if errors.Is(err, speech.ErrUnknownUtterance) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	c := s.sessions.resolve(w, r)
	events, unsubscribe := c.hub.subscribe()
	defer func() {
		unsubscribe()
		// Nobody is left to finish what the browser was saying.
		if c.hub.listeners() == 0 {
			if n := c.remote.FailPending(speech.ErrNoListener); n > 0 {
				s.log.Debug("failed pending narration", zap.Int("count", n))
			}
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, eventState, newStatePayload(c.session.Snapshot())); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := s.clock.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.Chan():
			c.touch(s.clock.Now())
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, e.Name, e.Data); err != nil {
				s.log.Warn("writing event", zap.String("event", e.Name), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b)
	return err
}

type classifyResponse struct {
	Input  string `json:"input"`
	Intent string `json:"intent"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing 'q' parameter")
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{Input: q, Intent: intent.Classify(q).String()})
}

// handleProvider answers the provider proxy contract so other instances
// can run with kind = "proxy" and no credentials of their own.
func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	var req provider.ProxyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Action {
	case provider.ActionEtymology:
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "missing 'name'")
			return
		}
		result, err := s.provider.FetchEtymology(r.Context(), req.Name)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case provider.ActionChat:
		text, err := s.provider.FetchReply(r.Context(), req.History, req.Message)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, provider.ProxyChatResponse{Text: text})
	default:
		writeError(w, http.StatusBadRequest, "Invalid action")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, explorer.ErrEmptyInput), errors.Is(err, explorer.ErrNoSuchWaypoint):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("session request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	s.log.Warn("provider request failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, err.Error())
}

// detach keeps a provider call running if the browser gives up on the
// request; its result still lands in the session.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, provider.ProxyErrorResponse{Error: msg})
}
