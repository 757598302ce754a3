// Package api provides the read-only HTTP API for observing a run.
// Handlers serve the latest finalized snapshot; nothing here can reach into
// a tick in progress.
// See design doc Section 10.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/setomorph/crucible/internal/chronicle"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
	"github.com/setomorph/crucible/internal/topology"
)

// Server holds the published view of a run. The driver calls Publish at each
// tick boundary; handlers read the published pair under a read lock, so a
// request never sees a half-applied tick.
type Server struct {
	RunID string
	Addr  string

	// Throttle guards the chronicle endpoint. Nil disables throttling.
	Throttle *Throttle

	mu   sync.RWMutex
	snap state.Snapshot
	topo topology.Record
	set  bool
}

// Publish replaces the served snapshot and topology reading.
func (s *Server) Publish(snap state.Snapshot, rec topology.Record) {
	s.mu.Lock()
	s.snap = snap
	s.topo = rec
	s.set = true
	s.mu.Unlock()
}

func (s *Server) view() (state.Snapshot, topology.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.topo, s.set
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/entities", s.handleEntities)
	mux.HandleFunc("/api/v1/entity/", s.handleEntityDetail)
	mux.HandleFunc("/api/v1/relationships", s.handleRelationships)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/topology", s.handleTopology)
	if s.Throttle != nil {
		mux.HandleFunc("/api/v1/chronicle", s.Throttle.Wrap(s.handleChronicle))
	} else {
		mux.HandleFunc("/api/v1/chronicle", s.handleChronicle)
	}
	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	slog.Info("HTTP API starting", "addr", s.Addr, "run_id", s.RunID)
	go func() {
		if err := http.ListenAndServe(s.Addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, topo, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	var population int64
	var wealth float64
	classes, territories := 0, 0
	for _, e := range snap.Entities {
		if !e.Active {
			continue
		}
		if e.Class() {
			classes++
			population += e.Population
			wealth += e.Wealth
		} else {
			territories++
		}
	}

	writeJSON(w, map[string]any{
		"run_id":      s.RunID,
		"tick":        snap.Tick,
		"classes":     classes,
		"territories": territories,
		"population":  population,
		"wealth":      wealth,
		"events":      len(snap.Events),
		"phase":       topo.Phase,
	})
}

type entitySummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Active       bool    `json:"active"`
	Population   int64   `json:"population,omitempty"`
	Wealth       float64 `json:"wealth,omitempty"`
	Ideology     float64 `json:"ideology,omitempty"`
	Organization float64 `json:"organization,omitempty"`
	Repression   float64 `json:"repression,omitempty"`
	Inequality   float64 `json:"inequality,omitempty"`
	Heat         float64 `json:"heat,omitempty"`
	Profile      string  `json:"profile,omitempty"`
	Capacity     float64 `json:"capacity,omitempty"`
}

func summarize(e state.Entity) entitySummary {
	out := entitySummary{
		ID:     string(e.ID),
		Name:   e.Name,
		Kind:   e.Kind.String(),
		Active: e.Active,
	}
	if e.Class() {
		out.Population = e.Population
		out.Wealth = e.Wealth
		out.Ideology = e.Ideology
		out.Organization = e.Organization
		out.Repression = e.Repression
		out.Inequality = e.Inequality
	} else {
		out.Heat = e.Heat
		out.Profile = e.Profile.String()
		out.Capacity = e.Capacity
	}
	return out
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	kindFilter := r.URL.Query().Get("kind")
	activeOnly := r.URL.Query().Get("active") == "true"

	ids := make([]state.EntityID, 0, len(snap.Entities))
	for id := range snap.Entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]entitySummary, 0, len(ids))
	for _, id := range ids {
		e := snap.Entities[id]
		if kindFilter != "" && e.Kind.String() != kindFilter {
			continue
		}
		if activeOnly && !e.Active {
			continue
		}
		result = append(result, summarize(e))
	}
	writeJSON(w, result)
}

type relationshipSummary struct {
	Kind     string  `json:"kind"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
	Tension  float64 `json:"tension,omitempty"`
}

func (s *Server) handleEntityDetail(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	id := state.EntityID(strings.TrimPrefix(r.URL.Path, "/api/v1/entity/"))
	e, found := snap.Entity(id)
	if !found {
		http.Error(w, "unknown entity", http.StatusNotFound)
		return
	}

	var edges []relationshipSummary
	for _, rel := range snap.Relationships {
		if !rel.Touches(id) {
			continue
		}
		edges = append(edges, relationshipSummary{
			Kind:     rel.Kind.String(),
			Source:   string(rel.Source),
			Target:   string(rel.Target),
			Strength: rel.Strength,
			Tension:  rel.Tension,
		})
	}
	writeJSON(w, map[string]any{
		"entity":        summarize(e),
		"relationships": edges,
	})
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	kindFilter := r.URL.Query().Get("kind")
	result := make([]relationshipSummary, 0, len(snap.Relationships))
	for _, rel := range snap.Relationships {
		if kindFilter != "" && rel.Kind.String() != kindFilter {
			continue
		}
		result = append(result, relationshipSummary{
			Kind:     rel.Kind.String(),
			Source:   string(rel.Source),
			Target:   string(rel.Target),
			Strength: rel.Strength,
			Tension:  rel.Tension,
		})
	}
	writeJSON(w, result)
}

type eventEntry struct {
	Tick     uint64        `json:"tick"`
	Kind     string        `json:"kind"`
	Category string        `json:"category"`
	Payload  event.Payload `json:"payload"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	categoryFilter := r.URL.Query().Get("category")

	events := snap.Events
	if categoryFilter != "" {
		var filtered []event.Event
		for _, ev := range events {
			if string(ev.Kind.Category()) == categoryFilter {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	result := make([]eventEntry, 0, len(events)-start)
	for _, ev := range events[start:] {
		result = append(result, eventEntry{
			Tick:     ev.Tick,
			Kind:     string(ev.Kind),
			Category: string(ev.Kind.Category()),
			Payload:  ev.Payload,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	_, topo, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, topo)
}

// handleChronicle serves the plain-text dispatch for the last N ticks
// (?ticks=N, default 10).
func (s *Server) handleChronicle(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := s.view()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	window := uint64(10)
	if t := r.URL.Query().Get("ticks"); t != "" {
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			window = n
		}
	}
	from := uint64(1)
	if snap.Tick > window {
		from = snap.Tick - window + 1
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(chronicle.Render(snap, from, snap.Tick)))
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
