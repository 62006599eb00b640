// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package robot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aamcrae/gryphon/auto"
	"github.com/aamcrae/gryphon/io"
)

// Server is the robot's HTTP interface: status, driver station input,
// camera stream, telemetry and metrics.
type Server struct {
	name      string
	station   *Station
	telemetry *Telemetry
	metrics   *Metrics
	camera    *io.Camera
	logger    *zap.SugaredLogger
	control   xMutex
	upgrader  websocket.Upgrader
}

// NewServer creates the server. The camera may be nil.
func NewServer(name string, st *Station, t *Telemetry, m *Metrics, cam *io.Camera, logger *zap.SugaredLogger) *Server {
	return &Server{
		name:      name,
		station:   st,
		telemetry: t,
		metrics:   m,
		camera:    cam,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the handler for all the server's endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.status)
	mux.HandleFunc("/routine.png", s.routine)
	mux.HandleFunc("/match", s.match)
	mux.HandleFunc("/mode", s.mode)
	mux.HandleFunc("/ds", s.ds)
	mux.HandleFunc("/telemetry", s.records)
	mux.Handle("/metrics", s.metrics.Handler())
	if s.camera != nil {
		mux.Handle("/camera", s.camera)
	}
	return mux
}

// ListenAndServe serves on addr until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(sctx)
	}()
	s.logger.Infow("starting server", "addr", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Status is the robot state returned by /status.
type Status struct {
	Name    string       `json:"name"`
	Station StationState `json:"station"`
	Last    *Record      `json:"last,omitempty"`
	Frames  int          `json:"camera_frames,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	st := Status{Name: s.name, Station: s.station.State()}
	if rec, ok := s.telemetry.Last(); ok {
		st.Last = &rec
	}
	if s.camera != nil {
		st.Frames = s.camera.Frames()
	}
	writeJSON(w, st)
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	recs := s.telemetry.Records()
	if n, err := strconv.Atoi(r.FormValue("n")); err == nil && n >= 0 && n < len(recs) {
		recs = recs[len(recs)-n:]
	}
	writeJSON(w, recs)
}

// match sets the game message and driver station location.
func (s *Server) match(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not supported", http.StatusMethodNotAllowed)
		return
	}
	loc, err := strconv.Atoi(r.FormValue("location"))
	if err != nil {
		http.Error(w, fmt.Sprintf("location: %v", err), http.StatusBadRequest)
		return
	}
	game := r.FormValue("game")
	s.station.SetMatch(game, loc)
	s.logger.Infow("match data set", "game", game, "location", loc)
	writeJSON(w, s.station.State())
}

// mode sets the robot mode.
func (s *Server) mode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not supported", http.StatusMethodNotAllowed)
		return
	}
	m, err := ParseMode(r.FormValue("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.station.SetMode(m)
	writeJSON(w, s.station.State())
}

// ds reads driver station packets from a websocket. Only one driver station
// may be connected; when it goes away the robot is disabled.
func (s *Server) ds(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache")
	if err := s.control.Lock(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	defer s.control.Unlock()
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("upgrading websocket", "error", err)
		return
	}
	defer ws.Close()
	s.logger.Infow("driver station connected", "remote", r.RemoteAddr)
	defer func() {
		s.station.SetMode(Disabled)
		s.logger.Infow("driver station disconnected, disabling", "remote", r.RemoteAddr)
	}()
	for {
		var p Packet
		if err := ws.ReadJSON(&p); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnw("reading driver station packet", "error", err)
			}
			return
		}
		if err := s.station.Update(p); err != nil {
			s.logger.Warnw("bad driver station packet", "error", err)
		}
	}
}

func (s *Server) routine(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		if rec, ok := s.telemetry.Last(); ok {
			name = rec.Routine
		}
	}
	rt := auto.Default
	if name != "" {
		if rt = auto.ByName(name); rt == nil {
			http.Error(w, fmt.Sprintf("%s: unknown routine", name), http.StatusNotFound)
			return
		}
	}
	w.Header().Set("Content-Type", "image/png")
	if err := drawRoutine(rt).EncodePNG(w); err != nil {
		s.logger.Warnw("writing routine image", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const (
	chartWidth  = 900
	laneHeight  = 50
	chartMargin = 60
)

// drawRoutine draws a timeline of the routine, one lane per actuator.
// Forward power is drawn green and reverse power red, shaded by magnitude.
func drawRoutine(rt *auto.Routine) *gg.Context {
	end := rt.Last() + time.Second
	height := 2*chartMargin + laneHeight*len(auto.Actuators)
	c := gg.NewContext(chartWidth, height)
	c.SetRGB(1, 1, 1)
	c.Clear()
	scale := float64(chartWidth-2*chartMargin) / end.Seconds()
	x := func(d time.Duration) float64 {
		if d > end {
			d = end
		}
		return chartMargin + d.Seconds()*scale
	}
	c.SetRGB(0, 0, 0)
	c.DrawStringAnchored(rt.Name, chartWidth/2, chartMargin/2, 0.5, 0.5)
	for i, a := range auto.Actuators {
		y := float64(chartMargin + i*laneHeight)
		c.SetRGB(0, 0, 0)
		c.DrawStringAnchored(a.String(), chartMargin-6, y+laneHeight/2, 1, 0.5)
		for _, st := range rt.Steps {
			o, ok := st.Command.Output(a)
			if !ok {
				continue
			}
			p := o.Left
			if math.Abs(o.Right) > math.Abs(p) {
				p = o.Right
			}
			shade := 1 - math.Min(1, math.Abs(p))*0.8
			if p >= 0 {
				c.SetRGB(shade, 0.8, shade)
			} else {
				c.SetRGB(0.9, shade, shade)
			}
			c.DrawRectangle(x(st.Start), y+4, x(st.End)-x(st.Start), laneHeight-8)
			c.Fill()
		}
	}
	// Time axis, with a tick each second and a line at each step boundary.
	bottom := float64(chartMargin + laneHeight*len(auto.Actuators))
	c.SetRGB(0, 0, 0)
	c.SetLineWidth(1)
	c.DrawLine(chartMargin, bottom, x(end), bottom)
	c.Stroke()
	for t := time.Duration(0); t <= end; t += time.Second {
		c.DrawLine(x(t), bottom, x(t), bottom+5)
		c.Stroke()
		c.DrawStringAnchored(strconv.Itoa(int(t/time.Second)), x(t), bottom+15, 0.5, 0.5)
	}
	c.SetRGBA(0, 0, 1, 0.4)
	c.SetDash(4, 4)
	for _, b := range rt.Boundaries() {
		c.DrawLine(x(b), chartMargin, x(b), bottom)
		c.Stroke()
	}
	return c
}

// xMutex is a lock that fails rather than waits if already held.
type xMutex struct {
	lck   sync.Mutex
	inuse bool
}

func (xm *xMutex) Lock() error {
	xm.lck.Lock()
	defer xm.lck.Unlock()
	if xm.inuse {
		return errors.New("driver station already connected")
	}
	xm.inuse = true
	return nil
}

func (xm *xMutex) Unlock() {
	xm.lck.Lock()
	defer xm.lck.Unlock()
	xm.inuse = false
}
