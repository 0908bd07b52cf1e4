/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-servo API
//
// # RESTful APIs to interact with the go-servo server
//
// Schemes: http
// Host: localhost:8060
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package srv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/servolab/go-servo/pkg/capture"
	"github.com/servolab/go-servo/pkg/log"
)

// RegValue ...
type RegValue struct {
	UID   string `json:"uid"`
	Axis  int    `json:"axis"`
	Value string `json:"value"` // hexadecimal
}

// SignalRef names one register on one axis.
type SignalRef struct {
	UID  string `json:"uid"`
	Axis int    `json:"axis"`
}

// TriggerSetup ...
type TriggerSetup struct {
	Mode      string    `json:"mode"` // auto, forced or edge
	Edge      string    `json:"edge"` // rising or falling
	Signal    SignalRef `json:"signal"`
	Threshold float64   `json:"threshold"`
}

// MonitoringSetup configures one capture session in a single request.
type MonitoringSetup struct {
	Registers    []SignalRef  `json:"registers"`
	Divider      int          `json:"divider"`
	TotalTime    float64      `json:"total_time"`    // seconds
	TriggerDelay float64      `json:"trigger_delay"` // seconds from window centre
	Trigger      TriggerSetup `json:"trigger"`
}

// MonitoringStatus ...
type MonitoringStatus struct {
	Generation     string `json:"generation"`
	Enabled        bool   `json:"enabled"`
	Stage          string `json:"stage"`
	FrameAvailable bool   `json:"frame_available"`
}

// CaptureData carries one finished capture, one series per mapped
// channel.
type CaptureData struct {
	SamplingFrequency float64     `json:"sampling_frequency"`
	Channels          [][]float64 `json:"channels"`
}

// DisturbanceSetup ...
type DisturbanceSetup struct {
	Registers []SignalRef `json:"registers"`
	Divider   int         `json:"divider"`
}

// Waveforms ...
type Waveforms struct {
	SamplePeriod float64     `json:"sample_period,omitempty"`
	Channels     [][]float64 `json:"channels"`
}

// TriggerResult ...
type TriggerResult struct {
	Triggered bool `json:"triggered"`
}

func signalKeys(refs []SignalRef) []capture.RegisterKey {
	keys := make([]capture.RegisterKey, len(refs))
	for i, r := range refs {
		keys[i] = capture.RegisterKey{UID: r.UID, Axis: r.Axis}
	}
	return keys
}

func parseTrigger(ts TriggerSetup) (capture.Trigger, error) {
	switch ts.Mode {
	case "", "auto":
		return capture.AutoTrigger(), nil
	case "forced":
		return capture.ForcedTrigger(), nil
	case "edge":
		edge := capture.RisingEdge
		switch ts.Edge {
		case "", "rising":
		case "falling":
			edge = capture.FallingEdge
		default:
			return capture.Trigger{}, ErrUnknownOperation{What: "trigger edge must be one of rising/falling"}
		}
		sig := capture.RegisterKey{UID: ts.Signal.UID, Axis: ts.Signal.Axis}
		return capture.EdgeTrigger(edge, sig, ts.Threshold), nil
	default:
		return capture.Trigger{}, ErrUnknownOperation{What: "trigger mode must be one of auto/forced/edge"}
	}
}

// Run starts the API server and blocks until the context is done or
// the listener fails.
func (s *Server) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.Api.Address, s.Config.Api.Port)
	router := s.configureRouter()
	httpServer := &http.Server{
		Handler: router,
		Addr:    fmt.Sprintf("%s:%d", s.Config.Api.Address, s.Config.Api.Port),
	}
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()
	select {
	case <-s.Context.Done():
		httpServer.Close()
		s.close()
		return s.Context.Err()
	case err := <-errChan:
		s.close()
		return err
	}
}

func (s *Server) configureRouter() *mux.Router {
	router := mux.NewRouter()
	subRouter := router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r/{drive}/{uid}/{axis} read register
	// ---
	// summary: read one register from the drive
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "404":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/reg/r/{drive}/{uid}/{axis:[0-9]+}", s.handleRegRead(false)).Methods("GET")
	subRouter.HandleFunc("/reg/cached/{drive}/{uid}/{axis:[0-9]+}", s.handleRegRead(true)).Methods("GET")
	// swagger:operation POST /reg/w/{drive} write register
	// ---
	// summary: write one register to the drive
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/reg/w/{drive}", s.handleRegWrite()).Methods("POST")
	subRouter.HandleFunc("/monitoring/{action:enable|disable}/{drive}", s.handleMonitoringAction()).Methods("GET")
	subRouter.HandleFunc("/monitoring/status/{drive}", s.handleMonitoringStatus()).Methods("GET")
	subRouter.HandleFunc("/monitoring/setup/{drive}", s.handleMonitoringSetup()).Methods("POST")
	subRouter.HandleFunc("/monitoring/read/{drive}", s.handleMonitoringRead()).Methods("GET")
	subRouter.HandleFunc("/monitoring/stop/{drive}", s.handleMonitoringStop()).Methods("GET")
	subRouter.HandleFunc("/monitoring/forcetrigger/{drive}", s.handleForceTrigger()).Methods("GET")
	subRouter.HandleFunc("/disturbance/{action:enable|disable}/{drive}", s.handleDisturbanceAction()).Methods("GET")
	subRouter.HandleFunc("/disturbance/setup/{drive}", s.handleDisturbanceSetup()).Methods("POST")
	subRouter.HandleFunc("/disturbance/write/{drive}", s.handleDisturbanceWrite()).Methods("POST")
	return router
}

func (s *Server) handleRegRead(cached bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: drive: %s uid: %s axis: %s", vars["drive"], vars["uid"], vars["axis"])
		axis, err := strconv.Atoi(vars["axis"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := s.getDrive(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		var value uint32
		if cached {
			value, err = d.CachedValue(vars["uid"], axis)
		} else {
			value, err = d.Read(vars["uid"], axis)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(&RegValue{
			UID:   vars["uid"],
			Axis:  axis,
			Value: fmt.Sprintf("0x%08x", value),
		})
	}
}

func (s *Server) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		reg := &RegValue{}
		if err := json.NewDecoder(r.Body).Decode(reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling reg write request: drive: %s uid: %s value: %s", vars["drive"], reg.UID, reg.Value)
		value, err := strconv.ParseUint(reg.Value, 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := s.getDrive(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err := d.Write(reg.UID, uint32(value), reg.Axis); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *Server) handleMonitoringAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling monitoring action request: drive: %s action: %s", vars["drive"], vars["action"])
		c, err := s.getController(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		switch vars["action"] {
		case "enable":
			err = c.EnableMonitoring()
		case "disable":
			err = c.DisableMonitoring()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *Server) handleMonitoringStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		c, err := s.getController(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		enabled, err := c.IsMonitoringEnabled()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		stage, err := c.ProcessStage()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		frame, err := c.FrameAvailable()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(&MonitoringStatus{
			Generation:     c.Generation().String(),
			Enabled:        enabled,
			Stage:          stage.String(),
			FrameAvailable: frame,
		})
	}
}

func (s *Server) handleMonitoringSetup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		setup := &MonitoringSetup{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling monitoring setup request: drive: %s registers: %d", vars["drive"], len(setup.Registers))
		c, err := s.getController(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		trig, err := parseTrigger(setup.Trigger)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if setup.Divider == 0 {
			setup.Divider = 1
		}
		m, err := c.CreateMonitoring(signalKeys(setup.Registers), setup.Divider,
			setup.TotalTime, setup.TriggerDelay, trig)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.setMonitoring(vars["drive"], m)
	}
}

func (s *Server) handleMonitoringRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		m, err := s.getMonitoring(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		timeout, err := queryDuration(r, "timeout", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var data [][]float64
		if forced := r.URL.Query().Get("forced"); forced == "true" {
			data, err = m.ReadDataForcedTrigger(timeout)
		} else {
			data, err = m.ReadData(timeout)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(&CaptureData{
			SamplingFrequency: m.SamplingFrequency(),
			Channels:          data,
		})
	}
}

func (s *Server) handleMonitoringStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		m, err := s.getMonitoring(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		m.StopReading()
	}
}

func (s *Server) handleForceTrigger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		m, err := s.getMonitoring(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		timeout, err := queryDuration(r, "timeout", time.Second)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		triggered, err := m.RaiseForcedTrigger(true, timeout)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(&TriggerResult{Triggered: triggered})
	}
}

func (s *Server) handleDisturbanceAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling disturbance action request: drive: %s action: %s", vars["drive"], vars["action"])
		c, err := s.getController(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		switch vars["action"] {
		case "enable":
			err = c.EnableDisturbance()
		case "disable":
			err = c.DisableDisturbance()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *Server) handleDisturbanceSetup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		setup := &DisturbanceSetup{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c, err := s.getController(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if setup.Divider == 0 {
			setup.Divider = 1
		}
		d, err := c.CreateDisturbance(signalKeys(setup.Registers), setup.Divider)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.setDisturbance(vars["drive"], d)
	}
}

func (s *Server) handleDisturbanceWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		waves := &Waveforms{}
		if err := json.NewDecoder(r.Body).Decode(waves); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := s.getDisturbance(vars["drive"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err := d.WriteWaveforms(waves.Channels); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(&Waveforms{SamplePeriod: d.SamplePeriod()})
	}
}

// queryDuration parses a float seconds query parameter.
func queryDuration(r *http.Request, name string, dflt time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return dflt, nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
