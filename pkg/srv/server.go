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

package srv

import (
	"context"
	"sync"

	"github.com/servolab/go-servo/pkg/capture"
	"github.com/servolab/go-servo/pkg/config"
	"github.com/servolab/go-servo/pkg/drive"
	"github.com/servolab/go-servo/pkg/log"
)

// Server owns the connections to all configured drives and the capture
// sessions running against them, and exposes both over the REST API.
type Server struct {
	context.Context
	*config.Config

	state  *drive.State
	drives map[string]*drive.Drive
	ctrls  map[string]*capture.Controller

	mu           sync.Mutex
	monitorings  map[string]*capture.Monitoring
	disturbances map[string]*capture.Disturbance
}

// NewServer dials every configured drive and probes its firmware
// generation.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	names := make([]string, 0, len(cfg.Drives))
	for _, d := range cfg.Drives {
		names = append(names, d.Name)
	}
	state, err := drive.NewState(cfg.DBPath, names)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Context:      ctx,
		Config:       cfg,
		state:        state,
		drives:       make(map[string]*drive.Drive),
		ctrls:        make(map[string]*capture.Controller),
		monitorings:  make(map[string]*capture.Monitoring),
		disturbances: make(map[string]*capture.Disturbance),
	}
	for _, name := range names {
		d, err := drive.New(cfg, name, state)
		if err != nil {
			s.close()
			return nil, err
		}
		s.drives[name] = d
		s.ctrls[name] = capture.NewController(d)
		log.Info("Connected to drive %s, monitoring generation %s", name, s.ctrls[name].Generation())
	}
	return s, nil
}

func (s *Server) close() {
	for _, d := range s.drives {
		d.Close()
	}
	s.state.Close()
}

func (s *Server) getDrive(name string) (*drive.Drive, error) {
	d, ok := s.drives[name]
	if !ok {
		return nil, config.ErrDriveNotFound{Name: name}
	}
	return d, nil
}

func (s *Server) getController(name string) (*capture.Controller, error) {
	c, ok := s.ctrls[name]
	if !ok {
		return nil, config.ErrDriveNotFound{Name: name}
	}
	return c, nil
}

func (s *Server) getMonitoring(name string) (*capture.Monitoring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.monitorings[name]
	if !ok {
		return nil, ErrNoSession{Drive: name, What: "monitoring"}
	}
	return m, nil
}

func (s *Server) setMonitoring(name string, m *capture.Monitoring) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitorings[name] = m
}

func (s *Server) getDisturbance(name string) (*capture.Disturbance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disturbances[name]
	if !ok {
		return nil, ErrNoSession{Drive: name, What: "disturbance"}
	}
	return d, nil
}

func (s *Server) setDisturbance(name string, d *capture.Disturbance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disturbances[name] = d
}
