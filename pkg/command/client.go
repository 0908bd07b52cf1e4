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

// Package command implements the client side of the go-servo REST API,
// used by the CLI subcommands that talk to a running server.
package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/servolab/go-servo/pkg/config"
	"github.com/servolab/go-servo/pkg/srv"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.Api.Address, cfg.Api.Port),
	}
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != 200 {
		body, _ := r.ToString()
		if body != "" {
			return errors.New(body)
		}
		return errors.New(r.Response().Status)
	}
	return nil
}

// RegRead requests the value of one drive register.
func (c *ApiClient) RegRead(drive, uid string, axis int) (string, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r/%s/%s/%d", c.ApiPrefix, drive, uid, axis))
	if err != nil {
		return "", err
	}
	if err := checkStatus(r); err != nil {
		return "", err
	}
	reg := &srv.RegValue{}
	if err := r.ToJSON(reg); err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegReadCached requests the last observed value of one drive register
// without a drive round trip.
func (c *ApiClient) RegReadCached(drive, uid string, axis int) (string, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/cached/%s/%s/%d", c.ApiPrefix, drive, uid, axis))
	if err != nil {
		return "", err
	}
	if err := checkStatus(r); err != nil {
		return "", err
	}
	reg := &srv.RegValue{}
	if err := r.ToJSON(reg); err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegWrite writes the value to one drive register.
func (c *ApiClient) RegWrite(drive, uid, value string, axis int) error {
	reg := &srv.RegValue{
		UID:   uid,
		Axis:  axis,
		Value: value,
	}
	r, err := req.Post(fmt.Sprintf("%s/reg/w/%s", c.ApiPrefix, drive), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// MonitoringAction enables or disables monitoring.
func (c *ApiClient) MonitoringAction(drive, action string) error {
	r, err := req.Get(fmt.Sprintf("%s/monitoring/%s/%s", c.ApiPrefix, action, drive))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// MonitoringStatus requests the state of the monitoring subsystem.
func (c *ApiClient) MonitoringStatus(drive string) (*srv.MonitoringStatus, error) {
	r, err := req.Get(fmt.Sprintf("%s/monitoring/status/%s", c.ApiPrefix, drive))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	status := &srv.MonitoringStatus{}
	if err := r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// MonitoringSetup configures a capture session on the server.
func (c *ApiClient) MonitoringSetup(drive string, setup *srv.MonitoringSetup) error {
	r, err := req.Post(fmt.Sprintf("%s/monitoring/setup/%s", c.ApiPrefix, drive), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// MonitoringRead runs the blocking read loop on the server and returns
// the capture. timeoutSeconds bounds the wait for the trigger, zero
// waits indefinitely.
func (c *ApiClient) MonitoringRead(drive string, timeoutSeconds float64, forced bool) (*srv.CaptureData, error) {
	url := fmt.Sprintf("%s/monitoring/read/%s?timeout=%g", c.ApiPrefix, drive, timeoutSeconds)
	if forced {
		url += "&forced=true"
	}
	r, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	data := &srv.CaptureData{}
	if err := r.ToJSON(data); err != nil {
		return nil, err
	}
	return data, nil
}

// MonitoringStop asks a running read loop to return early.
func (c *ApiClient) MonitoringStop(drive string) error {
	r, err := req.Get(fmt.Sprintf("%s/monitoring/stop/%s", c.ApiPrefix, drive))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// ForceTrigger fires the software trigger of the configured session.
func (c *ApiClient) ForceTrigger(drive string, timeoutSeconds float64) (bool, error) {
	r, err := req.Get(fmt.Sprintf("%s/monitoring/forcetrigger/%s?timeout=%g", c.ApiPrefix, drive, timeoutSeconds))
	if err != nil {
		return false, err
	}
	if err := checkStatus(r); err != nil {
		return false, err
	}
	result := &srv.TriggerResult{}
	if err := r.ToJSON(result); err != nil {
		return false, err
	}
	return result.Triggered, nil
}

// DisturbanceAction enables or disables waveform playback.
func (c *ApiClient) DisturbanceAction(drive, action string) error {
	r, err := req.Get(fmt.Sprintf("%s/disturbance/%s/%s", c.ApiPrefix, action, drive))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// DisturbanceSetup configures a playback session on the server.
func (c *ApiClient) DisturbanceSetup(drive string, setup *srv.DisturbanceSetup) error {
	r, err := req.Post(fmt.Sprintf("%s/disturbance/setup/%s", c.ApiPrefix, drive), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// DisturbanceWrite pushes waveforms to the configured session and
// returns the playback sample period in seconds.
func (c *ApiClient) DisturbanceWrite(drive string, channels [][]float64) (float64, error) {
	waves := &srv.Waveforms{Channels: channels}
	r, err := req.Post(fmt.Sprintf("%s/disturbance/write/%s", c.ApiPrefix, drive), req.BodyJSON(waves))
	if err != nil {
		return 0, err
	}
	if err := checkStatus(r); err != nil {
		return 0, err
	}
	resp := &srv.Waveforms{}
	if err := r.ToJSON(resp); err != nil {
		return 0, err
	}
	return resp.SamplePeriod, nil
}
