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

// Package capture implements the drive monitoring and disturbance
// engines: mapping cyclic registers into the drive sample buffer,
// trigger configuration, the blocking sample read loop and waveform
// playback. All device IO goes through the Conn interface so the
// engines work against a real drive or a simulated one.
package capture

import (
	"github.com/servolab/go-servo/pkg/dict"
	"github.com/servolab/go-servo/pkg/log"
)

// RegisterAccess reads and writes single drive registers and resolves
// register metadata from the drive dictionary.
type RegisterAccess interface {
	Read(uid string, axis int) (uint32, error)
	Write(uid string, value uint32, axis int) error
	Info(uid string) (*dict.Register, error)
}

// BlockReader pulls one frame of accumulated monitoring samples from
// the drive buffer.
type BlockReader interface {
	ReadBlock() ([]byte, error)
}

// WaveformWriter pushes a disturbance waveform into the drive buffer.
type WaveformWriter interface {
	WriteWaveform(data []byte) error
}

// Conn is the full device surface the capture engines need.
type Conn interface {
	RegisterAccess
	BlockReader
	WaveformWriter
}

// Channel is one mapped capture or playback signal.
type Channel struct {
	Reg  *dict.Register
	Axis int
}

// Controller owns the monitoring/disturbance subsystem of one drive.
// It detects the firmware generation once and hands out configured
// Monitoring and Disturbance sessions.
type Controller struct {
	conn Conn
	gen  Generation
}

// NewController probes the drive firmware generation and returns a
// controller bound to the connection.
func NewController(conn Conn) *Controller {
	gen := DetectGeneration(conn)
	log.Debug("detected monitoring generation %s", gen)
	return &Controller{conn: conn, gen: gen}
}

// DetectGeneration probes the firmware era of the monitoring subsystem.
// V3 firmware exposes a readable version register, V2 carries the
// buffer byte counter in its dictionary and everything older is V1.
func DetectGeneration(ra RegisterAccess) Generation {
	if _, err := ra.Read(dict.RegMonVersion, 0); err == nil {
		return GenV3
	}
	if _, err := ra.Info(dict.RegMonBytesValue); err == nil {
		return GenV2
	}
	return GenV1
}

// Generation returns the detected firmware generation.
func (c *Controller) Generation() Generation {
	return c.gen
}

// Conn returns the underlying device connection.
func (c *Controller) Conn() Conn {
	return c.conn
}

// EnableMonitoring starts the monitoring state machine. The drive is
// read back to confirm, a drive that refuses to start reports the
// enabled bit low.
func (c *Controller) EnableMonitoring() error {
	if err := c.conn.Write(dict.RegMonDistEnable, 1, 0); err != nil {
		return err
	}
	enabled, err := c.IsMonitoringEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return ErrEnableFailed{What: "monitoring"}
	}
	return nil
}

// DisableMonitoring stops the monitoring state machine. On V3 firmware
// the sample buffer is flushed as well so a later session starts clean.
func (c *Controller) DisableMonitoring() error {
	if err := c.conn.Write(dict.RegMonDistEnable, 0, 0); err != nil {
		return err
	}
	enabled, err := c.IsMonitoringEnabled()
	if err != nil {
		return err
	}
	if enabled {
		return ErrEnableFailed{What: "monitoring disable"}
	}
	if c.gen == GenV3 {
		return c.conn.Write(dict.RegMonRemoveData, 1, 0)
	}
	return nil
}

// EnableDisturbance starts waveform playback. Pre-V3 firmware has no
// separate disturbance switch, playback rides the monitoring enable.
func (c *Controller) EnableDisturbance() error {
	if c.gen != GenV3 {
		return c.EnableMonitoring()
	}
	if err := c.conn.Write(dict.RegDistEnable, 1, 0); err != nil {
		return err
	}
	enabled, err := c.IsDisturbanceEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return ErrEnableFailed{What: "disturbance"}
	}
	return nil
}

// DisableDisturbance stops waveform playback.
func (c *Controller) DisableDisturbance() error {
	if c.gen != GenV3 {
		return c.DisableMonitoring()
	}
	if err := c.conn.Write(dict.RegDistEnable, 0, 0); err != nil {
		return err
	}
	enabled, err := c.IsDisturbanceEnabled()
	if err != nil {
		return err
	}
	if enabled {
		return ErrEnableFailed{What: "disturbance disable"}
	}
	return nil
}

// IsMonitoringEnabled reports the enabled bit of the monitoring status
// word.
func (c *Controller) IsMonitoringEnabled() (bool, error) {
	status, err := c.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return false, err
	}
	return StatusEnabled(status), nil
}

// IsDisturbanceEnabled reports the enabled bit of the disturbance
// status word. Pre-V3 firmware shares one status word between
// monitoring and disturbance.
func (c *Controller) IsDisturbanceEnabled() (bool, error) {
	uid := dict.RegMonDistStatus
	if c.gen == GenV3 {
		uid = dict.RegDistStatus
	}
	status, err := c.conn.Read(uid, 0)
	if err != nil {
		return false, err
	}
	return StatusEnabled(status), nil
}

// ProcessStage returns the stage of the monitoring state machine.
func (c *Controller) ProcessStage() (Stage, error) {
	status, err := c.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return StageInit, err
	}
	return StatusStage(status, c.gen), nil
}

// FrameAvailable reports whether a full capture frame is ready to be
// read from the drive buffer.
func (c *Controller) FrameAvailable() (bool, error) {
	status, err := c.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return false, err
	}
	return StatusFrameAvailable(status, c.gen), nil
}

// CleanMonitoring disables monitoring and clears the register map so
// the subsystem is back in its power-on state.
func (c *Controller) CleanMonitoring() error {
	if err := c.DisableMonitoring(); err != nil {
		return err
	}
	return c.conn.Write(dict.RegMonTotalMap, 0, 0)
}

// CleanDisturbance disables playback and clears the playback map.
func (c *Controller) CleanDisturbance() error {
	if err := c.DisableDisturbance(); err != nil {
		return err
	}
	if c.gen == GenV3 {
		if err := c.conn.Write(dict.RegDistRemoveData, 1, 0); err != nil {
			return err
		}
	}
	return c.conn.Write(dict.RegDistTotalMap, 0, 0)
}

// MCBSync forces one cycle of the monitoring state machine to
// resynchronise the cyclic exchange after a mapping change.
func (c *Controller) MCBSync() error {
	if err := c.EnableMonitoring(); err != nil {
		return err
	}
	return c.DisableMonitoring()
}

// MonitoringMaxSize returns the monitoring buffer size in bytes.
// Firmware that does not report it gets the guaranteed minimum.
func (c *Controller) MonitoringMaxSize() (uint32, error) {
	return c.maxSize(dict.RegMonMaxSize)
}

// DisturbanceMaxSize returns the disturbance buffer size in bytes.
func (c *Controller) DisturbanceMaxSize() (uint32, error) {
	uid := dict.RegDistMaxSize
	if c.gen != GenV3 {
		uid = dict.RegMonMaxSize
	}
	return c.maxSize(uid)
}

func (c *Controller) maxSize(uid string) (uint32, error) {
	if _, err := c.conn.Info(uid); err != nil {
		if dict.IsNotFound(err) {
			return MinimumBufferSize, nil
		}
		return 0, err
	}
	size, err := c.conn.Read(uid, 0)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		size = MinimumBufferSize
	}
	return size, nil
}
