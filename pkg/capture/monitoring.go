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

package capture

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/servolab/go-servo/pkg/dict"
	"github.com/servolab/go-servo/pkg/log"
)

// DefaultSampleReadBudget is the worst-case time the drive is expected
// to need to produce one sample of one channel. The read loop scales it
// by the capture size to derive its stall timeout.
const DefaultSampleReadBudget = 3 * time.Millisecond

// defaultPollInterval paces the read loop while the drive reports no
// data ready.
const defaultPollInterval = time.Millisecond

// ProgressFunc is called by the read loop after every frame with the
// current process stage and the fraction of samples read so far.
type ProgressFunc func(stage Stage, progress float64)

// Monitoring is one capture session: a set of mapped channels, a
// trigger and a blocking read loop that drains the drive sample buffer.
// A session is not safe for concurrent use except for StopReading,
// which may be called from any goroutine.
type Monitoring struct {
	conn Conn
	gen  Generation

	maxBufferBytes uint32
	channels       []Channel
	totalSamples   int
	triggerDelay   int
	divider        int
	samplingFreq   float64
	trigger        Trigger
	triggerSet     bool

	// SampleReadBudget is the per-sample per-channel share of the read
	// loop stall timeout.
	SampleReadBudget time.Duration
	// PollInterval is the sleep between polls while no data is ready.
	PollInterval time.Duration
	// OnProgress, when set, receives read loop progress updates.
	OnProgress ProgressFunc

	stop atomic.Bool
}

// NewMonitoring creates a capture session. The drive buffer size is
// read once here and drives all later capacity checks.
func (c *Controller) NewMonitoring() (*Monitoring, error) {
	maxSize, err := c.MonitoringMaxSize()
	if err != nil {
		return nil, err
	}
	return &Monitoring{
		conn:             c.conn,
		gen:              c.gen,
		maxBufferBytes:   maxSize,
		divider:          1,
		SampleReadBudget: DefaultSampleReadBudget,
		PollInterval:     defaultPollInterval,
	}, nil
}

// Generation returns the firmware generation the session targets.
func (m *Monitoring) Generation() Generation {
	return m.gen
}

// Channels returns the mapped channels in slot order.
func (m *Monitoring) Channels() []Channel {
	return m.channels
}

// SamplingFrequency returns the effective capture rate in Hz. Zero
// until SetFrequency has run.
func (m *Monitoring) SamplingFrequency() float64 {
	return m.samplingFreq
}

// TotalSamples returns the configured per-channel sample count.
func (m *Monitoring) TotalSamples() int {
	return m.totalSamples
}

func (m *Monitoring) sizer() BufferSizer {
	return BufferSizer{Gen: m.gen, MaxSize: m.maxBufferBytes}
}

func (m *Monitoring) widths() []int {
	widths := make([]int, len(m.channels))
	for i, ch := range m.channels {
		widths[i] = ch.Reg.Type.Size()
	}
	return widths
}

func (m *Monitoring) checkDisabled() error {
	status, err := m.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return err
	}
	if StatusEnabled(status) {
		return ErrMonitoringEnabled{}
	}
	return nil
}

// SetFrequency writes the prescaler of the position/velocity loop rate
// and returns the resulting sampling frequency in Hz.
func (m *Monitoring) SetFrequency(divider int) (float64, error) {
	if divider < 1 {
		return 0, ErrBadDivider{Divider: divider}
	}
	if err := m.checkDisabled(); err != nil {
		return 0, err
	}
	if err := m.conn.Write(dict.RegMonFreqDivider, uint32(divider), 0); err != nil {
		return 0, err
	}
	rate, err := m.conn.Read(dict.RegPosVelLoopRate, 1)
	if err != nil {
		return 0, err
	}
	m.divider = divider
	m.samplingFreq = float64(rate) / float64(divider)
	return m.samplingFreq, nil
}

// MapRegisters loads the capture slots with the given registers. All
// signals are validated against the dictionary and the buffer capacity
// before the first device write, a rejected mapping leaves the drive
// untouched.
func (m *Monitoring) MapRegisters(keys []RegisterKey) error {
	if len(keys) == 0 {
		return ErrNotConfigured{What: "no registers to map"}
	}
	if len(keys) > dict.MonMappingSlots {
		return ErrTooManyChannels{Requested: len(keys), Slots: dict.MonMappingSlots}
	}
	if err := m.checkDisabled(); err != nil {
		return err
	}
	channels := make([]Channel, len(keys))
	for i, k := range keys {
		reg, err := m.conn.Info(k.UID)
		if err != nil {
			return err
		}
		if !reg.Cyclic.Readable() {
			return ErrWrongCyclic{UID: k.UID, What: "monitoring"}
		}
		channels[i] = Channel{Reg: reg, Axis: k.Axis}
	}
	if m.totalSamples > 0 {
		widths := make([]int, len(channels))
		for i, ch := range channels {
			widths[i] = ch.Reg.Type.Size()
		}
		if err := m.sizer().CheckFits(widths, m.totalSamples, m.triggerDelay); err != nil {
			return err
		}
	}

	if err := m.conn.Write(dict.RegMonTotalMap, 0, 0); err != nil {
		return err
	}
	for i, ch := range channels {
		value := mappingSlotValue(ch)
		if err := m.conn.Write(dict.MonMappedRegUID(i), value, 0); err != nil {
			return err
		}
	}
	if err := m.conn.Write(dict.RegMonTotalMap, uint32(len(channels)), 0); err != nil {
		return err
	}
	mapped, err := m.conn.Read(dict.RegMonTotalMap, 0)
	if err != nil {
		return err
	}
	if mapped < 1 {
		return ErrMappingRejected{Reported: mapped}
	}
	m.channels = channels
	return nil
}

// mappingSlotValue packs a register reference into the wire format of
// the hardware mapping slots: mapped address, data type code and byte
// width.
func mappingSlotValue(ch Channel) uint32 {
	return ch.Reg.MappedAddr(ch.Axis)<<16 | uint32(ch.Reg.Type)<<8 | uint32(ch.Reg.Type.Size())
}

// ConfigureNumberSamples sets the capture window. The trigger delay
// must satisfy 1 <= delay < total, out of range values are rejected
// rather than clamped. The demand of the mapped channels is checked
// against the buffer before anything is written.
func (m *Monitoring) ConfigureNumberSamples(totalSamples, triggerDelay int) error {
	if triggerDelay < 1 || triggerDelay >= totalSamples {
		return ErrSampleBounds{Total: totalSamples, Delay: triggerDelay}
	}
	if err := m.checkDisabled(); err != nil {
		return err
	}
	if len(m.channels) > 0 {
		if err := m.sizer().CheckFits(m.widths(), totalSamples, triggerDelay); err != nil {
			return err
		}
	}
	if err := m.conn.Write(dict.RegMonTriggerDelay, uint32(triggerDelay), 0); err != nil {
		return err
	}
	if m.gen == GenV3 {
		if err := m.conn.Write(dict.RegMonWindowSamples, uint32(totalSamples), 0); err != nil {
			return err
		}
	} else {
		// Older firmware counts only the post-trigger window and needs
		// an explicit stop condition on the sample counter.
		window := totalSamples - triggerDelay
		if err := m.conn.Write(dict.RegMonWindowSamples, uint32(window), 0); err != nil {
			return err
		}
		if err := m.conn.Write(dict.RegMonEocType, eocTriggerNumberSamples, 0); err != nil {
			return err
		}
	}
	m.totalSamples = totalSamples
	m.triggerDelay = triggerDelay
	return nil
}

// ConfigureSampleTime sets the capture window from wall clock times.
// totalTime is the window length in seconds, triggerDelay shifts the
// trigger away from the window centre, positive values move it earlier.
func (m *Monitoring) ConfigureSampleTime(totalTime, triggerDelay float64) error {
	if m.samplingFreq == 0 {
		return ErrNotConfigured{What: "sampling frequency, call SetFrequency first"}
	}
	total := int(totalTime * m.samplingFreq)
	delay := int((totalTime/2 - triggerDelay) * m.samplingFreq)
	return m.ConfigureNumberSamples(total, delay)
}

// SetTrigger configures the capture start condition. An edge trigger
// signal must already be mapped, the session refuses to arm on a signal
// the drive is not sampling.
func (m *Monitoring) SetTrigger(t Trigger) error {
	if err := m.checkDisabled(); err != nil {
		return err
	}
	var slot int
	if t.Mode == TriggerEdge {
		slot = -1
		for i, ch := range m.channels {
			if ch.Reg.UID == t.Signal.UID && ch.Axis == t.Signal.Axis {
				slot = i
				break
			}
		}
		if slot < 0 {
			return ErrSignalNotMapped{UID: t.Signal.UID, Axis: t.Signal.Axis}
		}
	}
	if m.gen != GenV3 {
		// Older firmware latches the repetition counter on arm, reset it
		// so a reused session fires again.
		if err := m.conn.Write(dict.RegMonTriggerRepeats, 1, 0); err != nil {
			return err
		}
	}
	if err := m.writeTriggerType(t); err != nil {
		return err
	}
	if t.Mode == TriggerEdge {
		if err := m.writeEdgeCondition(t, slot); err != nil {
			return err
		}
	}
	m.trigger = t
	m.triggerSet = true
	return nil
}

func (m *Monitoring) writeTriggerType(t Trigger) error {
	soc := uint32(t.Mode)
	if m.gen != GenV3 && t.Mode == TriggerEdge {
		soc = socTypeCyclicRising
		if t.Edge == FallingEdge {
			soc = socTypeCyclicFalling
		}
	}
	return m.conn.Write(dict.RegMonSocType, soc, 0)
}

func (m *Monitoring) writeEdgeCondition(t Trigger, slot int) error {
	raw := EncodeThreshold(t.Threshold, m.channels[slot].Reg.Type)
	if m.gen == GenV3 {
		eoc := eocRising
		if t.Edge == FallingEdge {
			eoc = eocFalling
		}
		if err := m.conn.Write(dict.RegMonEocType, eoc, 0); err != nil {
			return err
		}
		if err := m.conn.Write(dict.RegMonRisingCond, raw, 0); err != nil {
			return err
		}
	} else {
		uid := dict.RegMonRisingCond
		if t.Edge == FallingEdge {
			uid = dict.RegMonFallingCond
		}
		if err := m.conn.Write(uid, raw, 0); err != nil {
			return err
		}
	}
	return m.conn.Write(dict.RegMonIndexChecker, uint32(slot), 0)
}

// Trigger returns the configured start condition.
func (m *Monitoring) Trigger() (Trigger, bool) {
	return m.trigger, m.triggerSet
}

// IsReady reports whether the state machine is armed for a read. Older
// firmware exposes this through the repetition counter, V3 through the
// process stage.
func (m *Monitoring) IsReady() (bool, error) {
	ready, _, _, err := m.readiness()
	return ready, err
}

// readiness also reports the enabled flag and the raw value of the
// gating register so a refused read can say what blocked it.
func (m *Monitoring) readiness() (ready, enabled bool, gate uint32, err error) {
	status, err := m.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return false, false, 0, err
	}
	enabled = StatusEnabled(status)
	if m.gen == GenV3 {
		stage := StatusStage(status, m.gen)
		return enabled && stage != StageInit, enabled, uint32(stage), nil
	}
	reps, err := m.conn.Read(dict.RegMonTriggerRepeats, 0)
	if err != nil {
		return false, enabled, 0, err
	}
	return enabled && reps != 0, enabled, reps, nil
}

func (m *Monitoring) dataReady() (bool, error) {
	cycles, err := m.conn.Read(dict.RegMonCyclesValue, 0)
	if err != nil {
		return false, err
	}
	if cycles == 0 {
		return false, nil
	}
	if m.gen == GenV1 {
		return true, nil
	}
	status, err := m.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return false, err
	}
	return StatusFrameAvailable(status, m.gen), nil
}

// EstimatedMaxReadTime returns the stall budget of the read loop for
// the configured capture.
func (m *Monitoring) EstimatedMaxReadTime() time.Duration {
	return m.SampleReadBudget * time.Duration(len(m.channels)*m.totalSamples)
}

// StopReading asks a running ReadData loop to return. The loop notices
// within one poll cycle and returns the samples gathered so far. Safe
// to call from any goroutine.
func (m *Monitoring) StopReading() {
	m.stop.Store(true)
}

// ReadData blocks draining the drive buffer until all configured
// samples arrived, the capture was stopped, the drive stalled or the
// trigger never fired within triggerTimeout. A zero triggerTimeout
// waits for the trigger indefinitely. The stall timeout runs from the
// last received block and is not armed before the first one. Transport
// failures are returned as errors, timeouts and stops are logged and
// return partial data.
func (m *Monitoring) ReadData(triggerTimeout time.Duration) ([][]float64, error) {
	if len(m.channels) == 0 || m.totalSamples == 0 {
		return nil, ErrNotConfigured{What: "map registers and configure samples before reading"}
	}
	ready, enabled, gate, err := m.readiness()
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, ErrNotReady{Enabled: enabled, Gate: gate}
	}

	m.stop.Store(false)
	recordSize := 0
	for _, w := range m.widths() {
		recordSize += w
	}
	stallBudget := m.EstimatedMaxReadTime()
	start := time.Now()
	// The stall clock arms on the first received block. Until then only
	// the caller-supplied trigger timeout can end the wait.
	var lastData time.Time
	var raw []byte

	for len(raw)/recordSize < m.totalSamples {
		if m.stop.Load() {
			log.Warning("monitoring read stopped, returning %d of %d samples",
				len(raw)/recordSize, m.totalSamples)
			break
		}
		ready, err := m.dataReady()
		if err != nil {
			return nil, err
		}
		gotData := false
		if ready {
			block, err := m.conn.ReadBlock()
			if err != nil {
				return nil, err
			}
			if len(block) > 0 {
				raw = append(raw, block...)
				lastData = time.Now()
				gotData = true
				if m.gen == GenV3 {
					if err := m.conn.Write(dict.RegMonRemoveData, 1, 0); err != nil {
						return nil, err
					}
				}
				m.reportProgress(len(raw) / recordSize)
			}
		}
		if lastData.IsZero() {
			if triggerTimeout > 0 && time.Since(start) > triggerTimeout {
				log.Warning("monitoring trigger did not fire within %s", triggerTimeout)
				break
			}
		} else if time.Since(lastData) > stallBudget {
			log.Warning("drive stopped producing samples, returning %d of %d after %s",
				len(raw)/recordSize, m.totalSamples, stallBudget)
			break
		}
		if !gotData {
			time.Sleep(m.PollInterval)
		}
	}
	return m.decode(raw), nil
}

func (m *Monitoring) reportProgress(samples int) {
	if m.OnProgress == nil {
		return
	}
	status, err := m.conn.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		return
	}
	progress := float64(samples) / float64(m.totalSamples)
	if progress > 1 {
		progress = 1
	}
	m.OnProgress(StatusStage(status, m.gen), progress)
}

// decode splits the interleaved sample records into per-channel series.
// Only complete records are decoded, a trailing partial record is
// dropped.
func (m *Monitoring) decode(raw []byte) [][]float64 {
	recordSize := 0
	for _, w := range m.widths() {
		recordSize += w
	}
	records := len(raw) / recordSize
	if records > m.totalSamples {
		records = m.totalSamples
	}
	out := make([][]float64, len(m.channels))
	for i := range out {
		out[i] = make([]float64, 0, records)
	}
	offset := 0
	for r := 0; r < records; r++ {
		for i, ch := range m.channels {
			size := ch.Reg.Type.Size()
			out[i] = append(out[i], decodeSample(raw[offset:offset+size], ch.Reg.Type))
			offset += size
		}
	}
	return out
}

func decodeSample(b []byte, t dict.DataType) float64 {
	switch t {
	case dict.TypeU8:
		return float64(b[0])
	case dict.TypeS8:
		return float64(int8(b[0]))
	case dict.TypeU16:
		return float64(binary.LittleEndian.Uint16(b))
	case dict.TypeS16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case dict.TypeU32:
		return float64(binary.LittleEndian.Uint32(b))
	case dict.TypeS32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case dict.TypeU64:
		return float64(binary.LittleEndian.Uint64(b))
	case dict.TypeS64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case dict.TypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return 0
}

// RaiseForcedTrigger fires the software trigger. With blocking set it
// keeps firing until the state machine reports it armed or the timeout
// expires, and returns whether the trigger took.
func (m *Monitoring) RaiseForcedTrigger(blocking bool, timeout time.Duration) (bool, error) {
	if !m.triggerSet || m.trigger.Mode != TriggerForced {
		return false, ErrWrongTriggerMode{Configured: m.trigger.Mode}
	}
	deadline := time.Now().Add(timeout)
	for {
		if err := m.conn.Write(dict.RegMonForceTrigger, 1, 0); err != nil {
			return false, err
		}
		status, err := m.conn.Read(dict.RegMonDistStatus, 0)
		if err != nil {
			return false, err
		}
		if StatusStage(status, m.gen) >= StageWaitingForTrigger {
			return true, nil
		}
		if !blocking || time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(m.PollInterval)
	}
}

// ReadDataForcedTrigger fires the software trigger and reads the
// capture in one call. A trigger that never takes within timeout is
// logged and yields empty per-channel series instead of an error.
func (m *Monitoring) ReadDataForcedTrigger(timeout time.Duration) ([][]float64, error) {
	triggered, err := m.RaiseForcedTrigger(true, timeout)
	if err != nil {
		return nil, err
	}
	if !triggered {
		log.Warning("forced trigger did not take within %s, no data read", timeout)
		out := make([][]float64, len(m.channels))
		for i := range out {
			out[i] = []float64{}
		}
		return out, nil
	}
	return m.ReadData(timeout)
}

// Rearm resets the state machine for another capture with the current
// configuration. Only V3 firmware can rearm, older generations must be
// reconfigured from scratch.
func (m *Monitoring) Rearm() error {
	if m.gen != GenV3 {
		return ErrRearmUnsupported{Gen: m.gen}
	}
	if err := m.conn.Write(dict.RegMonRemoveData, 1, 0); err != nil {
		return err
	}
	return m.conn.Write(dict.RegMonRearm, 1, 0)
}

// CreateMonitoring builds a fully configured capture session in one
// call: monitoring is disabled, the channels are mapped, the window is
// derived from wall clock times and the trigger is armed.
func (c *Controller) CreateMonitoring(keys []RegisterKey, divider int, totalTime, triggerDelay float64, trig Trigger) (*Monitoring, error) {
	if err := c.DisableMonitoring(); err != nil {
		return nil, err
	}
	m, err := c.NewMonitoring()
	if err != nil {
		return nil, err
	}
	if _, err := m.SetFrequency(divider); err != nil {
		return nil, err
	}
	if err := m.MapRegisters(keys); err != nil {
		return nil, err
	}
	if err := m.ConfigureSampleTime(totalTime, triggerDelay); err != nil {
		return nil, err
	}
	if err := m.SetTrigger(trig); err != nil {
		return nil, err
	}
	return m, nil
}
