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

	"github.com/servolab/go-servo/pkg/dict"
)

// Disturbance is one playback session: a set of mapped setpoint
// registers and a waveform the drive replays cyclically into them.
type Disturbance struct {
	conn Conn
	gen  Generation

	maxBufferBytes uint32
	channels       []Channel
	divider        int
	samplePeriod   float64
}

// NewDisturbance creates a playback session. The drive buffer size is
// read once here and bounds all later waveform writes.
func (c *Controller) NewDisturbance() (*Disturbance, error) {
	maxSize, err := c.DisturbanceMaxSize()
	if err != nil {
		return nil, err
	}
	return &Disturbance{
		conn:           c.conn,
		gen:            c.gen,
		maxBufferBytes: maxSize,
		divider:        1,
	}, nil
}

// Channels returns the mapped playback channels in slot order.
func (d *Disturbance) Channels() []Channel {
	return d.channels
}

// SamplePeriod returns the seconds between replayed samples. Zero
// until SetFrequency has run.
func (d *Disturbance) SamplePeriod() float64 {
	return d.samplePeriod
}

func (d *Disturbance) checkDisabled() error {
	uid := dict.RegMonDistStatus
	if d.gen == GenV3 {
		uid = dict.RegDistStatus
	}
	status, err := d.conn.Read(uid, 0)
	if err != nil {
		return err
	}
	if StatusEnabled(status) {
		return ErrDisturbanceEnabled{}
	}
	return nil
}

// SetFrequency writes the playback prescaler of the position/velocity
// loop rate and returns the resulting sample period in seconds.
func (d *Disturbance) SetFrequency(divider int) (float64, error) {
	if divider < 1 {
		return 0, ErrBadDivider{Divider: divider}
	}
	if err := d.checkDisabled(); err != nil {
		return 0, err
	}
	if err := d.conn.Write(dict.RegDistFreqDiv, uint32(divider), 0); err != nil {
		return 0, err
	}
	rate, err := d.conn.Read(dict.RegPosVelLoopRate, 1)
	if err != nil {
		return 0, err
	}
	d.divider = divider
	d.samplePeriod = float64(divider) / float64(rate)
	return d.samplePeriod, nil
}

// MapRegisters loads the playback slots with the given registers. Only
// cyclically writable registers can be driven. Everything is validated
// before the first device write.
func (d *Disturbance) MapRegisters(keys []RegisterKey) error {
	if len(keys) == 0 {
		return ErrNotConfigured{What: "no registers to map"}
	}
	if len(keys) > dict.DistMappingSlots {
		return ErrTooManyChannels{Requested: len(keys), Slots: dict.DistMappingSlots}
	}
	if err := d.checkDisabled(); err != nil {
		return err
	}
	channels := make([]Channel, len(keys))
	for i, k := range keys {
		reg, err := d.conn.Info(k.UID)
		if err != nil {
			return err
		}
		if !reg.Cyclic.Writable() {
			return ErrWrongCyclic{UID: k.UID, What: "disturbance"}
		}
		channels[i] = Channel{Reg: reg, Axis: k.Axis}
	}

	if err := d.conn.Write(dict.RegDistTotalMap, 0, 0); err != nil {
		return err
	}
	for i, ch := range channels {
		if err := d.conn.Write(dict.DistMappedRegUID(i), mappingSlotValue(ch), 0); err != nil {
			return err
		}
	}
	if err := d.conn.Write(dict.RegDistTotalMap, uint32(len(channels)), 0); err != nil {
		return err
	}
	mapped, err := d.conn.Read(dict.RegDistTotalMap, 0)
	if err != nil {
		return err
	}
	if mapped < 1 {
		return ErrMappingRejected{Reported: mapped}
	}
	d.channels = channels
	return nil
}

// WriteWaveforms encodes one waveform per mapped channel into the
// interleaved buffer format and pushes it to the drive. The demand is
// checked against the full buffer size, playback has no split windows.
func (d *Disturbance) WriteWaveforms(waves [][]float64) error {
	if len(d.channels) == 0 {
		return ErrNotConfigured{What: "map registers before writing waveforms"}
	}
	if len(waves) != len(d.channels) {
		return ErrUnevenWaveforms{}
	}
	samples := len(waves[0])
	for _, w := range waves {
		if len(w) != samples {
			return ErrUnevenWaveforms{}
		}
	}
	recordSize := 0
	for _, ch := range d.channels {
		recordSize += ch.Reg.Type.Size()
	}
	demand := recordSize * samples
	if uint32(demand) > d.maxBufferBytes {
		return ErrBufferTooSmall{Demanded: demand, Max: int(d.maxBufferBytes)}
	}

	data := make([]byte, 0, demand)
	for s := 0; s < samples; s++ {
		for i, ch := range d.channels {
			data = appendSample(data, waves[i][s], ch.Reg.Type)
		}
	}
	if d.gen == GenV3 {
		if err := d.conn.Write(dict.RegDistRemoveData, 1, 0); err != nil {
			return err
		}
	}
	return d.conn.WriteWaveform(data)
}

func appendSample(data []byte, value float64, t dict.DataType) []byte {
	switch t {
	case dict.TypeU8, dict.TypeS8:
		return append(data, byte(int64(value)))
	case dict.TypeU16, dict.TypeS16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(int64(value)))
		return append(data, b[:]...)
	case dict.TypeU64, dict.TypeS64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(int64(value)))
		return append(data, b[:]...)
	case dict.TypeFloat:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(value)))
		return append(data, b[:]...)
	default:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(int64(value)))
		return append(data, b[:]...)
	}
}

// CreateDisturbance builds a fully configured playback session in one
// call: playback is disabled, the prescaler is set and the channels
// are mapped.
func (c *Controller) CreateDisturbance(keys []RegisterKey, divider int) (*Disturbance, error) {
	if err := c.DisableDisturbance(); err != nil {
		return nil, err
	}
	d, err := c.NewDisturbance()
	if err != nil {
		return nil, err
	}
	if _, err := d.SetFrequency(divider); err != nil {
		return nil, err
	}
	if err := d.MapRegisters(keys); err != nil {
		return nil, err
	}
	return d, nil
}
