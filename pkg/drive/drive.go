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

// Package drive implements the register transport to one servo drive:
// synchronous request/response frames over UDP, a register dictionary
// lookup and a persistent cache of observed register values.
package drive

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"

	"github.com/servolab/go-servo/pkg/capture"
	"github.com/servolab/go-servo/pkg/config"
	"github.com/servolab/go-servo/pkg/dict"
	"github.com/servolab/go-servo/pkg/layers"
	"github.com/servolab/go-servo/pkg/log"
)

const (
	MCBPort = 1061
)

// Drive is the connection to one servo drive. All requests share one
// socket and are serialized, a request blocks until its response frame
// arrives or the timeout expires.
type Drive struct {
	Name string
	Axes int

	mu      sync.Mutex
	conn    net.Conn
	seq     uint16
	timeout time.Duration
	dict    *dict.Dictionary
	state   *State
}

var _ capture.Conn = &Drive{}

// New dials the drive named in the configuration. The state cache is
// shared between drives and may be nil for tooling that does not keep
// one.
func New(cfg *config.Config, name string, state *State) (*Drive, error) {
	dcfg, err := cfg.GetDriveByName(name)
	if err != nil {
		return nil, err
	}
	log.Debug("Dialing drive %s at %s:%d", dcfg.Name, dcfg.IP, MCBPort)
	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d", dcfg.IP, MCBPort))
	if err != nil {
		return nil, err
	}
	return &Drive{
		Name:    dcfg.Name,
		Axes:    dcfg.Axes,
		conn:    conn,
		timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		dict:    dict.New(),
		state:   state,
	}, nil
}

// Close releases the socket. The shared state cache stays open.
func (d *Drive) Close() error {
	return d.conn.Close()
}

// Dictionary returns the register dictionary of the drive.
func (d *Drive) Dictionary() *dict.Dictionary {
	return d.dict
}

func (d *Drive) nextSeq() uint16 {
	seq := d.seq
	d.seq++
	return seq
}

func (d *Drive) request(req *layers.MCBLayer) (*layers.MCBLayer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	req.Seq = d.nextSeq()

	buf := gopacket.NewSerializeBuffer()
	if err := req.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		return nil, err
	}
	if _, err := d.conn.Write(buf.Bytes()); err != nil {
		return nil, err
	}
	if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
		return nil, err
	}
	raw := make([]byte, layers.MCBMaxFrameSize)
	n, err := d.conn.Read(raw)
	if err != nil {
		return nil, err
	}
	resp := &layers.MCBLayer{}
	if err := resp.DecodeFromBytes(raw[:n], gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrBadResponse{Reason: err.Error()}
	}
	if resp.Seq != req.Seq {
		return nil, ErrBadResponse{Reason: fmt.Sprintf("sequence mismatch, sent %d got %d", req.Seq, resp.Seq)}
	}
	if resp.Type == layers.MCBTypeError {
		return nil, ErrDriveFault{Addr: resp.Addr, Code: resp.Value()}
	}
	return resp, nil
}

func (d *Drive) cache(uid string, axis int, value uint32) {
	if d.state == nil {
		return
	}
	if err := d.state.SetReg(d.Name, uid, axis, value); err != nil {
		log.Error("Failed to cache register %s: %s", uid, err)
	}
}

func subnode(reg *dict.Register, axis int) uint16 {
	if reg.PerAxis {
		return uint16(axis)
	}
	return 0
}

// Read reads one register value from the drive.
func (d *Drive) Read(uid string, axis int) (uint32, error) {
	reg, err := d.dict.Lookup(uid)
	if err != nil {
		return 0, err
	}
	req := &layers.MCBLayer{}
	req.Type = layers.MCBTypeRegRead
	req.Subnode = subnode(reg, axis)
	req.Addr = reg.Addr
	resp, err := d.request(req)
	if err != nil {
		return 0, err
	}
	value := resp.Value()
	d.cache(uid, axis, value)
	return value, nil
}

// Write writes one register value to the drive.
func (d *Drive) Write(uid string, value uint32, axis int) error {
	reg, err := d.dict.Lookup(uid)
	if err != nil {
		return err
	}
	req := &layers.MCBLayer{}
	req.Type = layers.MCBTypeRegWrite
	req.Subnode = subnode(reg, axis)
	req.Addr = reg.Addr
	req.SetValue(value)
	if _, err := d.request(req); err != nil {
		return err
	}
	d.cache(uid, axis, value)
	return nil
}

// Info resolves register metadata from the dictionary.
func (d *Drive) Info(uid string) (*dict.Register, error) {
	return d.dict.Lookup(uid)
}

// CachedValue returns the last observed value of a register without a
// round trip to the drive.
func (d *Drive) CachedValue(uid string, axis int) (uint32, error) {
	if d.state == nil {
		return 0, ErrRegisterNotCached{UID: uid, Axis: axis}
	}
	return d.state.GetReg(d.Name, uid, axis)
}

// ReadBlock pulls one frame of accumulated monitoring samples. A data
// block payload starts with the byte count, the frame itself is padded
// to a word boundary.
func (d *Drive) ReadBlock() ([]byte, error) {
	reg, err := d.dict.Lookup(dict.RegMonData)
	if err != nil {
		return nil, err
	}
	req := &layers.MCBLayer{}
	req.Type = layers.MCBTypeBlockRead
	req.Addr = reg.Addr
	resp, err := d.request(req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) < 4 {
		return nil, ErrBadResponse{Reason: "block frame without byte count"}
	}
	count := int(binary.LittleEndian.Uint32(resp.Data[0:4]))
	if count > len(resp.Data)-4 {
		return nil, ErrBadResponse{Reason: "block byte count beyond frame"}
	}
	block := make([]byte, count)
	copy(block, resp.Data[4:4+count])
	return block, nil
}

// waveformChunkSize keeps a chunk plus its byte count inside one frame.
const waveformChunkSize = (layers.MCBMaxPayloadSize - 4) &^ 3

// WriteWaveform pushes a disturbance waveform to the drive, split into
// as many frames as the payload limit requires. The drive appends the
// chunks in arrival order.
func (d *Drive) WriteWaveform(data []byte) error {
	reg, err := d.dict.Lookup(dict.RegDistData)
	if err != nil {
		return err
	}
	for offset := 0; offset < len(data); offset += waveformChunkSize {
		end := offset + waveformChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		payload := make([]byte, 4+len(chunk))
		binary.LittleEndian.PutUint32(payload[0:4], uint32(len(chunk)))
		copy(payload[4:], chunk)

		req := &layers.MCBLayer{}
		req.Type = layers.MCBTypeBlockWrite
		req.Addr = reg.Addr
		req.Data = payload
		if _, err := d.request(req); err != nil {
			return err
		}
	}
	return nil
}
