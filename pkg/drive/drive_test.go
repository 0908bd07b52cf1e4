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

package drive

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"

	"github.com/servolab/go-servo/pkg/dict"
	"github.com/servolab/go-servo/pkg/layers"
)

// respondFunc crafts the response frame for one received request.
type respondFunc func(req *layers.MCBLayer) *layers.MCBLayer

func newTestDrive(t *testing.T, respond respondFunc) *Drive {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	go func() {
		buf := make([]byte, layers.MCBMaxFrameSize)
		for {
			n, err := server.Read(buf)
			if err != nil {
				return
			}
			req := &layers.MCBLayer{}
			if err := req.DecodeFromBytes(buf[:n], gopacket.NilDecodeFeedback); err != nil {
				continue
			}
			resp := respond(req)
			if resp == nil {
				continue
			}
			out := gopacket.NewSerializeBuffer()
			if err := resp.SerializeTo(out, gopacket.SerializeOptions{}); err != nil {
				return
			}
			if _, err := server.Write(out.Bytes()); err != nil {
				return
			}
		}
	}()
	return &Drive{
		Name:    "sim",
		Axes:    2,
		conn:    client,
		timeout: time.Second,
		dict:    dict.New(),
	}
}

func TestDriveReadWrite(t *testing.T) {
	var lastWrite uint32
	var lastSubnode uint16
	d := newTestDrive(t, func(req *layers.MCBLayer) *layers.MCBLayer {
		resp := &layers.MCBLayer{}
		resp.Seq = req.Seq
		resp.Addr = req.Addr
		resp.Subnode = req.Subnode
		resp.Type = layers.MCBTypeRegData
		switch req.Type {
		case layers.MCBTypeRegRead:
			resp.SetValue(0x1234)
		case layers.MCBTypeRegWrite:
			lastWrite = req.Value()
			lastSubnode = req.Subnode
			resp.SetValue(req.Value())
		}
		return resp
	})

	value, err := d.Read(dict.RegMonDistStatus, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if value != 0x1234 {
		t.Fatalf("value = %#x, want 0x1234", value)
	}
	if err := d.Write(dict.RegPosVelLoopRate, 999, 2); err != nil {
		t.Fatalf("write: %v", err)
	}
	if lastWrite != 999 {
		t.Fatalf("drive saw value %d, want 999", lastWrite)
	}
	if lastSubnode != 2 {
		t.Fatalf("per-axis register sent to subnode %d, want 2", lastSubnode)
	}
}

func TestDriveUnknownRegister(t *testing.T) {
	d := newTestDrive(t, func(req *layers.MCBLayer) *layers.MCBLayer { return nil })
	_, err := d.Read("NO_SUCH_REGISTER", 0)
	if !dict.IsNotFound(err) {
		t.Fatalf("expected dictionary miss, got %v", err)
	}
}

func TestDriveFaultResponse(t *testing.T) {
	d := newTestDrive(t, func(req *layers.MCBLayer) *layers.MCBLayer {
		resp := &layers.MCBLayer{}
		resp.Seq = req.Seq
		resp.Addr = req.Addr
		resp.Type = layers.MCBTypeError
		resp.SetValue(0x06010000)
		return resp
	})
	_, err := d.Read(dict.RegMonDistStatus, 0)
	var fault ErrDriveFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected ErrDriveFault, got %v", err)
	}
	if fault.Code != 0x06010000 {
		t.Fatalf("fault code = %#x, want 0x06010000", fault.Code)
	}
}

func TestDriveSequenceMismatch(t *testing.T) {
	d := newTestDrive(t, func(req *layers.MCBLayer) *layers.MCBLayer {
		resp := &layers.MCBLayer{}
		resp.Seq = req.Seq + 1
		resp.Type = layers.MCBTypeRegData
		resp.SetValue(1)
		return resp
	})
	_, err := d.Read(dict.RegMonDistStatus, 0)
	var bad ErrBadResponse
	if !errors.As(err, &bad) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestDriveReadBlockStripsCountAndPadding(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	d := newTestDrive(t, func(req *layers.MCBLayer) *layers.MCBLayer {
		if req.Type != layers.MCBTypeBlockRead {
			return nil
		}
		resp := &layers.MCBLayer{}
		resp.Seq = req.Seq
		resp.Addr = req.Addr
		resp.Type = layers.MCBTypeBlockData
		resp.Data = make([]byte, 4+len(payload))
		binary.LittleEndian.PutUint32(resp.Data[0:4], uint32(len(payload)))
		copy(resp.Data[4:], payload)
		return resp
	})
	block, err := d.ReadBlock()
	if err != nil {
		t.Fatalf("read block: %v", err)
	}
	// 6 payload bytes arrive in a frame padded to 8, the count framing
	// must strip the padding.
	if len(block) != len(payload) {
		t.Fatalf("block = %d bytes, want %d", len(block), len(payload))
	}
	for i := range payload {
		if block[i] != payload[i] {
			t.Fatalf("block[%d] = %#x, want %#x", i, block[i], payload[i])
		}
	}
}

func TestDriveWriteWaveformChunks(t *testing.T) {
	var frames int
	var received []byte
	d := newTestDrive(t, func(req *layers.MCBLayer) *layers.MCBLayer {
		if req.Type != layers.MCBTypeBlockWrite {
			return nil
		}
		frames++
		count := binary.LittleEndian.Uint32(req.Data[0:4])
		received = append(received, req.Data[4:4+count]...)
		resp := &layers.MCBLayer{}
		resp.Seq = req.Seq
		resp.Addr = req.Addr
		resp.Type = layers.MCBTypeBlockData
		return resp
	})
	wave := make([]byte, waveformChunkSize+100)
	for i := range wave {
		wave[i] = byte(i)
	}
	if err := d.WriteWaveform(wave); err != nil {
		t.Fatalf("write waveform: %v", err)
	}
	if frames != 2 {
		t.Fatalf("frames = %d, want the waveform split in 2", frames)
	}
	if len(received) != len(wave) {
		t.Fatalf("received %d bytes, want %d", len(received), len(wave))
	}
	for i := range wave {
		if received[i] != wave[i] {
			t.Fatalf("byte %d = %d, want %d", i, received[i], wave[i])
		}
	}
}
