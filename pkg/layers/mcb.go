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

package layers

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// MCBLayerNum identifies the layer
	MCBLayerNum = 2041
	// MCBSync is a magic number that appears in the beginning of each frame
	MCBSync = 0x2A55
	// MCBHeaderSize is the size of the frame header in bytes
	MCBHeaderSize = 12
	// MCBMaxFrameSize is the max size of a frame including header and CRC
	MCBMaxFrameSize = 1400
	// MCBMaxPayloadSize is the max size of the frame payload
	MCBMaxPayloadSize = MCBMaxFrameSize - MCBHeaderSize - 4
)

type MCBType uint16

const (
	MCBTypeRegRead    MCBType = 0x0101
	MCBTypeRegWrite   MCBType = 0x0102
	MCBTypeRegData    MCBType = 0x0103
	MCBTypeBlockRead  MCBType = 0x0105
	MCBTypeBlockWrite MCBType = 0x0106
	MCBTypeBlockData  MCBType = 0x0107
	MCBTypeError      MCBType = 0x01FF
)

type MCBHeader struct {
	Sync    uint16
	Type    MCBType
	Seq     uint16
	Len     uint16 // length of the frame in 4-byte words including header and CRC
	Subnode uint16 // axis, 0 for the global register block
	Addr    uint16
}

// MCBLayer is one register-access frame: a fixed header, a payload
// (4-byte register value or a raw data block) and a CRC32 over
// header and payload.
type MCBLayer struct {
	layers.BaseLayer
	MCBHeader
	Data []byte
	Crc  uint32
}

var MCBLayerType = gopacket.RegisterLayerType(MCBLayerNum,
	gopacket.LayerTypeMetadata{Name: "MCBLayerType", Decoder: gopacket.DecodeFunc(DecodeMCBLayer)})

func (mcb *MCBLayer) LayerType() gopacket.LayerType {
	return MCBLayerType
}

// Value returns the register value carried by a RegWrite/RegData frame.
func (mcb *MCBLayer) Value() uint32 {
	if len(mcb.Data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(mcb.Data[0:4])
}

// SetValue sets a 4-byte register value payload.
func (mcb *MCBLayer) SetValue(value uint32) {
	mcb.Data = make([]byte, 4)
	binary.LittleEndian.PutUint32(mcb.Data, value)
}

// SerializeHeader serializes only the header (not payload and CRC) to a
// buffer. The CRC depends on the serialized header so it has to be
// computed from this intermediate form.
func (mcb *MCBLayer) SerializeHeader(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], mcb.Sync)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(mcb.Type))
	binary.LittleEndian.PutUint16(buf[4:6], mcb.Seq)
	binary.LittleEndian.PutUint16(buf[6:8], mcb.Len)
	binary.LittleEndian.PutUint16(buf[8:10], mcb.Subnode)
	binary.LittleEndian.PutUint16(buf[10:12], mcb.Addr)
}

// SerializeTo serializes the frame into bytes and writes the bytes to
// the SerializeBuffer. It pads the payload to a 4-byte boundary and
// fills in Len and Crc.
func (mcb *MCBLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(mcb.Data) > MCBMaxPayloadSize {
		return errors.New("mcb: payload too large")
	}
	padded := (len(mcb.Data) + 3) &^ 3
	mcb.Sync = MCBSync
	mcb.Len = uint16((MCBHeaderSize + padded + 4) / 4)

	bytes, err := b.AppendBytes(MCBHeaderSize + padded + 4)
	if err != nil {
		return err
	}
	mcb.SerializeHeader(bytes[0:MCBHeaderSize])
	copy(bytes[MCBHeaderSize:], mcb.Data)
	for i := MCBHeaderSize + len(mcb.Data); i < MCBHeaderSize+padded; i++ {
		bytes[i] = 0
	}
	mcb.Crc = crc32.ChecksumIEEE(bytes[0 : MCBHeaderSize+padded])
	binary.LittleEndian.PutUint32(bytes[MCBHeaderSize+padded:], mcb.Crc)
	return nil
}

func (mcb *MCBLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < MCBHeaderSize+4 {
		df.SetTruncated()
		return errors.New("mcb: frame too short")
	}
	mcb.Sync = binary.LittleEndian.Uint16(data[0:2])
	if mcb.Sync != MCBSync {
		return errors.New("mcb: wrong sync word")
	}
	mcb.Type = MCBType(binary.LittleEndian.Uint16(data[2:4]))
	mcb.Seq = binary.LittleEndian.Uint16(data[4:6])
	mcb.Len = binary.LittleEndian.Uint16(data[6:8])
	mcb.Subnode = binary.LittleEndian.Uint16(data[8:10])
	mcb.Addr = binary.LittleEndian.Uint16(data[10:12])

	frameLen := int(mcb.Len) * 4
	if frameLen < MCBHeaderSize+4 || frameLen > len(data) {
		df.SetTruncated()
		return errors.New("mcb: wrong frame length")
	}

	mcb.Crc = binary.LittleEndian.Uint32(data[frameLen-4 : frameLen])
	crc := crc32.ChecksumIEEE(data[0 : frameLen-4])
	if crc != mcb.Crc {
		return errors.New("mcb: CRC mismatch")
	}

	mcb.Data = data[MCBHeaderSize : frameLen-4]
	mcb.BaseLayer = layers.BaseLayer{
		Contents: data[0:frameLen],
		Payload:  []byte{},
	}
	return nil
}

func DecodeMCBLayer(data []byte, p gopacket.PacketBuilder) error {
	mcb := &MCBLayer{}
	err := mcb.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(mcb)
	return nil
}
