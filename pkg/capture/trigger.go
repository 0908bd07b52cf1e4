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
	"math"

	"github.com/servolab/go-servo/pkg/dict"
)

// RegisterKey identifies a drive register on a particular axis.
type RegisterKey struct {
	UID  string
	Axis int
}

// Trigger describes the start condition of a capture. Signal and
// Threshold are only meaningful for edge triggers.
type Trigger struct {
	Mode      TriggerMode
	Edge      EdgeDirection
	Signal    RegisterKey
	Threshold float64
}

// AutoTrigger starts filling as soon as monitoring is enabled.
func AutoTrigger() Trigger {
	return Trigger{Mode: TriggerAuto}
}

// ForcedTrigger arms the capture on a software trigger command.
func ForcedTrigger() Trigger {
	return Trigger{Mode: TriggerForced}
}

// EdgeTrigger arms the capture on a threshold crossing of a mapped
// channel.
func EdgeTrigger(edge EdgeDirection, signal RegisterKey, threshold float64) Trigger {
	return Trigger{Mode: TriggerEdge, Edge: edge, Signal: signal, Threshold: threshold}
}

// EncodeThreshold converts a trigger threshold into the raw register
// word the drive compares samples against. Unsigned types wrap into
// their width, signed values use two's complement and floats keep
// their IEEE 754 bit pattern.
func EncodeThreshold(value float64, t dict.DataType) uint32 {
	switch t {
	case dict.TypeFloat:
		return math.Float32bits(float32(value))
	case dict.TypeU16:
		return uint32(uint16(int64(value)))
	case dict.TypeS16, dict.TypeS32:
		v := int64(value)
		if v < 0 {
			v += 1 << 32
		}
		return uint32(v)
	default:
		return uint32(int64(value))
	}
}

// DecodeThreshold is the inverse of EncodeThreshold.
func DecodeThreshold(raw uint32, t dict.DataType) float64 {
	switch t {
	case dict.TypeFloat:
		return float64(math.Float32frombits(raw))
	case dict.TypeS16:
		return float64(int16(raw))
	case dict.TypeS32:
		return float64(int32(raw))
	case dict.TypeU16:
		return float64(uint16(raw))
	default:
		return float64(raw)
	}
}
