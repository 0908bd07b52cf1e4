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

// MinimumBufferSize is assumed when the drive does not report its
// monitoring or disturbance buffer size.
const MinimumBufferSize = 8192

// BufferSizer checks capture demands against the sample buffer of the
// drive. Pre-V3 firmware stores the delay window and the post-trigger
// window in separate halves of the buffer, so only half of the reported
// size is usable and the demand is driven by the larger window. V3
// keeps a single circular buffer.
type BufferSizer struct {
	Gen     Generation
	MaxSize uint32
}

// Samples returns the per-channel sample count the buffer must hold for
// a capture of totalSamples with the given trigger delay.
func (s BufferSizer) Samples(totalSamples, triggerDelay int) int {
	if s.Gen == GenV3 {
		return totalSamples
	}
	n := totalSamples - triggerDelay
	if triggerDelay > n {
		n = triggerDelay
	}
	return n
}

// Capacity returns the usable buffer size in bytes.
func (s BufferSizer) Capacity() uint32 {
	if s.Gen == GenV3 {
		return s.MaxSize
	}
	return s.MaxSize / 2
}

// RequiredBytes returns the buffer demand of the mapped channels for a
// capture of totalSamples with the given trigger delay.
func (s BufferSizer) RequiredBytes(widths []int, totalSamples, triggerDelay int) uint32 {
	n := s.Samples(totalSamples, triggerDelay)
	var demand uint32
	for _, w := range widths {
		demand += uint32(w * n)
	}
	return demand
}

// CheckFits returns ErrBufferTooSmall when the demand of the mapped
// channels exceeds the usable buffer size. The demand is never
// truncated to fit.
func (s BufferSizer) CheckFits(widths []int, totalSamples, triggerDelay int) error {
	demand := s.RequiredBytes(widths, totalSamples, triggerDelay)
	if capacity := s.Capacity(); demand > capacity {
		return ErrBufferTooSmall{Demanded: int(demand), Max: int(capacity)}
	}
	return nil
}
