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
	"sync"

	"github.com/servolab/go-servo/pkg/dict"
)

type simRegKey struct {
	uid  string
	axis int
}

// simDrive emulates the register surface of one drive, just enough
// state machine for the capture engines: enable bits, process stage,
// frame availability driven by queued sample blocks and the software
// trigger command.
type simDrive struct {
	mu   sync.Mutex
	dict *dict.Dictionary
	gen  Generation

	regs       map[simRegKey]uint32
	status     uint32
	distStatus uint32

	blocks   [][]byte
	waveform []byte

	stageOnEnable Stage
	armAfterForce int
	rejectMapping bool
	// stuckFrame keeps the frame-available bit and the cycle counter
	// asserted while ReadBlock hands out empty payloads.
	stuckFrame bool

	forceWrites      int
	removeDataWrites int
	writeLog         []string
}

func newSimDrive(gen Generation) *simDrive {
	d := dict.New()
	if gen != GenV3 {
		d.Remove(dict.RegMonVersion)
	}
	if gen == GenV1 {
		d.Remove(dict.RegMonBytesValue)
	}
	s := &simDrive{
		dict:          d,
		gen:           gen,
		regs:          make(map[simRegKey]uint32),
		stageOnEnable: StageFillingDelay,
		armAfterForce: 1,
	}
	s.regs[simRegKey{dict.RegPosVelLoopRate, 1}] = 10000
	s.regs[simRegKey{dict.RegMonMaxSize, 0}] = 16384
	s.regs[simRegKey{dict.RegDistMaxSize, 0}] = 16384
	return s
}

func (s *simDrive) setStage(stage Stage) {
	s.status = s.status&^statusStageMask[s.gen] | uint32(stage)
}

func (s *simDrive) queueBlock(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, b)
}

func (s *simDrive) Read(uid string, axis int) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.dict.Lookup(uid); err != nil {
		return 0, err
	}
	switch uid {
	case dict.RegMonDistStatus:
		st := s.status
		if (len(s.blocks) > 0 || s.stuckFrame) && s.gen != GenV1 {
			st |= statusFrameBit[s.gen]
		}
		return st, nil
	case dict.RegDistStatus:
		return s.distStatus, nil
	case dict.RegMonCyclesValue:
		if len(s.blocks) > 0 {
			return uint32(len(s.blocks)), nil
		}
		if s.stuckFrame {
			return 1, nil
		}
		return 0, nil
	case dict.RegMonVersion:
		return 3, nil
	case dict.RegMonTotalMap, dict.RegDistTotalMap:
		if s.rejectMapping {
			return 0, nil
		}
	}
	return s.regs[simRegKey{uid, axis}], nil
}

func (s *simDrive) Write(uid string, value uint32, axis int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.dict.Lookup(uid); err != nil {
		return err
	}
	s.writeLog = append(s.writeLog, uid)
	switch uid {
	case dict.RegMonDistEnable:
		if value == 1 {
			s.status |= statusEnabledBit
			s.setStage(s.stageOnEnable)
		} else {
			s.status &^= statusEnabledBit
			s.setStage(StageInit)
		}
	case dict.RegDistEnable:
		if value == 1 {
			s.distStatus |= statusEnabledBit
		} else {
			s.distStatus &^= statusEnabledBit
		}
	case dict.RegMonForceTrigger:
		s.forceWrites++
		if s.forceWrites >= s.armAfterForce {
			s.setStage(StageWaitingForTrigger)
		}
	case dict.RegMonRemoveData:
		s.removeDataWrites++
	}
	s.regs[simRegKey{uid, axis}] = value
	return nil
}

func (s *simDrive) Info(uid string) (*dict.Register, error) {
	return s.dict.Lookup(uid)
}

func (s *simDrive) ReadBlock() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		return nil, nil
	}
	b := s.blocks[0]
	s.blocks = s.blocks[1:]
	return b, nil
}

func (s *simDrive) WriteWaveform(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waveform = append([]byte(nil), data...)
	return nil
}

func (s *simDrive) wrote(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.writeLog {
		if w == uid {
			n++
		}
	}
	return n
}
