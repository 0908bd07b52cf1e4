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

// Generation is the firmware era of the drive monitoring subsystem.
// The generations differ in window-size semantics, buffer layout and
// readiness reporting, see the per-generation helpers below.
type Generation int

const (
	GenV1 Generation = iota
	GenV2
	GenV3
)

func (g Generation) String() string {
	switch g {
	case GenV1:
		return "v1"
	case GenV2:
		return "v2"
	case GenV3:
		return "v3"
	}
	return "unknown"
}

// Stage is the monitoring process stage reported in the status word.
type Stage uint32

const (
	StageInit              Stage = 0x0
	StageFillingDelay      Stage = 0x2
	StageWaitingForTrigger Stage = 0x4
	StageDataAcquisition   Stage = 0x6
	StageEnd               Stage = 0x8
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageFillingDelay:
		return "filling delay data"
	case StageWaitingForTrigger:
		return "waiting for trigger"
	case StageDataAcquisition:
		return "data acquisition"
	case StageEnd:
		return "end"
	}
	return "unknown"
}

const (
	statusEnabledBit uint32 = 0x1
)

var statusStageMask = map[Generation]uint32{
	GenV1: 0x6,
	GenV2: 0x6,
	GenV3: 0xE,
}

var statusFrameBit = map[Generation]uint32{
	GenV1: 0x800,
	GenV2: 0x800,
	GenV3: 0x10,
}

// StatusEnabled decodes the enabled bit of a monitoring/disturbance
// status word.
func StatusEnabled(status uint32) bool {
	return status&statusEnabledBit == 1
}

// StatusStage decodes the process stage bits of a monitoring status
// word for the given firmware generation.
func StatusStage(status uint32, gen Generation) Stage {
	return Stage(status & statusStageMask[gen])
}

// StatusFrameAvailable decodes the frame-available bit of a monitoring
// status word for the given firmware generation.
func StatusFrameAvailable(status uint32, gen Generation) bool {
	return status&statusFrameBit[gen] != 0
}

// TriggerMode is the start-of-condition type of a capture.
type TriggerMode int

const (
	// TriggerAuto starts filling immediately, there is no trigger.
	TriggerAuto TriggerMode = 0
	// TriggerForced arms on a software-raised trigger command.
	TriggerForced TriggerMode = 1
	// TriggerEdge arms on an edge crossing of a mapped channel.
	TriggerEdge TriggerMode = 2
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerAuto:
		return "auto"
	case TriggerForced:
		return "forced"
	case TriggerEdge:
		return "edge"
	}
	return "unknown"
}

// EdgeDirection selects the crossing direction of an edge trigger.
type EdgeDirection int

const (
	RisingEdge EdgeDirection = iota
	FallingEdge
)

func (d EdgeDirection) String() string {
	if d == FallingEdge {
		return "falling"
	}
	return "rising"
}

// Pre-V3 firmware encodes the edge direction directly in the
// start-of-condition type register instead of a separate edge-condition
// register.
const (
	socTypeCyclicRising  uint32 = 2
	socTypeCyclicFalling uint32 = 4
)

// V3 end-of-condition codes for edge direction.
const (
	eocRising  uint32 = 1
	eocFalling uint32 = 2
)

// Pre-V3 end-of-condition type: stop after the configured number of
// samples.
const eocTriggerNumberSamples uint32 = 3
