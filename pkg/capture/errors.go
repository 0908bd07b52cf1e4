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
	"fmt"
)

// ErrBufferTooSmall returned when a capture or playback configuration
// does not fit the drive sample buffer
type ErrBufferTooSmall struct {
	Demanded int
	Max      int
}

func (e ErrBufferTooSmall) Error() string {
	return fmt.Sprintf(
		"Number of samples is too high or mapped registers are too big. Demanded size: %d bytes, buffer max size: %d bytes",
		e.Demanded, e.Max)
}

// ErrSignalNotMapped returned when a trigger references a register that
// is not in the channel list
type ErrSignalNotMapped struct {
	UID  string
	Axis int
}

func (e ErrSignalNotMapped) Error() string {
	return fmt.Sprintf("Trigger signal is not mapped in monitoring: %s axis %d", e.UID, e.Axis)
}

// ErrMappingRejected returned when the drive reports no mapped
// registers after a mapping was written
type ErrMappingRejected struct {
	Reported uint32
}

func (e ErrMappingRejected) Error() string {
	return fmt.Sprintf("Drive rejected the monitoring register map, reports %d mapped registers", e.Reported)
}

// ErrMonitoringEnabled returned when a configuration mutator is called
// while monitoring is enabled on the drive
type ErrMonitoringEnabled struct{}

func (e ErrMonitoringEnabled) Error() string {
	return "Monitoring is enabled, disable it before changing the configuration"
}

// ErrDisturbanceEnabled returned when a configuration mutator is called
// while disturbance is enabled on the drive
type ErrDisturbanceEnabled struct{}

func (e ErrDisturbanceEnabled) Error() string {
	return "Disturbance is enabled, disable it before changing the configuration"
}

// ErrSampleBounds returned for an invalid total/delay sample
// configuration
type ErrSampleBounds struct {
	Total int
	Delay int
}

func (e ErrSampleBounds) Error() string {
	return fmt.Sprintf(
		"Invalid sample configuration: trigger delay must satisfy 1 <= delay < total, got total=%d delay=%d",
		e.Total, e.Delay)
}

// ErrBadDivider returned for a divider below 1
type ErrBadDivider struct {
	Divider int
}

func (e ErrBadDivider) Error() string {
	return fmt.Sprintf("Frequency divider must be 1 or higher, got %d", e.Divider)
}

// ErrWrongCyclic returned when a register can not be exchanged
// cyclically in the required direction
type ErrWrongCyclic struct {
	UID  string
	What string
}

func (e ErrWrongCyclic) Error() string {
	return fmt.Sprintf("%s can not be mapped as a %s register (wrong cyclic)", e.UID, e.What)
}

// ErrTooManyChannels returned when a mapping request exceeds the
// hardware slot count
type ErrTooManyChannels struct {
	Requested int
	Slots     int
}

func (e ErrTooManyChannels) Error() string {
	return fmt.Sprintf("Requested %d channels but the drive has %d mapping slots", e.Requested, e.Slots)
}

// ErrNotConfigured returned when an operation needs configuration that
// has not been done yet
type ErrNotConfigured struct {
	What string
}

func (e ErrNotConfigured) Error() string {
	return fmt.Sprintf("Not configured: %s", e.What)
}

// ErrUnevenWaveforms returned when the per-channel waveforms of a
// playback do not share one length.
type ErrUnevenWaveforms struct{}

func (e ErrUnevenWaveforms) Error() string {
	return "All disturbance waveforms must have the same number of samples"
}

// ErrNotReady returned when a data read is requested but the drive
// monitoring state machine has not been armed. Gate carries the value
// of the register blocking readiness, the process stage on V3 firmware
// or the trigger repetition counter on older generations.
type ErrNotReady struct {
	Enabled bool
	Gate    uint32
}

func (e ErrNotReady) Error() string {
	return fmt.Sprintf("Can't read monitoring data because monitoring is not ready: enabled: %t gate: 0x%08x, enable monitoring and configure the trigger first", e.Enabled, e.Gate)
}

// ErrWrongTriggerMode returned when a forced trigger is raised but the
// configured trigger is not the forced one
type ErrWrongTriggerMode struct {
	Configured TriggerMode
}

func (e ErrWrongTriggerMode) Error() string {
	return fmt.Sprintf("Monitoring trigger type is not forced trigger: %s", e.Configured)
}

// ErrRearmUnsupported returned when rearming is requested on firmware
// that needs a full reconfiguration instead
type ErrRearmUnsupported struct {
	Gen Generation
}

func (e ErrRearmUnsupported) Error() string {
	return fmt.Sprintf("Rearm is not supported on firmware generation %s, reconfigure the capture instead", e.Gen)
}

// ErrEnableFailed returned when the drive does not report the enabled
// status bit after an enable command
type ErrEnableFailed struct {
	What string
}

func (e ErrEnableFailed) Error() string {
	return fmt.Sprintf("Error enabling %s", e.What)
}
