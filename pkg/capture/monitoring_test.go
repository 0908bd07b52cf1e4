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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/servolab/go-servo/pkg/dict"
)

func newTestMonitoring(t *testing.T, gen Generation) (*simDrive, *Controller, *Monitoring) {
	t.Helper()
	sim := newSimDrive(gen)
	c := NewController(sim)
	m, err := c.NewMonitoring()
	if err != nil {
		t.Fatalf("new monitoring: %v", err)
	}
	m.PollInterval = 100 * time.Microsecond
	return sim, c, m
}

func TestSetFrequency(t *testing.T) {
	_, _, m := newTestMonitoring(t, GenV3)
	freq, err := m.SetFrequency(2)
	if err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	if freq != 5000 {
		t.Fatalf("freq = %v, want 5000 (10 kHz loop rate, divider 2)", freq)
	}
	if _, err := m.SetFrequency(0); err == nil {
		t.Fatal("divider 0 must be rejected")
	}
	var bad ErrBadDivider
	_, err = m.SetFrequency(-3)
	if !errors.As(err, &bad) {
		t.Fatalf("expected ErrBadDivider, got %v", err)
	}
}

func TestMapRegistersPacksSlots(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	err := m.MapRegisters([]RegisterKey{
		{UID: "CL_POS_FBK_VALUE", Axis: 1},
		{UID: "CL_VEL_FBK_VALUE", Axis: 2},
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	pos, _ := sim.dict.Lookup("CL_POS_FBK_VALUE")
	want := pos.MappedAddr(1)<<16 | uint32(dict.TypeS32)<<8 | 4
	if got := sim.regs[simRegKey{dict.MonMappedRegUID(0), 0}]; got != want {
		t.Fatalf("slot 0 = %#x, want %#x", got, want)
	}
	vel, _ := sim.dict.Lookup("CL_VEL_FBK_VALUE")
	want = vel.MappedAddr(2)<<16 | uint32(dict.TypeFloat)<<8 | 4
	if got := sim.regs[simRegKey{dict.MonMappedRegUID(1), 0}]; got != want {
		t.Fatalf("slot 1 = %#x, want %#x", got, want)
	}
	if got := sim.regs[simRegKey{dict.RegMonTotalMap, 0}]; got != 2 {
		t.Fatalf("total map = %d, want 2", got)
	}
}

func TestMapRegistersRejectsNonCyclic(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	err := m.MapRegisters([]RegisterKey{{UID: "CL_VOL_Q_SET_POINT", Axis: 1}})
	var wrong ErrWrongCyclic
	if !errors.As(err, &wrong) {
		t.Fatalf("expected ErrWrongCyclic for an RX-only register, got %v", err)
	}
	// Validation fails before any slot write reaches the drive.
	if sim.wrote(dict.RegMonTotalMap) != 0 {
		t.Fatal("rejected mapping must not touch the drive")
	}
}

func TestMapRegistersDriveRejection(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	sim.rejectMapping = true
	err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}})
	var rejected ErrMappingRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected ErrMappingRejected, got %v", err)
	}
}

func TestConfigureNumberSamplesBounds(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	var bounds ErrSampleBounds
	if err := m.ConfigureNumberSamples(100, 150); !errors.As(err, &bounds) {
		t.Fatalf("delay beyond total must be rejected, got %v", err)
	}
	if err := m.ConfigureNumberSamples(100, 100); !errors.As(err, &bounds) {
		t.Fatalf("delay equal to total must be rejected, got %v", err)
	}
	if err := m.ConfigureNumberSamples(100, 0); !errors.As(err, &bounds) {
		t.Fatalf("zero delay must be rejected, got %v", err)
	}
	if sim.wrote(dict.RegMonWindowSamples) != 0 {
		t.Fatal("rejected bounds must not reach the drive")
	}
	if err := m.ConfigureNumberSamples(100, 1); err != nil {
		t.Fatalf("minimal valid delay rejected: %v", err)
	}
}

func TestConfigureNumberSamplesWindows(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	if err := m.ConfigureNumberSamples(1000, 100); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := sim.regs[simRegKey{dict.RegMonWindowSamples, 0}]; got != 1000 {
		t.Fatalf("v3 window = %d, want the whole capture", got)
	}

	sim1, _, m1 := newTestMonitoring(t, GenV1)
	if err := m1.ConfigureNumberSamples(1000, 100); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := sim1.regs[simRegKey{dict.RegMonWindowSamples, 0}]; got != 900 {
		t.Fatalf("v1 window = %d, want post-trigger samples only", got)
	}
	if got := sim1.regs[simRegKey{dict.RegMonEocType, 0}]; got != eocTriggerNumberSamples {
		t.Fatalf("v1 EOC type = %d, want %d", got, eocTriggerNumberSamples)
	}
}

func TestConfigureNumberSamplesCapacityCheckedBeforeWrite(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	before := sim.wrote(dict.RegMonWindowSamples)
	err := m.ConfigureNumberSamples(5000, 100)
	var tooSmall ErrBufferTooSmall
	if !errors.As(err, &tooSmall) {
		t.Fatalf("5000 4-byte samples exceed 16384 bytes, got %v", err)
	}
	if sim.wrote(dict.RegMonWindowSamples) != before {
		t.Fatal("over-capacity capture must not reach the drive")
	}
	if err := m.ConfigureNumberSamples(4000, 100); err != nil {
		t.Fatalf("4000 4-byte samples fit exactly: %v", err)
	}
}

func TestConfigureSampleTime(t *testing.T) {
	_, _, m := newTestMonitoring(t, GenV3)
	if err := m.ConfigureSampleTime(0.1, 0.03); err == nil {
		t.Fatal("sample time before SetFrequency must be rejected")
	}
	if _, err := m.SetFrequency(1); err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	if err := m.ConfigureSampleTime(0.1, 0.03); err != nil {
		t.Fatalf("configure sample time: %v", err)
	}
	if m.TotalSamples() != 1000 {
		t.Fatalf("total = %d, want 1000 (0.1 s at 10 kHz)", m.TotalSamples())
	}
	if m.triggerDelay != 200 {
		t.Fatalf("delay = %d, want 200 samples", m.triggerDelay)
	}
}

func TestSetTriggerEdgeRequiresMappedSignal(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	sig := RegisterKey{UID: "CL_POS_FBK_VALUE", Axis: 1}
	err := m.SetTrigger(EdgeTrigger(RisingEdge, sig, 10))
	var notMapped ErrSignalNotMapped
	if !errors.As(err, &notMapped) {
		t.Fatalf("expected ErrSignalNotMapped, got %v", err)
	}
	if sim.wrote(dict.RegMonSocType) != 0 {
		t.Fatal("rejected trigger must not reach the drive")
	}
}

func TestSetTriggerEdgeV1LegacyCodes(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV1)
	sig := RegisterKey{UID: "CL_POS_FBK_VALUE", Axis: 1}
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_VEL_FBK_VALUE", Axis: 1}, sig}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.SetTrigger(EdgeTrigger(FallingEdge, sig, -1)); err != nil {
		t.Fatalf("set trigger: %v", err)
	}
	if got := sim.regs[simRegKey{dict.RegMonSocType, 0}]; got != socTypeCyclicFalling {
		t.Fatalf("soc type = %d, want legacy falling code %d", got, socTypeCyclicFalling)
	}
	if got := sim.regs[simRegKey{dict.RegMonFallingCond, 0}]; got != math.MaxUint32 {
		t.Fatalf("falling condition = %#x, want two's complement of -1", got)
	}
	if got := sim.regs[simRegKey{dict.RegMonIndexChecker, 0}]; got != 1 {
		t.Fatalf("index checker = %d, want slot of the trigger signal", got)
	}
	if got := sim.regs[simRegKey{dict.RegMonTriggerRepeats, 0}]; got != 1 {
		t.Fatalf("repetitions = %d, want reset to 1 before arming", got)
	}
}

func TestSetTriggerEdgeV3(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	sig := RegisterKey{UID: "CL_VEL_FBK_VALUE", Axis: 1}
	if err := m.MapRegisters([]RegisterKey{sig}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.SetTrigger(EdgeTrigger(FallingEdge, sig, 0.5)); err != nil {
		t.Fatalf("set trigger: %v", err)
	}
	if got := sim.regs[simRegKey{dict.RegMonSocType, 0}]; got != uint32(TriggerEdge) {
		t.Fatalf("soc type = %d, want %d", got, TriggerEdge)
	}
	if got := sim.regs[simRegKey{dict.RegMonEocType, 0}]; got != eocFalling {
		t.Fatalf("eoc type = %d, want falling code %d", got, eocFalling)
	}
	if got := sim.regs[simRegKey{dict.RegMonRisingCond, 0}]; got != math.Float32bits(0.5) {
		t.Fatalf("condition = %#x, want float bits of 0.5", got)
	}
}

func monRecord(pos int32, vel float32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[:4], uint32(pos))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(vel))
	return b
}

func TestReadDataFullCapture(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	keys := []RegisterKey{
		{UID: "CL_POS_FBK_VALUE", Axis: 1},
		{UID: "CL_VEL_FBK_VALUE", Axis: 1},
	}
	if err := m.MapRegisters(keys); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(4, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := m.SetTrigger(AutoTrigger()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}

	// Two frames of two records each.
	frame1 := append(monRecord(-10, 0.5), monRecord(-20, 1.5)...)
	frame2 := append(monRecord(30, -2.5), monRecord(40, 3.5)...)
	sim.queueBlock(frame1)
	sim.queueBlock(frame2)

	var progress []float64
	m.OnProgress = func(_ Stage, p float64) { progress = append(progress, p) }

	data, err := m.ReadData(time.Second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("channels = %d, want 2", len(data))
	}
	wantPos := []float64{-10, -20, 30, 40}
	wantVel := []float64{0.5, 1.5, -2.5, 3.5}
	for i := range wantPos {
		if data[0][i] != wantPos[i] {
			t.Fatalf("pos[%d] = %v, want %v", i, data[0][i], wantPos[i])
		}
		if data[1][i] != wantVel[i] {
			t.Fatalf("vel[%d] = %v, want %v", i, data[1][i], wantVel[i])
		}
	}
	// V3 acknowledges every drained frame.
	if sim.removeDataWrites < 2 {
		t.Fatalf("remove-data writes = %d, want one per frame", sim.removeDataWrites)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 1 {
		t.Fatalf("progress = %v, want to end at 1", progress)
	}
}

func TestReadDataNotReady(t *testing.T) {
	_, _, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(10, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	_, err := m.ReadData(time.Second)
	var notReady ErrNotReady
	if !errors.As(err, &notReady) {
		t.Fatalf("disabled monitoring must refuse to read, got %v", err)
	}
	if notReady.Enabled {
		t.Fatalf("error = %+v, must report monitoring as disabled", notReady)
	}
}

func TestReadDataNotReadyCarriesGateState(t *testing.T) {
	_, c, m := newTestMonitoring(t, GenV1)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(10, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	// Enabled but never armed, the repetition counter still reads zero.
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	_, err := m.ReadData(time.Second)
	var notReady ErrNotReady
	if !errors.As(err, &notReady) {
		t.Fatalf("unarmed monitoring must refuse to read, got %v", err)
	}
	if !notReady.Enabled || notReady.Gate != 0 {
		t.Fatalf("error = %+v, want enabled with a zero repetition counter", notReady)
	}
}

func TestStopReadingFromAnotherGoroutine(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(1000, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := m.SetTrigger(AutoTrigger()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	sim.queueBlock(monRecord(1, 0)[:4])

	type result struct {
		data [][]float64
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := m.ReadData(0)
		done <- result{data, err}
	}()
	time.Sleep(10 * time.Millisecond)
	m.StopReading()
	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("stopped read must not error: %v", res.err)
		}
		if len(res.data[0]) != 1 {
			t.Fatalf("partial data = %d samples, want the 1 read before stop", len(res.data[0]))
		}
	case <-time.After(time.Second):
		t.Fatal("read loop did not notice the stop flag")
	}
}

func TestReadDataTriggerTimeout(t *testing.T) {
	_, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(100, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	start := time.Now()
	data, err := m.ReadData(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must yield partial data, not an error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("returned after %s, before the trigger timeout", elapsed)
	}
	if len(data) != 1 || len(data[0]) != 0 {
		t.Fatalf("data = %v, want one empty channel", data)
	}
}

func TestReadDataStallTimeout(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(100, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	// 5 of 100 samples arrive, then the drive goes quiet.
	block := make([]byte, 0, 20)
	for i := int32(0); i < 5; i++ {
		block = append(block, monRecord(i, 0)[:4]...)
	}
	sim.queueBlock(block)
	m.SampleReadBudget = 500 * time.Microsecond // 50 ms stall budget

	data, err := m.ReadData(0)
	if err != nil {
		t.Fatalf("stall must yield partial data, not an error: %v", err)
	}
	if len(data[0]) != 5 {
		t.Fatalf("samples = %d, want the 5 read before the stall", len(data[0]))
	}
}

func TestReadDataWaitsForTriggerBeyondStallBudget(t *testing.T) {
	_, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(10, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	m.SampleReadBudget = time.Millisecond // 10 ms stall budget

	// No trigger timeout and no data: the stall budget is not armed yet
	// and the loop keeps waiting well past it.
	done := make(chan [][]float64, 1)
	go func() {
		data, err := m.ReadData(0)
		if err != nil {
			t.Errorf("read: %v", err)
		}
		done <- data
	}()
	select {
	case <-done:
		t.Fatal("read loop gave up waiting for the trigger")
	case <-time.After(60 * time.Millisecond):
	}
	m.StopReading()
	select {
	case data := <-done:
		if len(data[0]) != 0 {
			t.Fatalf("data = %v, want none", data)
		}
	case <-time.After(time.Second):
		t.Fatal("read loop did not notice the stop flag")
	}
}

func TestReadDataEmptyFramesStillTimeOut(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(100, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	// The drive keeps asserting frame-available while every block reads
	// back empty. The timeouts still end the loop.
	sim.stuckFrame = true

	start := time.Now()
	data, err := m.ReadData(30 * time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must yield partial data, not an error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Fatalf("returned after %s, want the 30 ms trigger timeout", elapsed)
	}
	if len(data[0]) != 0 {
		t.Fatalf("data = %v, want none", data)
	}
}

func TestReadDataEmptyFramesAfterDataHitStallBudget(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(100, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	block := make([]byte, 0, 20)
	for i := int32(0); i < 5; i++ {
		block = append(block, monRecord(i, 0)[:4]...)
	}
	sim.queueBlock(block)
	sim.stuckFrame = true
	m.SampleReadBudget = 500 * time.Microsecond // 50 ms stall budget

	data, err := m.ReadData(0)
	if err != nil {
		t.Fatalf("stall must yield partial data, not an error: %v", err)
	}
	if len(data[0]) != 5 {
		t.Fatalf("samples = %d, want the 5 read before the empty frames", len(data[0]))
	}
}

func TestRaiseForcedTrigger(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.SetTrigger(ForcedTrigger()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	sim.armAfterForce = 3
	triggered, err := m.RaiseForcedTrigger(true, time.Second)
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	if !triggered {
		t.Fatal("trigger must take once the state machine arms")
	}
	if sim.forceWrites < 3 {
		t.Fatalf("force writes = %d, want the command repeated until armed", sim.forceWrites)
	}
}

func TestRaiseForcedTriggerWrongMode(t *testing.T) {
	_, _, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.SetTrigger(AutoTrigger()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	_, err := m.RaiseForcedTrigger(true, time.Second)
	var wrong ErrWrongTriggerMode
	if !errors.As(err, &wrong) {
		t.Fatalf("expected ErrWrongTriggerMode, got %v", err)
	}
}

func TestReadDataForcedTriggerTimeoutYieldsEmpty(t *testing.T) {
	sim, c, m := newTestMonitoring(t, GenV3)
	if err := m.MapRegisters([]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}, {UID: "CL_VEL_FBK_VALUE", Axis: 1}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	if err := m.ConfigureNumberSamples(10, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := m.SetTrigger(ForcedTrigger()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	sim.armAfterForce = 1 << 30 // never arms
	data, err := m.ReadDataForcedTrigger(30 * time.Millisecond)
	if err != nil {
		t.Fatalf("trigger timeout must not error: %v", err)
	}
	if len(data) != 2 || len(data[0]) != 0 || len(data[1]) != 0 {
		t.Fatalf("data = %v, want one empty series per channel", data)
	}
}

func TestRearm(t *testing.T) {
	sim, _, m := newTestMonitoring(t, GenV3)
	if err := m.Rearm(); err != nil {
		t.Fatalf("v3 rearm: %v", err)
	}
	if sim.wrote(dict.RegMonRearm) != 1 {
		t.Fatal("rearm command not written")
	}
	if sim.removeDataWrites == 0 {
		t.Fatal("rearm must flush the stale buffer first")
	}

	_, _, m1 := newTestMonitoring(t, GenV1)
	var unsupported ErrRearmUnsupported
	if err := m1.Rearm(); !errors.As(err, &unsupported) {
		t.Fatalf("pre-V3 rearm must be refused, got %v", err)
	}
}

func TestCreateMonitoringComposite(t *testing.T) {
	_, c, _ := newTestMonitoring(t, GenV3)
	m, err := c.CreateMonitoring(
		[]RegisterKey{{UID: "CL_POS_FBK_VALUE", Axis: 1}},
		1, 0.1, 0, ForcedTrigger(),
	)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.TotalSamples() != 1000 {
		t.Fatalf("total = %d, want 1000", m.TotalSamples())
	}
	trig, ok := m.Trigger()
	if !ok || trig.Mode != TriggerForced {
		t.Fatalf("trigger = %+v %v, want forced", trig, ok)
	}
}
