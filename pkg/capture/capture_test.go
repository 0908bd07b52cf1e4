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
	"testing"

	"github.com/servolab/go-servo/pkg/dict"
)

func TestDetectGeneration(t *testing.T) {
	tests := []struct {
		name string
		gen  Generation
	}{
		{"version register readable", GenV3},
		{"byte counter in dictionary", GenV2},
		{"bare firmware", GenV1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSimDrive(tt.gen)
			if got := DetectGeneration(sim); got != tt.gen {
				t.Fatalf("DetectGeneration = %s, want %s", got, tt.gen)
			}
		})
	}
}

func TestEnableDisableMonitoring(t *testing.T) {
	sim := newSimDrive(GenV3)
	c := NewController(sim)
	if err := c.EnableMonitoring(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	enabled, err := c.IsMonitoringEnabled()
	if err != nil || !enabled {
		t.Fatalf("expected monitoring enabled, got %v %v", enabled, err)
	}
	if err := c.DisableMonitoring(); err != nil {
		t.Fatalf("disable: %v", err)
	}
	enabled, _ = c.IsMonitoringEnabled()
	if enabled {
		t.Fatal("monitoring still enabled after disable")
	}
	// V3 flushes the buffer on disable.
	if sim.removeDataWrites == 0 {
		t.Fatal("expected a remove-data command after V3 disable")
	}
}

func TestDisturbanceRidesMonitoringBeforeV3(t *testing.T) {
	sim := newSimDrive(GenV1)
	c := NewController(sim)
	if err := c.EnableDisturbance(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if sim.wrote(dict.RegDistEnable) != 0 {
		t.Fatal("pre-V3 must not touch the disturbance enable register")
	}
	enabled, err := c.IsMonitoringEnabled()
	if err != nil || !enabled {
		t.Fatalf("pre-V3 disturbance enable must enable monitoring, got %v %v", enabled, err)
	}
	on, err := c.IsDisturbanceEnabled()
	if err != nil || !on {
		t.Fatalf("disturbance must report enabled through the shared status, got %v %v", on, err)
	}
}

func TestEnableDisturbanceV3SeparateSwitch(t *testing.T) {
	sim := newSimDrive(GenV3)
	c := NewController(sim)
	if err := c.EnableDisturbance(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if sim.wrote(dict.RegMonDistEnable) != 0 {
		t.Fatal("V3 disturbance enable must not touch the monitoring switch")
	}
	on, err := c.IsDisturbanceEnabled()
	if err != nil || !on {
		t.Fatalf("expected disturbance enabled, got %v %v", on, err)
	}
	mon, _ := c.IsMonitoringEnabled()
	if mon {
		t.Fatal("monitoring must stay disabled")
	}
}

func TestMonitoringMaxSizeFallback(t *testing.T) {
	sim := newSimDrive(GenV1)
	sim.dict.Remove(dict.RegMonMaxSize)
	c := NewController(sim)
	size, err := c.MonitoringMaxSize()
	if err != nil {
		t.Fatalf("max size: %v", err)
	}
	if size != MinimumBufferSize {
		t.Fatalf("size = %d, want guaranteed minimum %d", size, MinimumBufferSize)
	}
}

func TestMonitoringMaxSizeReported(t *testing.T) {
	sim := newSimDrive(GenV3)
	c := NewController(sim)
	size, err := c.MonitoringMaxSize()
	if err != nil {
		t.Fatalf("max size: %v", err)
	}
	if size != 16384 {
		t.Fatalf("size = %d, want 16384", size)
	}
}

func TestStatusDecode(t *testing.T) {
	if !StatusEnabled(0x1) || StatusEnabled(0x10) {
		t.Fatal("enabled bit decode broken")
	}
	if got := StatusStage(0x807, GenV1); got != StageDataAcquisition {
		t.Fatalf("v1 stage = %s, want %s", got, StageDataAcquisition)
	}
	if got := StatusStage(0x9, GenV3); got != StageEnd {
		t.Fatalf("v3 stage = %s, want %s", got, StageEnd)
	}
	if !StatusFrameAvailable(0x800, GenV2) {
		t.Fatal("v2 frame bit must be 0x800")
	}
	if StatusFrameAvailable(0x800, GenV3) {
		t.Fatal("v3 must not use the legacy frame bit")
	}
	if !StatusFrameAvailable(0x10, GenV3) {
		t.Fatal("v3 frame bit must be 0x10")
	}
}

func TestMCBSync(t *testing.T) {
	sim := newSimDrive(GenV2)
	c := NewController(sim)
	if err := c.MCBSync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if sim.wrote(dict.RegMonDistEnable) != 2 {
		t.Fatalf("expected enable then disable, got %d enable writes", sim.wrote(dict.RegMonDistEnable))
	}
	enabled, _ := c.IsMonitoringEnabled()
	if enabled {
		t.Fatal("monitoring must end up disabled")
	}
}
