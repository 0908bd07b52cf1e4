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

package dict

// DataType is the wire representation of a register value.
type DataType int

const (
	TypeU8 DataType = iota
	TypeS8
	TypeU16
	TypeS16
	TypeU32
	TypeS32
	TypeU64
	TypeS64
	TypeFloat
)

var dataTypeSize = map[DataType]int{
	TypeU8:    1,
	TypeS8:    1,
	TypeU16:   2,
	TypeS16:   2,
	TypeU32:   4,
	TypeS32:   4,
	TypeU64:   8,
	TypeS64:   8,
	TypeFloat: 4,
}

// Size returns the register byte width on the wire
func (t DataType) Size() int {
	return dataTypeSize[t]
}

func (t DataType) String() string {
	names := map[DataType]string{
		TypeU8:    "u8",
		TypeS8:    "s8",
		TypeU16:   "u16",
		TypeS16:   "s16",
		TypeU32:   "u32",
		TypeS32:   "s32",
		TypeU64:   "u64",
		TypeS64:   "s64",
		TypeFloat: "float",
	}
	return names[t]
}

type Access int

const (
	AccessRO Access = iota
	AccessWO
	AccessRW
)

// Cyclic tells whether a register can be exchanged cyclically and in
// which direction: TX registers can be captured by monitoring, RX
// registers can be driven by disturbance.
type Cyclic int

const (
	CyclicNone Cyclic = iota
	CyclicTx
	CyclicRx
	CyclicTxRx
)

func (c Cyclic) Readable() bool {
	return c == CyclicTx || c == CyclicTxRx
}

func (c Cyclic) Writable() bool {
	return c == CyclicRx || c == CyclicTxRx
}

// AxisBlockOffset separates per-axis register blocks sharing one index
// space: the mapped address of a register on axis N is its base address
// plus AxisBlockOffset*(N-1).
const AxisBlockOffset = 0x800

type Register struct {
	UID     string
	Addr    uint16
	Type    DataType
	Access  Access
	Cyclic  Cyclic
	PerAxis bool
}

// MappedAddr returns the address used by the hardware mapping slots for
// this register on the given axis.
func (r *Register) MappedAddr(axis int) uint32 {
	if !r.PerAxis || axis < 1 {
		return uint32(r.Addr)
	}
	return uint32(r.Addr) + AxisBlockOffset*uint32(axis-1)
}

// Monitoring and disturbance configuration registers. All live in the
// subnode 0 block. The UIDs are device identifiers and are treated as
// opaque keys everywhere above the transport.
const (
	RegMonDistStatus     = "MON_DIST_STATUS"
	RegMonDistEnable     = "MON_DIST_ENABLE"
	RegMonFreqDivider    = "MON_DIST_FREQ_DIV"
	RegMonSocType        = "MON_CFG_SOC_TYPE"
	RegMonEocType        = "MON_CFG_EOC_TYPE"
	RegMonTriggerRepeats = "MON_CFG_TRIGGER_REPETITIONS"
	RegMonWindowSamples  = "MON_CFG_WINDOW_SAMP"
	RegMonTriggerDelay   = "MON_CFG_TRIGGER_DELAY"
	RegMonCyclesValue    = "MON_CFG_CYCLES_VALUE"
	RegMonBytesValue     = "MON_CFG_BYTES_VALUE"
	RegMonVersion        = "MON_DIS_VERSION"
	RegMonIndexChecker   = "MON_IDX_CHECK"
	RegMonRisingCond     = "MON_CFG_RISING_CONDITION"
	RegMonFallingCond    = "MON_CFG_FALLING_CONDITION"
	RegMonForceTrigger   = "MON_CMD_FORCE_TRIGGER"
	RegMonRearm          = "MON_REARM"
	RegMonRemoveData     = "MON_CMD_REMOVE_DATA"
	RegMonMaxSize        = "MON_MAX_SIZE"
	RegMonTotalMap       = "MON_CFG_TOTAL_MAP"

	RegMonData = "MON_DATA"

	RegDistStatus     = "DIST_STATUS"
	RegDistEnable     = "DIST_ENABLE"
	RegDistFreqDiv    = "DIST_FREQ_DIV"
	RegDistMaxSize    = "DIST_MAX_SIZE"
	RegDistTotalMap   = "DIST_CFG_MAP_REGS"
	RegDistRemoveData = "DIST_CMD_REMOVE_DATA"
	RegDistData       = "DIST_DATA"

	RegPosVelLoopRate = "DRV_POS_VEL_RATE"
)

// MonMappingSlots is the number of hardware capture slots.
const MonMappingSlots = 16

// DistMappingSlots is the number of hardware playback slots.
const DistMappingSlots = 4

// MonMappedRegUID returns the UID of the Nth monitoring mapping slot.
func MonMappedRegUID(slot int) string {
	return mappedRegUIDs[slot]
}

// DistMappedRegUID returns the UID of the Nth disturbance mapping slot.
func DistMappedRegUID(slot int) string {
	return distMappedRegUIDs[slot]
}

var mappedRegUIDs = [MonMappingSlots]string{
	"MON_CFG_REG0_MAP", "MON_CFG_REG1_MAP", "MON_CFG_REG2_MAP", "MON_CFG_REG3_MAP",
	"MON_CFG_REG4_MAP", "MON_CFG_REG5_MAP", "MON_CFG_REG6_MAP", "MON_CFG_REG7_MAP",
	"MON_CFG_REG8_MAP", "MON_CFG_REG9_MAP", "MON_CFG_REG10_MAP", "MON_CFG_REG11_MAP",
	"MON_CFG_REG12_MAP", "MON_CFG_REG13_MAP", "MON_CFG_REG14_MAP", "MON_CFG_REG15_MAP",
}

var distMappedRegUIDs = [DistMappingSlots]string{
	"DIST_CFG_REG0_MAP", "DIST_CFG_REG1_MAP", "DIST_CFG_REG2_MAP", "DIST_CFG_REG3_MAP",
}

var baseRegisters = []Register{
	{UID: RegMonDistStatus, Addr: 0x00B0, Type: TypeU32, Access: AccessRO},
	{UID: RegMonDistEnable, Addr: 0x00B1, Type: TypeU32, Access: AccessRW},
	{UID: RegMonFreqDivider, Addr: 0x00B2, Type: TypeU32, Access: AccessRW},
	{UID: RegMonSocType, Addr: 0x00B3, Type: TypeU32, Access: AccessRW},
	{UID: RegMonEocType, Addr: 0x00B4, Type: TypeU32, Access: AccessRW},
	{UID: RegMonTriggerRepeats, Addr: 0x00B5, Type: TypeU32, Access: AccessRW},
	{UID: RegMonWindowSamples, Addr: 0x00B6, Type: TypeU32, Access: AccessRW},
	{UID: RegMonTriggerDelay, Addr: 0x00B7, Type: TypeU32, Access: AccessRW},
	{UID: RegMonCyclesValue, Addr: 0x00B8, Type: TypeU32, Access: AccessRO},
	{UID: RegMonBytesValue, Addr: 0x00B9, Type: TypeU32, Access: AccessRO},
	{UID: RegMonVersion, Addr: 0x00BA, Type: TypeU32, Access: AccessRO},
	{UID: RegMonIndexChecker, Addr: 0x00BB, Type: TypeU32, Access: AccessRW},
	{UID: RegMonRisingCond, Addr: 0x00BC, Type: TypeU32, Access: AccessRW},
	{UID: RegMonFallingCond, Addr: 0x00BD, Type: TypeU32, Access: AccessRW},
	{UID: RegMonForceTrigger, Addr: 0x00BE, Type: TypeU32, Access: AccessWO},
	{UID: RegMonRearm, Addr: 0x00BF, Type: TypeU32, Access: AccessWO},
	{UID: RegMonRemoveData, Addr: 0x00C2, Type: TypeU32, Access: AccessWO},
	{UID: RegMonMaxSize, Addr: 0x00C0, Type: TypeU32, Access: AccessRO},
	{UID: RegMonTotalMap, Addr: 0x00C1, Type: TypeU32, Access: AccessRW},
	{UID: RegMonData, Addr: 0x00C3, Type: TypeU32, Access: AccessRO},

	{UID: RegDistStatus, Addr: 0x00C8, Type: TypeU32, Access: AccessRO},
	{UID: RegDistEnable, Addr: 0x00C9, Type: TypeU32, Access: AccessRW},
	{UID: RegDistFreqDiv, Addr: 0x00CA, Type: TypeU32, Access: AccessRW},
	{UID: RegDistMaxSize, Addr: 0x00CB, Type: TypeU32, Access: AccessRO},
	{UID: RegDistTotalMap, Addr: 0x00CC, Type: TypeU32, Access: AccessRW},
	{UID: RegDistRemoveData, Addr: 0x00CD, Type: TypeU32, Access: AccessWO},
	{UID: RegDistData, Addr: 0x00CE, Type: TypeU32, Access: AccessWO},

	{UID: RegPosVelLoopRate, Addr: 0x0010, Type: TypeU32, Access: AccessRO, PerAxis: true},

	// Representative cyclic registers, targets for capture and playback.
	{UID: "CL_POS_FBK_VALUE", Addr: 0x0030, Type: TypeS32, Access: AccessRO, Cyclic: CyclicTx, PerAxis: true},
	{UID: "CL_VEL_FBK_VALUE", Addr: 0x0031, Type: TypeFloat, Access: AccessRO, Cyclic: CyclicTx, PerAxis: true},
	{UID: "CL_CUR_Q_VALUE", Addr: 0x0032, Type: TypeFloat, Access: AccessRO, Cyclic: CyclicTx, PerAxis: true},
	{UID: "CL_CUR_D_VALUE", Addr: 0x0033, Type: TypeFloat, Access: AccessRO, Cyclic: CyclicTx, PerAxis: true},
	{UID: "DRV_STATE_STATUS", Addr: 0x0011, Type: TypeU32, Access: AccessRO, Cyclic: CyclicTx, PerAxis: true},
	{UID: "CL_POS_SET_POINT_VALUE", Addr: 0x0040, Type: TypeS32, Access: AccessRW, Cyclic: CyclicTxRx, PerAxis: true},
	{UID: "CL_VEL_SET_POINT_VALUE", Addr: 0x0041, Type: TypeFloat, Access: AccessRW, Cyclic: CyclicTxRx, PerAxis: true},
	{UID: "CL_VOL_Q_SET_POINT", Addr: 0x0042, Type: TypeFloat, Access: AccessRW, Cyclic: CyclicRx, PerAxis: true},
	{UID: "CL_CUR_Q_SET_POINT", Addr: 0x0043, Type: TypeFloat, Access: AccessRW, Cyclic: CyclicRx, PerAxis: true},
}

// Dictionary maps register UIDs to their metadata for one drive
// product. Firmware generations that lack a register simply do not
// carry it in their dictionary.
type Dictionary struct {
	regs map[string]*Register
}

// New builds the full dictionary including all mapping slot registers.
func New() *Dictionary {
	d := &Dictionary{regs: make(map[string]*Register)}
	for i := range baseRegisters {
		r := baseRegisters[i]
		d.regs[r.UID] = &r
	}
	for i := 0; i < MonMappingSlots; i++ {
		d.regs[mappedRegUIDs[i]] = &Register{
			UID:    mappedRegUIDs[i],
			Addr:   0x00D0 + uint16(i),
			Type:   TypeU32,
			Access: AccessRW,
		}
	}
	for i := 0; i < DistMappingSlots; i++ {
		d.regs[distMappedRegUIDs[i]] = &Register{
			UID:    distMappedRegUIDs[i],
			Addr:   0x00E0 + uint16(i),
			Type:   TypeU32,
			Access: AccessRW,
		}
	}
	return d
}

// Lookup resolves a register UID
func (d *Dictionary) Lookup(uid string) (*Register, error) {
	r, ok := d.regs[uid]
	if !ok {
		return nil, ErrRegisterNotFound{UID: uid}
	}
	return r, nil
}

// Remove drops a register, used to model firmware generations that do
// not expose it.
func (d *Dictionary) Remove(uid string) {
	delete(d.regs, uid)
}

// UIDs returns all register UIDs in the dictionary.
func (d *Dictionary) UIDs() []string {
	uids := make([]string, 0, len(d.regs))
	for uid := range d.regs {
		uids = append(uids, uid)
	}
	return uids
}
