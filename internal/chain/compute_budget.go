package chain

import "encoding/binary"

// ComputeBudgetProgramID is the well-known compute budget program.
var ComputeBudgetProgramID = Address{
	0x03, 0x06, 0x46, 0x6f, 0xe5, 0x21, 0x17, 0x32,
	0xff, 0xec, 0xad, 0xba, 0x72, 0xc3, 0x9b, 0xe7,
	0xbc, 0x8c, 0xe5, 0xbb, 0xc5, 0xf7, 0x12, 0x6b,
	0x2c, 0x43, 0x9b, 0x3a, 0x40, 0x00, 0x00, 0x00,
}

// DefaultOrderComputeUnits is the unit limit prefixed to order
// placement. Order matching is compute-heavy next to plain transfers, so
// the limit is generous rather than tuned per call.
const DefaultOrderComputeUnits uint32 = 600_000

const setComputeUnitLimitTag = 0x02

// ComputeBudgetInstruction builds a set-compute-unit-limit instruction.
func ComputeBudgetInstruction(units uint32) Instruction {
	data := make([]byte, 5)
	data[0] = setComputeUnitLimitTag
	binary.LittleEndian.PutUint32(data[1:], units)
	return Instruction{
		ProgramID: ComputeBudgetProgramID,
		Data:      data,
	}
}
