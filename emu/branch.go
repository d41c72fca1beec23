package emu

// BranchTarget returns the destination of a branch at pc with the given
// word offset. The offset is relative to the visible PC, two instructions
// ahead of the branch.
func BranchTarget(pc uint32, offset int32) uint32 {
	return pc + PipelineOffset + uint32(offset)*4
}
