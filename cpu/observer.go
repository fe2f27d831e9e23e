package cpu

// Stage is a step of the instruction cycle.
type Stage int

//go:generate go tool stringer -linecomment -type=Stage
const (
	STAGE_FETCH     = Stage(0) // IF
	STAGE_DECODE    = Stage(1) // ID
	STAGE_EXECUTE   = Stage(2) // EX
	STAGE_MEMORY    = Stage(3) // MEM
	STAGE_WRITEBACK = Stage(4) // WB
	STAGE_SYSCALL   = Stage(5) // SYSCALL
)

// Event is the state of the current cycle at a stage boundary.
// Fields are filled in as the cycle progresses.
type Event struct {
	Stage   Stage
	Tick    int     // Cycle number, from 0.
	Pc      uint32  // Address of the instruction.
	Code    Code    // Fetched instruction word.
	Control Control // Decoded control signals.

	Result uint32 // ALU result. Also the memory address for loads and stores.
	NextPc uint32 // Resolved next PC.
	Taken  bool   // Branch or jump taken.

	Service SyscallCode // Syscall service requested.
	Value   uint32      // Memory data read or written, or the write-back value.
}

// Observer receives cycle events.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(ev Event)

func (fn ObserverFunc) Observe(ev Event) {
	fn(ev)
}
