package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is just a set of multiple modules/files, in the VM spec each Jack class is
// translated to its own .vm file (just like Java .class file) that can be handled as its
// own translation unit during the compilation or lowering phases. Order matters: the
// Lowerer's bootstrap/Sys.init wiring and the CLI's multi-file translation both depend
// on it, so Program keeps modules in a caller-chosen (not alphabetical) sequence.
type Program []Module

// A VM Module is the named translation unit (one per .vm/.jack source file) containing
// a linear list of VM operations/instructions.
type Module struct {
	Name       string      // Translation unit name (source file basename, without extension)
	Operations []Operation // The VM operations that make up this module, in source order
}

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the codegen phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Branching Op

// In memory representation of a label declaration in the VM language.
//
// Labels are only valid within the function they're declared in; the Lowerer is
// responsible for scoping the label to its enclosing function (<fn>$<label>) so
// that two functions may freely reuse the same label name.
type LabelDecl struct {
	Name string // The symbol chosen by the Jack/VM programmer for this label
}

// In memory representation of a conditional/unconditional jump in the VM language.
//
// A plain 'goto' always jumps; an 'if-goto' pops the stack's top and jumps only
// when that value is not false (0).
type GotoOp struct {
	Jump  JumpType // Whether the jump is unconditional or guarded by 'if-goto'
	Label string   // The target label's name, scoped the same way as LabelDecl
}

type JumpType uint8

const (
	Unconditional JumpType = 0 // goto <label>
	Conditional   JumpType = 1 // if-goto <label>
)

// ----------------------------------------------------------------------------
// Function Op

// In memory representation of a function declaration in the VM language.
//
// 'Name' follows the '<Class>.<function>' convention; 'NLocal' states how many
// local variables the callee needs, each zero-initialized by the call protocol.
type FuncDecl struct {
	Name   string // Fully qualified function name (e.g. "Math.multiply")
	NLocal uint16 // Number of local variables to allocate and zero on entry
}

// In memory representation of a function call in the VM language.
//
// 'NArgs' states how many values are already sitting on the stack (pushed by the
// caller, in order) that make up the argument list for the callee.
type FuncCallOp struct {
	Name  string // Fully qualified function name being called (e.g. "Math.multiply")
	NArgs uint16 // Number of arguments already pushed onto the stack by the caller
}

// In memory representation of a function return in the VM language.
//
// Always pops the single return value sitting on top of the stack, restores the
// caller's segment pointers and stack frame, then jumps back to the call site.
type ReturnOp struct{}
