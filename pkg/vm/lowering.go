package vm

import (
	"fmt"

	"github.com/pkg/errors"
	"hacktoolchain.dev/n2t/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' and produces its 'asm.Program' counterpart.
//
// Unlike the Asm Lowerer (a flat, local translation with no cross-instruction state)
// the Vm Lowerer is stateful: it tracks the current module (for 'static' segment
// naming) and the current function (for label scoping and the '<fn>$ret.<k>' return
// address convention), plus a global counter for comparison labels and per-function
// counters for return labels, used to keep internally generated labels collision-free.
type Lowerer struct {
	program Program

	module      string         // Name of the module/class currently being lowered (for 'static' naming)
	function    string         // Fully qualified name of the function currently being lowered
	retCounters map[string]int // Per-function counter for '<fn>$ret.<k>' call-site labels
	cmpCounter  int            // Global counter for internally generated comparison labels

	debug bool // When true, interleaves a '// <vm op>' comment above each lowered block
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
func NewLowerer(p Program) *Lowerer {
	return &Lowerer{program: p, retCounters: map[string]int{}}
}

// Enables interleaving of a debug comment (the originating VM operation, rendered
// via the same textual form 'vm.CodeGenerator' would produce) above each lowered
// Asm block. Mirrors the '-d' flag of the nand2tetris reference VM translator.
func (l *Lowerer) WithDebugComments(enabled bool) *Lowerer {
	l.debug = enabled
	return l
}

// Lowers the whole 'vm.Program' to its 'asm.Program' counterpart, module by module
// in the order they appear (callers are expected to have already applied whatever
// translation-unit ordering they need, see OrderTranslationUnits).
func (l *Lowerer) Lower() (asm.Program, error) {
	out := asm.Program{}

	for _, module := range l.program {
		l.module = module.Name
		for _, op := range module.Operations {
			stmts, err := l.lowerOperation(op)
			if err != nil {
				return nil, errors.Wrapf(err, "module %q", module.Name)
			}
			out = append(out, stmts...)
		}
	}

	return out, nil
}

// Lowers the VM bootstrap sequence: initializes the stack pointer, poisons the
// sentinel segment pointers (LCL=-1, ARG=-2, THIS=-3, THAT=-4, matching the
// reference implementation so any erroneous access before the first real 'call'
// fails loudly) and calls 'Sys.init'. Emitted once, before any translated module,
// only when the caller is assembling a full multi-file program.
func (l *Lowerer) LowerBootstrap() (asm.Program, error) {
	out := asm.Program{
		asm.AInstruction{Location: "256"}, asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "D", Dest: "M"},

		asm.AInstruction{Location: "0"}, asm.CInstruction{Comp: "A-1", Dest: "D"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Comp: "D", Dest: "M"},
		asm.CInstruction{Comp: "D-1", Dest: "D"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "D", Dest: "M"},
		asm.CInstruction{Comp: "D-1", Dest: "D"},
		asm.AInstruction{Location: "THIS"}, asm.CInstruction{Comp: "D", Dest: "M"},
		asm.CInstruction{Comp: "D-1", Dest: "D"},
		asm.AInstruction{Location: "THAT"}, asm.CInstruction{Comp: "D", Dest: "M"},
	}

	l.module, l.function = "Bootstrap", "Bootstrap"
	call, err := l.lowerOperation(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap call to Sys.init")
	}

	return append(out, call...), nil
}

func (l *Lowerer) lowerOperation(op Operation) (asm.Program, error) {
	var stmts asm.Program
	var err error

	switch t := op.(type) {
	case MemoryOp:
		stmts, err = l.lowerMemoryOp(t)
	case ArithmeticOp:
		stmts, err = l.lowerArithmeticOp(t)
	case LabelDecl:
		stmts, err = l.lowerLabelDecl(t)
	case GotoOp:
		stmts, err = l.lowerGotoOp(t)
	case FuncDecl:
		stmts, err = l.lowerFuncDecl(t)
	case FuncCallOp:
		stmts, err = l.lowerFuncCallOp(t)
	case ReturnOp:
		stmts, err = l.lowerReturnOp(t)
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", op)
	}
	if err != nil {
		return nil, err
	}

	if l.debug {
		if text, genErr := debugText(op); genErr == nil {
			stmts = append(asm.Program{asm.Comment{Text: text}}, stmts...)
		}
	}

	return stmts, nil
}

// debugText renders a single operation through the regular CodeGenerator so the
// '-d' interleaved comment always matches the textual VM form byte for byte.
func debugText(op Operation) (string, error) {
	cg := NewCodeGenerator(Program{{Operations: []Operation{op}}})
	lines, err := cg.Generate()
	if err != nil {
		return "", err
	}
	for _, group := range lines {
		if len(group) > 0 {
			return group[0], nil
		}
	}
	return "", fmt.Errorf("no line generated")
}

// scopedLabel applies the '<fn>$<label>' scoping convention so that two functions
// can freely reuse the same label name without colliding at the Asm level.
func (l *Lowerer) scopedLabel(name string) string {
	if l.function == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", l.function, name)
}

// ----------------------------------------------------------------------------
// Memory segments

func (l *Lowerer) segmentBase(seg SegmentType) (string, bool) {
	switch seg {
	case Local:
		return "LCL", true
	case Argument:
		return "ARG", true
	case This:
		return "THIS", true
	case That:
		return "THAT", true
	}
	return "", false
}

func (l *Lowerer) lowerMemoryOp(op MemoryOp) (asm.Program, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	if op.Operation == Push {
		return l.lowerPush(op)
	}
	return l.lowerPop(op)
}

// pushD appends the shared "push the value currently in D" tail used by every push.
func pushD() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M+1", Dest: "M"},
	}
}

func (l *Lowerer) lowerPush(op MemoryOp) (asm.Program, error) {
	switch op.Segment {
	case Constant:
		out := asm.Program{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Comp: "A", Dest: "D"},
		}
		return append(out, pushD()...), nil

	case Local, Argument, This, That:
		base, _ := l.segmentBase(op.Segment)
		out := asm.Program{
			asm.AInstruction{Location: base}, asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Comp: "D+A", Dest: "A"},
			asm.CInstruction{Comp: "M", Dest: "D"},
		}
		return append(out, pushD()...), nil

	case Temp:
		out := asm.Program{
			asm.AInstruction{Location: fmt.Sprint(5 + op.Offset)}, asm.CInstruction{Comp: "M", Dest: "D"},
		}
		return append(out, pushD()...), nil

	case Pointer:
		loc := "THIS"
		if op.Offset == 1 {
			loc = "THAT"
		}
		out := asm.Program{asm.AInstruction{Location: loc}, asm.CInstruction{Comp: "M", Dest: "D"}}
		return append(out, pushD()...), nil

	case Static:
		out := asm.Program{
			asm.AInstruction{Location: fmt.Sprintf("%s.%d", l.module, op.Offset)}, asm.CInstruction{Comp: "M", Dest: "D"},
		}
		return append(out, pushD()...), nil
	}

	return nil, fmt.Errorf("unrecognized segment '%s'", op.Segment)
}

func (l *Lowerer) lowerPop(op MemoryOp) (asm.Program, error) {
	switch op.Segment {
	case Local, Argument, This, That:
		base, _ := l.segmentBase(op.Segment)
		return asm.Program{
			asm.AInstruction{Location: base}, asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Comp: "D+A", Dest: "D"},
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "D", Dest: "M"},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "M", Dest: "A"},
			asm.CInstruction{Comp: "D", Dest: "M"},
		}, nil

	case Temp:
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: fmt.Sprint(5 + op.Offset)}, asm.CInstruction{Comp: "D", Dest: "M"},
		}, nil

	case Pointer:
		loc := "THIS"
		if op.Offset == 1 {
			loc = "THAT"
		}
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: loc}, asm.CInstruction{Comp: "D", Dest: "M"},
		}, nil

	case Static:
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: fmt.Sprintf("%s.%d", l.module, op.Offset)}, asm.CInstruction{Comp: "D", Dest: "M"},
		}, nil
	}

	return nil, fmt.Errorf("unrecognized or non-poppable segment '%s'", op.Segment)
}

// ----------------------------------------------------------------------------
// Arithmetic & logic

func (l *Lowerer) lowerArithmeticOp(op ArithmeticOp) (asm.Program, error) {
	switch op.Operation {
	case Neg, Not:
		comp := "-M"
		if op.Operation == Not {
			comp = "!M"
		}
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "A"},
			asm.CInstruction{Comp: comp, Dest: "M"},
		}, nil

	case Add, Sub, And, Or:
		comp := map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}[op.Operation]
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.CInstruction{Comp: "A-1", Dest: "A"},
			asm.CInstruction{Comp: comp, Dest: "M"},
		}, nil

	case Eq, Gt, Lt:
		return l.lowerComparisonOp(op.Operation)
	}

	return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
}

func (l *Lowerer) lowerComparisonOp(op ArithOpType) (asm.Program, error) {
	jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op]
	id := l.cmpCounter
	l.cmpCounter++

	trueLabel := fmt.Sprintf("INTERNAL.CMP.%d.TRUE", id)
	endLabel := fmt.Sprintf("INTERNAL.CMP.%d.END", id)

	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.CInstruction{Comp: "A-1", Dest: "A"},
		asm.CInstruction{Comp: "M-D", Dest: "D"},
		asm.AInstruction{Location: trueLabel}, asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "A"},
		asm.CInstruction{Comp: "0", Dest: "M"},
		asm.AInstruction{Location: endLabel}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "A"},
		asm.CInstruction{Comp: "-1", Dest: "M"},
		asm.LabelDecl{Name: endLabel},
	}, nil
}

// ----------------------------------------------------------------------------
// Branching

func (l *Lowerer) lowerLabelDecl(op LabelDecl) (asm.Program, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty label declaration")
	}
	return asm.Program{asm.LabelDecl{Name: l.scopedLabel(op.Name)}}, nil
}

func (l *Lowerer) lowerGotoOp(op GotoOp) (asm.Program, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to lower empty jump target")
	}

	target := l.scopedLabel(op.Label)
	if op.Jump == Unconditional {
		return asm.Program{
			asm.AInstruction{Location: target}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: target}, asm.CInstruction{Comp: "D", Jump: "JNE"},
	}, nil
}

// ----------------------------------------------------------------------------
// Functions

func (l *Lowerer) lowerFuncDecl(op FuncDecl) (asm.Program, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty function declaration")
	}

	l.function = op.Name
	delete(l.retCounters, op.Name) // a function is declared exactly once; start its ret-label counter fresh

	out := asm.Program{asm.LabelDecl{Name: op.Name}}
	for i := uint16(0); i < op.NLocal; i++ {
		push, err := l.lowerPush(MemoryOp{Operation: Push, Segment: Constant, Offset: 0})
		if err != nil {
			return nil, err
		}
		out = append(out, push...)
	}

	return out, nil
}

func (l *Lowerer) lowerFuncCallOp(op FuncCallOp) (asm.Program, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty function call")
	}

	caller := l.function
	retLabel := fmt.Sprintf("%s$ret.%d", caller, l.retCounters[caller])
	l.retCounters[caller]++

	out := asm.Program{
		// push return address
		asm.AInstruction{Location: retLabel}, asm.CInstruction{Comp: "A", Dest: "D"},
	}
	out = append(out, pushD()...)
	for _, seg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		out = append(out, asm.AInstruction{Location: seg}, asm.CInstruction{Comp: "M", Dest: "D"})
		out = append(out, pushD()...)
	}

	out = append(out,
		// ARG = SP - 5 - nArgs
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "5"}, asm.CInstruction{Comp: "D-A", Dest: "D"},
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)}, asm.CInstruction{Comp: "D-A", Dest: "D"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// LCL = SP
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// goto f
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel},
	)

	l.function = caller
	return out, nil
}

func (l *Lowerer) lowerReturnOp(ReturnOp) (asm.Program, error) {
	return asm.Program{
		// FRAME (R13) = LCL
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// RET (R14) = *(FRAME-5)
		asm.AInstruction{Location: "5"}, asm.CInstruction{Comp: "D-A", Dest: "A"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// *ARG = pop()
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "M+1", Dest: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// THAT = *(FRAME-1)
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "THAT"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// THIS = *(FRAME-2)
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "THIS"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// ARG = *(FRAME-3)
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// LCL = *(FRAME-4)
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Comp: "D", Dest: "M"},
		// goto RET
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}, nil
}
