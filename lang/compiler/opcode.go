package compiler

// Opcode identifies a single VM instruction. Every instruction is encoded
// as a one-byte opcode followed by zero or more 8-byte little-endian
// immediates (a boolean Push payload is the one 1-byte exception), per the
// bytecode format the VM package decodes.
type Opcode uint8

//nolint:revive
const (
	Invalid Opcode = iota
	Exit

	Push        // size(8), payload(size)
	Pop         // size(8)
	AllocStack  // size(8)
	Dup         // size(8)

	AddI64
	SubI64
	MulI64
	DivI64
	ModI64
	AddU64
	SubU64
	MulU64
	DivU64
	ModU64

	NegateI64
	NegateU64
	NegateBool

	// relational comparisons producing a 1-byte bool. spec.md's VM opcode
	// table lists only Equal for comparisons, but the language surface
	// defines < > <= >= as binary operators; these are named after the
	// arithmetic family above for consistency.
	LtI64
	LeI64
	GtI64
	GeI64
	LtU64
	LeU64
	GtU64
	GeU64

	PrintI64
	PrintU64
	PrintBool

	I64ToU64
	U64ToI64

	Equal // size(8)

	Jump          // location(8)
	JumpZero      // location(8), size(8)
	JumpNonZero   // location(8), size(8)

	Call   // argSize(8)
	Return // returnSize(8)

	LoadRelative   // offset(8), size(8)
	StoreRelative  // offset(8), size(8)
	LoadAbsolute   // offset(8), size(8)
	StoreAbsolute  // offset(8), size(8)

	maxOpcode
)

var opcodeNames = [...]string{
	Invalid:       "invalid",
	Exit:          "exit",
	Push:          "push",
	Pop:           "pop",
	AllocStack:    "allocstack",
	Dup:           "dup",
	AddI64:        "addi64",
	SubI64:        "subi64",
	MulI64:        "muli64",
	DivI64:        "divi64",
	ModI64:        "modi64",
	AddU64:        "addu64",
	SubU64:        "subu64",
	MulU64:        "mulu64",
	DivU64:        "divu64",
	ModU64:        "modu64",
	NegateI64:     "negatei64",
	NegateU64:     "negateu64",
	NegateBool:    "negatebool",
	LtI64:         "lti64",
	LeI64:         "lei64",
	GtI64:         "gti64",
	GeI64:         "gei64",
	LtU64:         "ltu64",
	LeU64:         "leu64",
	GtU64:         "gtu64",
	GeU64:         "geu64",
	PrintI64:      "printi64",
	PrintU64:      "printu64",
	PrintBool:     "printbool",
	I64ToU64:      "i64tou64",
	U64ToI64:      "u64toi64",
	Equal:         "equal",
	Jump:          "jump",
	JumpZero:      "jumpzero",
	JumpNonZero:   "jumpnonzero",
	Call:          "call",
	Return:        "return",
	LoadRelative:  "loadrel",
	StoreRelative: "storerel",
	LoadAbsolute:  "loadabs",
	StoreAbsolute: "storeabs",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "opcode(?)"
}

func (op Opcode) Valid() bool { return op < maxOpcode }
