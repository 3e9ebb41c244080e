package wasmcheck

type (
	// ValidationError is a violated typing rule.
	// All rule sentinels below are ValidationErrors,
	// decoding errors and panics are not.
	ValidationError string
)

// Operand and control stack.
var (
	ErrOperandUnderflow = ValidationError("operand stack underflow")
	ErrTypeMismatch     = ValidationError("operand type mismatch")
	ErrHeightMismatch   = ValidationError("operand stack height mismatch at block end")
	ErrControlUnderflow = ValidationError("control stack underflow")
	ErrNestingTooDeep   = ValidationError("control nesting too deep")
)

// Context lookups.
var (
	ErrUnknownType   = ValidationError("unknown type")
	ErrUnknownFunc   = ValidationError("unknown function")
	ErrUnknownTable  = ValidationError("unknown table")
	ErrUnknownMemory = ValidationError("unknown memory")
	ErrUnknownGlobal = ValidationError("unknown global")
	ErrUnknownLocal  = ValidationError("unknown local")
	ErrUnknownLabel  = ValidationError("unknown label")
)

// Instruction rules.
var (
	ErrImmutableGlobal   = ValidationError("global mutability must be var")
	ErrAlignment         = ValidationError("alignment must not be larger than natural")
	ErrLabelTypeMismatch = ValidationError("br_table labels must agree")
	ErrNoReturn          = ValidationError("return outside of function")
	ErrNotConstant       = ValidationError("non-constant instruction in constant expression")
)

// Types and modules.
var (
	ErrLimits           = ValidationError("limits maximum is less than minimum")
	ErrMemoryTooLarge   = ValidationError("memory size must be at most 65536 pages")
	ErrResultArity      = ValidationError("result arity must not be larger than 1")
	ErrElemType         = ValidationError("table element type must be funcref")
	ErrStartType        = ValidationError("start function must have type [] -> []")
	ErrMultipleTables   = ValidationError("multiple tables")
	ErrMultipleMemories = ValidationError("multiple memories")
	ErrDuplicateExport  = ValidationError("duplicate export name")
)

func (e ValidationError) Error() string { return string(e) }
