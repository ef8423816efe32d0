// Package types defines the shared data model for symgen: interned string
// (qstr) records, module registration records, and the aggregate handed to
// the template renderer.
//
// Values of these types are created during extraction and are not mutated
// afterwards; the renderer and the list command only read them.
package types

// Pool identifies which qstr pool a record belongs to. The static pool holds
// qstrs the runtime requires at fixed indices; the unsorted pool holds
// everything discovered by scanning.
type Pool uint8

const (
	// PoolStatic is the pool of qstrs known before any source is scanned.
	PoolStatic Pool = 0
	// PoolUnsorted is the pool of qstrs discovered while scanning.
	PoolUnsorted Pool = 1
)

// String returns the string representation of the pool.
func (p Pool) String() string {
	switch p {
	case PoolStatic:
		return "static"
	case PoolUnsorted:
		return "unsorted"
	default:
		return "unknown"
	}
}

// QStr is one interned string record. Hash and Ident are what the consuming
// runtime keys on; Source is diagnostic only and never part of identity.
type QStr struct {
	// Pool tags the record's provenance (static vs. discovered).
	Pool Pool `json:"pool"`
	// Val is the original string content.
	Val string `json:"val"`
	// EscapedVal is Val in a form safe to embed in a generated C string
	// literal. Equal to Val unless Val contains ASCII control characters.
	EscapedVal string `json:"escaped_val"`
	// Ident is the sanitized C identifier, including the MP_QSTR_ prefix.
	Ident string `json:"ident"`
	// Hash is the DJB-style hash of Val, masked to the configured width.
	// Never zero: zero is reserved by the runtime for "not yet computed".
	Hash uint32 `json:"hash"`
	// ValLen is the byte length of the unescaped Val.
	ValLen int `json:"val_len"`
	// Source records where the qstr was found, for diagnostics.
	Source string `json:"source"`
}

// ModuleKind classifies a module registration declaration.
type ModuleKind int

const (
	// ModuleKindPlain is a MP_REGISTER_MODULE registration.
	ModuleKindPlain ModuleKind = iota
	// ModuleKindExtensible is a MP_REGISTER_EXTENSIBLE_MODULE registration.
	ModuleKindExtensible
	// ModuleKindDelegation is a MP_REGISTER_MODULE_DELEGATION registration.
	ModuleKindDelegation
)

// String returns the string representation of the module kind.
func (k ModuleKind) String() string {
	switch k {
	case ModuleKindPlain:
		return "module"
	case ModuleKindExtensible:
		return "extensible_module"
	case ModuleKindDelegation:
		return "module_delegation"
	default:
		return "unknown"
	}
}

// Module is one module registration record.
type Module struct {
	// QstrIdent is the identifier of the qstr naming the module, as it
	// appears in the registration (e.g. MP_QSTR_time).
	QstrIdent string `json:"qstr_ident"`
	// UpperName is QstrIdent with the MP_QSTR_ prefix stripped and
	// upper-cased, used for feature-guard macro names.
	UpperName string `json:"upper_name"`
	// Symbol is the C symbol implementing the module.
	Symbol string `json:"symbol"`
	// Source records which translation unit declared the registration.
	Source string `json:"source"`
	// Kind is the registration category.
	Kind ModuleKind `json:"kind"`
}

// ExtractedData is the consolidated result of one generation run. It is
// produced exactly once, after every translation unit has been scanned, and
// handed whole to the renderer.
type ExtractedData struct {
	// StaticQstrs is the static pool, in built-in list order.
	StaticQstrs []QStr `json:"static_qstrs"`
	// UnsortedQstrs is the discovered pool: built-in unsorted entries
	// first, then scan discoveries in first-seen order, then configured
	// extras in configuration order.
	UnsortedQstrs []QStr `json:"unsorted_qstrs"`
	// AllQstrs is StaticQstrs followed by UnsortedQstrs. The concatenation
	// order is a contract: the emitted table must list the static pool
	// before the unsorted pool.
	AllQstrs []QStr `json:"all_qstrs"`

	Modules           []Module `json:"modules"`
	ExtensibleModules []Module `json:"extensible_modules"`
	ModuleDelegations []Module `json:"module_delegations"`
}
