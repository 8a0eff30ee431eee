package common

// Version is the current compiler version as a string.
const Version string = "0.2.0"

// ConfigFileName is the default name of the compiler configuration file.
const ConfigFileName string = "stencilc.toml"

// EnvPrefix prefixes every environment variable the compiler reads.
const EnvPrefix string = "STENCILC_"

// PointerSize is the size of a native pointer in bytes.  Only 64-bit hosts are
// supported.
const PointerSize int = 8

// Names of the builtin array constructors.  These are resolved by the checker
// and never looked up in the function registry.
const (
	BuiltinIntArray   = "create_int_array"
	BuiltinFloatArray = "create_float_array"
	BuiltinBoolArray  = "create_bool_array"
)

// IsBuiltin returns whether name refers to a builtin array constructor.
func IsBuiltin(name string) bool {
	switch name {
	case BuiltinIntArray, BuiltinFloatArray, BuiltinBoolArray:
		return true
	}

	return false
}
