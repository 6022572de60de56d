package treesitter

import (
	"fmt"
	"os"
	"strings"
)

// BackendType identifies a tree-sitter backend implementation.
type BackendType string

const (
	// BackendAuto tries CGO first, then falls back to wazero.
	BackendAuto BackendType = "auto"

	// BackendCGO uses smacker/go-tree-sitter.
	BackendCGO BackendType = "cgo"

	// BackendWazero uses malivvan/tree-sitter on wazero. Experimental,
	// C and C++ only.
	BackendWazero BackendType = "wazero"
)

// EnvVarBackend is the environment variable used to select the backend.
const EnvVarBackend = "NESTSCAN_TREESITTER_BACKEND"

// ParseBackendType validates a backend name. The empty string means auto.
func ParseBackendType(s string) (BackendType, error) {
	typ := BackendType(strings.ToLower(strings.TrimSpace(s)))
	switch typ {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendCGO, BackendWazero:
		return typ, nil
	default:
		return "", fmt.Errorf("invalid backend %q: must be one of auto, cgo, wazero", s)
	}
}

// NewBackend creates a backend of the specified type.
func NewBackend(typ BackendType) (Backend, error) {
	switch typ {
	case BackendCGO:
		return NewCGOBackend()
	case BackendWazero:
		return NewWazeroBackend()
	case BackendAuto:
		if b, err := NewCGOBackend(); err == nil {
			return b, nil
		}
		return NewWazeroBackend()
	default:
		return nil, fmt.Errorf("unknown backend type: %s", typ)
	}
}

// NewBackendFromEnv creates a backend selected by NESTSCAN_TREESITTER_BACKEND,
// defaulting to BackendAuto.
func NewBackendFromEnv() (Backend, error) {
	typ, err := ParseBackendType(os.Getenv(EnvVarBackend))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvVarBackend, err)
	}
	return NewBackend(typ)
}

// AvailableBackends returns the backend types that can be created here.
func AvailableBackends() []BackendType {
	var available []BackendType

	if b, err := NewCGOBackend(); err == nil {
		_ = b.Close()
		available = append(available, BackendCGO)
	}

	if b, err := NewWazeroBackend(); err == nil {
		_ = b.Close()
		available = append(available, BackendWazero)
	}

	return available
}

// BackendInfo describes a backend type.
type BackendInfo struct {
	Type               BackendType
	Name               string
	Description        string
	IsExperimental     bool
	SupportedLanguages []Language
}

// GetBackendInfo returns information about a backend type without creating it.
func GetBackendInfo(typ BackendType) BackendInfo {
	switch typ {
	case BackendCGO:
		return BackendInfo{
			Type:               BackendCGO,
			Name:               "CGO",
			Description:        "Production-ready backend using smacker/go-tree-sitter with CGO bindings",
			SupportedLanguages: AllLanguages(),
		}
	case BackendWazero:
		return BackendInfo{
			Type:               BackendWazero,
			Name:               "Wazero",
			Description:        "Experimental CGO-free backend using malivvan/tree-sitter with WASM/wazero",
			IsExperimental:     true,
			SupportedLanguages: []Language{C, Cpp},
		}
	default:
		return BackendInfo{
			Type:        typ,
			Name:        string(typ),
			Description: "Unknown backend type",
		}
	}
}
