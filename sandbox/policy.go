package sandbox

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrDisallowedImport is returned by CheckImports when the source imports
// a module outside the policy allowlist.
var ErrDisallowedImport = errors.New("import not allowed")

// DefaultAllowedImports covers computation-only stdlib modules that carry
// no process, filesystem or network capability.
var DefaultAllowedImports = []string{
	"base64",
	"bisect",
	"collections",
	"datetime",
	"decimal",
	"fractions",
	"functools",
	"hashlib",
	"heapq",
	"itertools",
	"json",
	"math",
	"random",
	"re",
	"statistics",
	"string",
	"textwrap",
	"time",
	"unicodedata",
	"uuid",
}

// Policy bounds one execution: wall clock, address space, importable
// modules and ambient capabilities. The zero value denies subprocess
// creation, file access and network access.
type Policy struct {
	// Timeout is the hard wall-clock deadline. The subprocess is killed
	// on expiry; output captured up to that point is retained.
	Timeout time.Duration
	// MemoryLimitMB caps the subprocess address space via RLIMIT_AS.
	MemoryLimitMB int
	// AllowedImports is the top-level module allowlist, checked statically
	// before execution and again at runtime for dynamic imports.
	AllowedImports []string
	// AllowSubprocess permits spawning processes from the executed code.
	AllowSubprocess bool
	// AllowFileAccess permits opening filesystem paths from the executed code.
	AllowFileAccess bool
	// AllowNetwork permits socket operations from the executed code.
	AllowNetwork bool
	// MaxOutputSize caps captured stdout and stderr, each. Output past
	// the cap is discarded and a truncation marker appended.
	MaxOutputSize int
}

// DefaultPolicy returns the policy applied when per-tool configuration
// leaves fields unset.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:        10 * time.Second,
		MemoryLimitMB:  256,
		AllowedImports: slices.Clone(DefaultAllowedImports),
		MaxOutputSize:  16 * 1024,
	}
}

// WithDefaults fills unset limits from the default policy. Capability
// flags keep their value, false is the deny default.
func (p Policy) WithDefaults() Policy {
	def := DefaultPolicy()
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	if p.MemoryLimitMB <= 0 {
		p.MemoryLimitMB = def.MemoryLimitMB
	}
	if len(p.AllowedImports) == 0 {
		p.AllowedImports = slices.Clone(def.AllowedImports)
	}
	if p.MaxOutputSize <= 0 {
		p.MaxOutputSize = def.MaxOutputSize
	}
	return p
}
