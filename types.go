package instruct

// UnknownPolicy controls how keys that no field declares are handled.
type UnknownPolicy int

const (
	UnknownStrip       UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                           // Reject unknown keys with unknown_field.
	UnknownPassthrough                      // Keep unknown keys after the declared fields.
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrict:
		return "strict"
	case UnknownPassthrough:
		return "passthrough"
	default:
		return "strip"
	}
}

// ParseUnknownPolicy maps "strip", "strict" and "passthrough" to a policy.
func ParseUnknownPolicy(s string) (UnknownPolicy, bool) {
	switch s {
	case "", "strip":
		return UnknownStrip, true
	case "strict":
		return UnknownStrict, true
	case "passthrough":
		return UnknownPassthrough, true
	}
	return UnknownStrip, false
}

// Severity expresses the severity level for decode issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Warn or Error (duplicate JSON keys).
}

// DecodeOpt bundles decoding options for DecodeJSON.
type DecodeOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	// OnIssue receives non-fatal issues (duplicate keys under Warn).
	OnIssue func(Issue)
}

// DefaultDecodeOpt rejects duplicate keys and leaves depth and size unbounded.
func DefaultDecodeOpt() DecodeOpt {
	return DecodeOpt{Strictness: Strictness{OnDuplicateKey: Error}}
}

// Option configures Compile.
type Option func(*compileConfig)

type compileConfig struct {
	unknown UnknownPolicy
}

// WithUnknownPolicy sets the unknown-key policy for the compiled validator and
// all of its nested object validators.
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(c *compileConfig) { c.unknown = p }
}
