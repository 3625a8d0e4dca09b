package instruct

import eng "github.com/reoring/instruct/internal/engine"

// Paths are dotted from the root (address.city) with bracketed list indexes
// (tags[2]); the root itself is the empty string.

func joinField(base, name string) string { return eng.JoinField(base, name) }

func joinIndex(base string, i int) string { return eng.JoinIndex(base, i) }
