// Package identity implements the daemon's optional per-connection
// identity filter (spec.md §4.7, §6 --allowed-browser-id). It is the
// only authentication the daemon performs — a fixed allow-value
// comparison, not a credential system.
package identity

// Filter compares a connection's reported token against a configured
// allow-value. A zero-value Filter (empty Allowed) accepts everything,
// matching the spec's default of no identity filter.
type Filter struct {
	Allowed string
}

// New returns a Filter configured with the given allow-value. An empty
// allowed disables the filter entirely.
func New(allowed string) Filter {
	return Filter{Allowed: allowed}
}

// Enabled reports whether the filter is configured at all.
func (f Filter) Enabled() bool {
	return f.Allowed != ""
}

// Accepts reports whether token matches the configured allow-value.
// When the filter is disabled, every token (including empty) is
// accepted.
func (f Filter) Accepts(token string) bool {
	if !f.Enabled() {
		return true
	}
	return token == f.Allowed
}
