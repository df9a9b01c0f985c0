package council

import "strings"

// ResolveAddressees maps a raw address mode to the set of personas engaged
// for this query. An exact persona name (any case, surrounding whitespace
// ignored) selects that persona alone; everything else, including "ALL",
// the empty string, and unknown names, selects the full council in
// canonical order.
func ResolveAddressees(mode string) []Persona {
	switch Persona(strings.ToUpper(strings.TrimSpace(mode))) {
	case Melchior:
		return []Persona{Melchior}
	case Balthasar:
		return []Persona{Balthasar}
	case Casper:
		return []Persona{Casper}
	default:
		out := make([]Persona, len(CanonicalOrder))
		copy(out, CanonicalOrder)
		return out
	}
}
