package access

// Draft is a working copy of permission state edited one toggle at a time
// before being committed. Every toggle is checked by the guard against the
// current draft, not the state it started from.
type Draft struct {
	guard    *Guard
	original map[RoleKey]bool
	current  map[RoleKey]bool
}

func NewDraft(guard *Guard, state map[RoleKey]bool) *Draft {
	if guard == nil {
		guard = NewGuard()
	}
	d := &Draft{
		guard:    guard,
		original: make(map[RoleKey]bool, len(state)),
		current:  make(map[RoleKey]bool, len(state)),
	}
	for k, v := range state {
		d.original[k] = v
		d.current[k] = v
	}
	return d
}

// Check validates a change against the draft without applying it.
func (d *Draft) Check(role Role, key Key, enabled bool) GuardDecision {
	return d.guard.Check(role, key, enabled, d.current)
}

// Toggle applies a change if the guard allows it. The draft is unchanged on refusal.
func (d *Draft) Toggle(role Role, key Key, enabled bool) GuardDecision {
	decision := d.Check(role, key, enabled)
	if !decision.Allowed {
		return decision
	}
	d.current[RoleKey{Role: role, Key: key}] = enabled
	return decision
}

// Value reports the draft value of role/key.
func (d *Draft) Value(role Role, key Key) bool {
	return d.current[RoleKey{Role: role, Key: key}]
}

// Pending returns entries whose draft value differs from the original.
func (d *Draft) Pending() map[RoleKey]bool {
	out := make(map[RoleKey]bool)
	for k, v := range d.current {
		if d.original[k] != v {
			out[k] = v
		}
	}
	return out
}

func (d *Draft) HasPending() bool {
	return len(d.Pending()) > 0
}

// State returns a copy of the draft values.
func (d *Draft) State() map[RoleKey]bool {
	out := make(map[RoleKey]bool, len(d.current))
	for k, v := range d.current {
		out[k] = v
	}
	return out
}

// Reset discards every pending change.
func (d *Draft) Reset() {
	d.current = make(map[RoleKey]bool, len(d.original))
	for k, v := range d.original {
		d.current[k] = v
	}
}
