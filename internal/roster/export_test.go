package roster

// Size exposes size to the external roster_test package.
func (r *Roster) Size() int { return r.size() }
