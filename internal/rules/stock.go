package rules

// NextAvailability flips an item's availability. An absent flag counts as
// available, so only an explicit false becomes true.
func NextAvailability(current *bool) bool {
	if current != nil && !*current {
		return true
	}
	return false
}
