package journal

// Canonical time-of-day slots, in day order.
const (
	SlotWake      = "起床"
	SlotMorning   = "上午"
	SlotAfternoon = "下午"
	SlotEvening   = "晚上"
)

// Legacy labels still present in old rows.
const (
	legacyEarlyRising = "早起时" // folded into 起床
	legacyMidday      = "中午"  // folded into 下午
)

// TimeSlots returns the canonical slot labels in day order.
func TimeSlots() []string {
	return []string{SlotWake, SlotMorning, SlotAfternoon, SlotEvening}
}

// NormalizeTimeOfDay maps legacy labels onto their canonical slot.
// Unknown labels pass through unchanged.
func NormalizeTimeOfDay(label string) string {
	switch label {
	case legacyEarlyRising:
		return SlotWake
	case legacyMidday:
		return SlotAfternoon
	}
	return label
}

// TimeOfDayAliases returns the stored labels a slot may appear under,
// canonical label first. Lookups probe these in order and stop at the
// first hit.
func TimeOfDayAliases(label string) []string {
	switch NormalizeTimeOfDay(label) {
	case SlotWake:
		return []string{SlotWake, legacyEarlyRising}
	case SlotAfternoon:
		return []string{SlotAfternoon, legacyMidday}
	default:
		return []string{NormalizeTimeOfDay(label)}
	}
}
