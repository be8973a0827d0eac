package dialogue

const FallbackPhase = "Core Features"

// DefaultPhases is the catalogue offered when the caller configures none.
var DefaultPhases = []string{
	"Core Features",
	"Tech Stack",
	"UI/UX Design",
	"Data Strategy",
	"Security & Privacy",
	"Testing Strategy",
	"DevOps & Scalability",
	"Observability & Maintenance",
}

// PhaseFor spreads the question budget evenly over the selected phases and
// returns the phase for the next question after `answered` answers.
func PhaseFor(answered, total int, selected []string) string {
	if len(selected) == 0 {
		return FallbackPhase
	}
	if total <= 0 || answered <= 0 {
		return selected[0]
	}
	idx := answered * len(selected) / total
	if idx >= len(selected) {
		idx = len(selected) - 1
	}
	return selected[idx]
}

// HasPhase reports whether phase is one of selected.
func HasPhase(selected []string, phase string) bool {
	for _, p := range selected {
		if p == phase {
			return true
		}
	}
	return false
}
