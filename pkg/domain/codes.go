package domain

// Reason-for-new-episode (RNE) codes.
const (
	// RNEStarted opens the first episode of a period of care.
	RNEStarted = "S"
	// RNELegalStatus marks a change of legal status only.
	RNELegalStatus = "L"
	// RNEPlacement marks a change of placement only.
	RNEPlacement = "P"
	// RNELegalStatusAndPlacement marks a simultaneous legal status and placement change.
	RNELegalStatusAndPlacement = "B"
	// RNECarer marks a change of carer within the same placement.
	RNECarer = "T"
	// RNELegalStatusAndCarer marks a change of legal status and carer.
	RNELegalStatusAndCarer = "U"
)

// ReasonEndTransition closes an episode that is followed by another episode
// of the same period of care.
const ReasonEndTransition = "X1"

// TransitionCodes lists every RNE code that may follow an existing episode.
var TransitionCodes = []string{
	RNELegalStatusAndPlacement,
	RNELegalStatus,
	RNEPlacement,
	RNECarer,
	RNELegalStatusAndCarer,
}

// ChangesLegalStatus reports whether an RNE code implies a new legal status.
func ChangesLegalStatus(code string) bool {
	switch code {
	case RNELegalStatus, RNELegalStatusAndPlacement, RNELegalStatusAndCarer:
		return true
	}
	return false
}

// ChangesPlacement reports whether an RNE code implies a new placement.
func ChangesPlacement(code string) bool {
	switch code {
	case RNEPlacement, RNECarer, RNELegalStatusAndPlacement, RNELegalStatusAndCarer:
		return true
	}
	return false
}

func isTransitionCode(code string) bool {
	for _, c := range TransitionCodes {
		if c == code {
			return true
		}
	}
	return false
}
