package models

// Verdict is the result of comparing the current position with the target.
// The zero value is VerdictUnknown.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictWithin
	VerdictOutside
)

func (v Verdict) Known() bool {
	return v != VerdictUnknown
}

func (v Verdict) Within() bool {
	return v == VerdictWithin
}

func (v Verdict) String() string {
	switch v {
	case VerdictWithin:
		return "within"
	case VerdictOutside:
		return "outside"
	default:
		return "unknown"
	}
}
