package classifier

import "strings"

// Verdict is the final label for one graph image.
type Verdict string

const (
	VerdictNormal   Verdict = "Normal"
	VerdictAbnormal Verdict = "Abnormal"
	VerdictUnknown  Verdict = "Unknown"
)

// ParseVerdict normalizes model output into a Verdict. Only an exact
// one-word answer counts; anything else ("Abnormal, due to ...", an empty
// string, an apology) is Unknown.
func ParseVerdict(text string) Verdict {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "normal":
		return VerdictNormal
	case "abnormal":
		return VerdictAbnormal
	default:
		return VerdictUnknown
	}
}
