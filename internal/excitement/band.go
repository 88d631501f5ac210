package excitement

// Band groups adjusted excitement scores for presentation.
type Band int

const (
	BandStandard Band = iota
	BandExciting
	BandPremier
	BandMustSee
)

// BandFor maps a score onto its band. Cut points are inclusive lower bounds:
// >=9 must-see, >=7 premier, >=6 exciting, otherwise standard.
func BandFor(score int) Band {
	switch {
	case score >= 9:
		return BandMustSee
	case score >= 7:
		return BandPremier
	case score >= 6:
		return BandExciting
	default:
		return BandStandard
	}
}

// Label is the badge text shown next to a matchup.
func (b Band) Label() string {
	switch b {
	case BandMustSee:
		return "must-see"
	case BandPremier:
		return "premier"
	case BandExciting:
		return "exciting"
	default:
		return "standard"
	}
}

func (b Band) String() string {
	return b.Label()
}
