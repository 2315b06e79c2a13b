package grades

import "strings"

// aliases folds roster spellings onto the positions the grade tables are keyed by.
var aliases = map[string]string{
	"OT":  "T",
	"LT":  "T",
	"RT":  "T",
	"OG":  "G",
	"LG":  "G",
	"RG":  "G",
	"OC":  "C",
	"HB":  "RB",
	"FB":  "RB",
	"NT":  "DT",
	"DL":  "DT",
	"OLB": "LB",
	"ILB": "LB",
	"MLB": "LB",
	"FS":  "S",
	"SS":  "S",
	"DB":  "CB",
	"ED":  "EDGE",
	"PK":  "K",
}

// neutralGrades are the per-position grades used when a team has nobody graded there.
var neutralGrades = map[string]float64{
	"QB":   65,
	"RB":   60,
	"WR":   62,
	"TE":   60,
	"T":    62,
	"G":    60,
	"C":    60,
	"DE":   62,
	"DT":   60,
	"EDGE": 63,
	"LB":   60,
	"CB":   62,
	"S":    60,
	"K":    70,
	"P":    70,
	"LS":   60,
}

// NormalizePosition maps a roster position onto its canonical key.
func NormalizePosition(pos string) string {
	p := strings.ToUpper(strings.TrimSpace(pos))
	if a, ok := aliases[p]; ok {
		return a
	}
	return p
}

// NeutralGrade returns the default grade for a position.
func NeutralGrade(pos string) float64 {
	if g, ok := neutralGrades[NormalizePosition(pos)]; ok {
		return g
	}
	return defaultGrade
}
