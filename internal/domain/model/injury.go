package model

import "strings"

// InjuryStatus is the official game-status designation of a player.
type InjuryStatus string

// Official designations. Questionable players are treated as available.
const (
	StatusOut          InjuryStatus = "OUT"
	StatusDoubtful     InjuryStatus = "DOUBTFUL"
	StatusQuestionable InjuryStatus = "QUESTIONABLE"
	StatusIR           InjuryStatus = "IR"
	StatusPUP          InjuryStatus = "PUP"
	StatusNFI          InjuryStatus = "NFI"
)

// ParseStatus normalises injury-report spellings. ok is false when the value is not recognised.
func ParseStatus(s string) (status InjuryStatus, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUT", "O":
		return StatusOut, true
	case "DOUBTFUL", "D":
		return StatusDoubtful, true
	case "QUESTIONABLE", "Q":
		return StatusQuestionable, true
	case "IR", "INJURED RESERVE", "RESERVE/INJURED", "IR-R":
		return StatusIR, true
	case "PUP", "PHYSICALLY UNABLE TO PERFORM":
		return StatusPUP, true
	case "NFI", "NON-FOOTBALL INJURY":
		return StatusNFI, true
	}
	return "", false
}

// LongTerm reports whether the status takes the player off the roster for an extended period.
func (s InjuryStatus) LongTerm() bool {
	return s == StatusIR || s == StatusPUP || s == StatusNFI
}

// Severity orders statuses from available (0) to unavailable.
func (s InjuryStatus) Severity() int {
	switch s {
	case StatusQuestionable:
		return 1
	case StatusDoubtful:
		return 2
	case StatusOut:
		return 3
	case StatusIR, StatusPUP, StatusNFI:
		return 4
	default:
		return 0
	}
}

// InjuryRecord is one line of a team's injury report.
type InjuryRecord struct {
	Team     string       `json:"team" koanf:"team"`
	Player   string       `json:"player" koanf:"player"`
	Position string       `json:"position" koanf:"position"`
	Status   InjuryStatus `json:"status" koanf:"status"`
}
