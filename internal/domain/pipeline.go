package domain

import (
	"fmt"
	"strings"
)

// Stage is the position of a deal in the sales pipeline.
type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"
)

// stages is the canonical declaration order.
var stages = []Stage{
	StageProspecting,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

var stageProbabilities = map[Stage]int{
	StageProspecting:   10,
	StageQualification: 25,
	StageProposal:      50,
	StageNegotiation:   75,
	StageClosedWon:     100,
	StageClosedLost:    0,
}

// Stages returns all stages in declaration order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// OpenStages returns the non-terminal stages in order.
func OpenStages() []Stage {
	var out []Stage
	for _, s := range stages {
		if !s.IsClosed() {
			out = append(out, s)
		}
	}
	return out
}

// ConversionPath returns the stages a winning deal passes through, in order.
// closed_lost is not part of it.
func ConversionPath() []Stage {
	var out []Stage
	for _, s := range stages {
		if s != StageClosedLost {
			out = append(out, s)
		}
	}
	return out
}

// ParseStage parses a stage name, case-insensitively.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid stage %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageProbabilities[s]
	return ok
}

// IsClosed reports whether s is terminal.
func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Probability returns the default close probability for the stage.
func (s Stage) Probability() int {
	return stageProbabilities[s]
}

// Order returns the position of s in declaration order, or -1.
func (s Stage) Order() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

// UnmarshalText normalizes the stage name. Unknown names are kept so that
// validation can report them.
func (s *Stage) UnmarshalText(b []byte) error {
	*s = Stage(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// StageInfo describes a stage for API consumers.
type StageInfo struct {
	Stage        Stage `json:"stage"`
	DisplayOrder int   `json:"display_order"`
	Probability  int   `json:"probability"`
	IsClosed     bool  `json:"is_closed"`
}

// Pipeline returns the fixed sales pipeline.
func Pipeline() []StageInfo {
	out := make([]StageInfo, len(stages))
	for i, s := range stages {
		out[i] = StageInfo{Stage: s, DisplayOrder: i, Probability: s.Probability(), IsClosed: s.IsClosed()}
	}
	return out
}
