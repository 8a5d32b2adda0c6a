package analytics

import (
	"strings"

	"github.com/crosscrm/crm/internal/domain"
)

// MaxLeadScore caps a contact's lead score.
const MaxLeadScore = 100

var sourceScores = map[string]int{
	"referral":     20,
	"website":      10,
	"social_media": 5,
	"cold_call":    5,
	"event":        15,
	"partner":      15,
}

var lifecycleScores = map[string]int{
	"lead":      0,
	"qualified": 20,
	"customer":  30,
	"champion":  40,
}

// LeadInputs is everything a lead score depends on.
type LeadInputs struct {
	Contact          *domain.Contact
	Activities       int
	RecentActivities int
	Deals            []*domain.Deal
}

// LeadScore is a contact's score broken down by factor.
type LeadScore struct {
	ContactID     int64 `json:"contact_id"`
	BaseScore     int   `json:"base_score"`
	ActivityScore int   `json:"activity_score"`
	DealScore     int   `json:"deal_score"`
	SourceScore   int   `json:"source_score"`
	StageScore    int   `json:"stage_score"`
	TotalScore    int   `json:"total_score"`
}

// ScoreLead computes a contact's lead score.
func ScoreLead(in LeadInputs) LeadScore {
	c := in.Contact
	s := LeadScore{ContactID: c.ID}

	if c.Email != "" {
		s.BaseScore += 10
	}
	if c.Phone != "" {
		s.BaseScore += 10
	}
	if c.JobTitle != "" {
		s.BaseScore += 5
	}
	if c.CompanyID != nil {
		s.BaseScore += 15
	}

	if in.Activities > 0 {
		s.ActivityScore = min(in.Activities*5, 25)
		if in.RecentActivities > 0 {
			s.ActivityScore += 10
		}
	}

	if len(in.Deals) > 0 {
		s.DealScore = min(len(in.Deals)*10, 30)
		var active, won bool
		for _, d := range in.Deals {
			active = active || d.IsOpen()
			won = won || d.Stage == domain.StageClosedWon
		}
		if active {
			s.DealScore += 15
		}
		if won {
			s.DealScore += 20
		}
	}

	s.SourceScore = sourceScores[strings.ToLower(c.LeadSource)]
	s.StageScore = lifecycleScores[strings.ToLower(c.LifecycleStage)]

	s.TotalScore = min(s.BaseScore+s.ActivityScore+s.DealScore+s.SourceScore+s.StageScore, MaxLeadScore)
	return s
}
