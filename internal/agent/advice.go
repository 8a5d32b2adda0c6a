package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// StageStrategy is the playbook line for a deal's current stage.
func StageStrategy(stage domain.Stage) string {
	switch stage {
	case domain.StageProspecting:
		return "Focus on understanding their pain points and building rapport"
	case domain.StageQualification:
		return "Confirm budget, authority, need, and timeline (BANT)"
	case domain.StageProposal:
		return "Present a compelling value proposition tailored to their needs"
	case domain.StageNegotiation:
		return "Be flexible on terms while protecting margins, focus on closing"
	}
	return "Continue relationship building and provide value"
}

// NextBestAction suggests how to follow up with a contact given their
// activities, newest first.
func NextBestAction(activities []*domain.Activity, now time.Time) string {
	if len(activities) == 0 {
		return "Schedule an initial discovery call to understand their needs"
	}

	last := activities[0]
	days := int(now.Sub(last.CreatedAt).Hours() / 24)
	switch {
	case days > 30:
		return "Re-engage with a check-in call or email"
	case days > 14:
		return "Follow up on previous conversation"
	case last.Type == domain.ActivityCall:
		return "Send a follow-up email with meeting notes and next steps"
	case last.Type == domain.ActivityEmail:
		return "Schedule a call to discuss the email content"
	case last.Type == domain.ActivityMeeting:
		return "Send a thank you email and proposal if discussed"
	}
	return "Continue nurturing the relationship"
}

// ConversationStarters suggests opening questions for a contact. company may
// be nil.
func ConversationStarters(c *domain.Contact, company *domain.Company) []string {
	var out []string
	if company != nil {
		out = append(out,
			fmt.Sprintf("Ask about %s's current business priorities", company.Name),
			fmt.Sprintf("Discuss how %s is handling market challenges", company.Name),
		)
	}
	if c.JobTitle != "" {
		out = append(out, fmt.Sprintf("Ask about their role as %s", c.JobTitle))
	}
	return append(out,
		"Ask about their biggest challenges this quarter",
		"Discuss industry trends and how they're adapting",
	)
}

// UpsellSuggestions looks at what a contact has already bought.
func UpsellSuggestions(deals []*domain.Deal, company *domain.Company) []string {
	var out []string
	won := decimal.Zero
	bought := false
	for _, d := range deals {
		if d.Stage == domain.StageClosedWon {
			won = won.Add(d.Value)
			bought = true
		}
	}
	if bought {
		out = append(out, fmt.Sprintf("Contact has purchased $%s worth of products - consider upselling", won.StringFixed(2)))
	}
	if company != nil {
		out = append(out, fmt.Sprintf("Explore additional services for %s", company.Name))
	}
	return out
}

var closeMultipliers = map[domain.Stage]float64{
	domain.StageProspecting:   0.3,
	domain.StageQualification: 0.5,
	domain.StageProposal:      0.7,
	domain.StageNegotiation:   0.85,
}

// PredictClose discounts a deal's probability by how far along it is.
func PredictClose(d *domain.Deal) float64 {
	m, ok := closeMultipliers[d.Stage]
	if !ok {
		m = 0.5
	}
	return min(100, max(0, float64(d.Probability)*m))
}

var (
	positiveWords = []string{"great", "excellent", "happy", "pleased", "thank", "appreciate"}
	negativeWords = []string{"disappointed", "concerned", "issue", "problem", "unhappy"}
)

// Sentiment is the tone of a piece of correspondence. Positive and Negative
// count the cue words found.
type Sentiment struct {
	Label    string `json:"sentiment"`
	Positive int    `json:"positive_score"`
	Negative int    `json:"negative_score"`
}

// EmailSentiment classifies text as positive, negative or neutral by counting
// cue words, matched case-insensitively as substrings.
func EmailSentiment(text string) Sentiment {
	text = strings.ToLower(text)
	var s Sentiment
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			s.Positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			s.Negative++
		}
	}
	switch {
	case s.Positive > s.Negative:
		s.Label = "positive"
	case s.Negative > s.Positive:
		s.Label = "negative"
	default:
		s.Label = "neutral"
	}
	return s
}

// lastEmail returns the newest email among activities, newest first.
func lastEmail(activities []*domain.Activity) *domain.Activity {
	for _, a := range activities {
		if a.Type == domain.ActivityEmail {
			return a
		}
	}
	return nil
}
