package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/domain"
)

// Agent names.
const (
	Forecast       = "forecast"
	Insight        = "insight"
	Recommendation = "recommendation"
	DailyBriefing  = "daily_briefing"
)

var (
	// ErrUnknownAgent is returned for an agent name that is not registered.
	ErrUnknownAgent = errors.New("agent: unknown agent")
	// ErrMissingSubject is returned when an agent needs a deal or user that
	// the request did not name.
	ErrMissingSubject = errors.New("agent: missing subject")
)

const systemPreamble = "You are a sales operations analyst for a B2B CRM. " +
	"Answer concisely in plain text using only the data provided."

type definition struct {
	system string
	build  func(ctx context.Context, r *Runner, req Request) (string, error)
	// subject picks the run's subject id from the request.
	subject func(req Request) *int64
}

var registry = map[string]definition{
	Forecast: {
		system: systemPreamble + " Produce a revenue forecast and call out the deals most likely to slip.",
		build:  buildForecast,
	},
	Insight: {
		system: systemPreamble + " Summarise pipeline health and suggest where the team should focus.",
		build:  buildInsight,
	},
	Recommendation: {
		system:  systemPreamble + " Recommend the next concrete steps to move this deal forward.",
		build:   buildRecommendation,
		subject: func(req Request) *int64 { return req.DealID },
	},
	DailyBriefing: {
		system:  systemPreamble + " Write a short morning briefing for this salesperson.",
		build:   buildDailyBriefing,
		subject: func(req Request) *int64 { return req.UserID },
	},
}

// Names lists the registered agents in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func buildForecast(ctx context.Context, r *Runner, _ Request) (string, error) {
	f, err := r.analytics.Forecast(ctx, analytics.DefaultForecastDays)
	if err != nil {
		return "", err
	}
	risky, err := r.analytics.AtRisk(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Forecast window: %d days, ending %s.\n", f.ForecastPeriodDays, f.ForecastEndDate)
	fmt.Fprintf(&b, "Probability-weighted revenue: $%.2f from %d deals.\n", f.ForecastedRevenue, f.ForecastedDealsCount)
	for _, d := range f.Deals {
		fmt.Fprintf(&b, "- #%d %q: $%.2f at %d%% (%s), closes %s\n",
			d.DealID, d.Title, d.Value, d.Probability, d.Stage, d.ExpectedCloseDate)
	}
	writeAtRisk(&b, risky)
	return b.String(), nil
}

func buildInsight(ctx context.Context, r *Runner, _ Request) (string, error) {
	h, err := r.analytics.Health(ctx)
	if err != nil {
		return "", err
	}
	w, err := r.analytics.WinRate(ctx)
	if err != nil {
		return "", err
	}
	sales, err := r.analytics.SalesMetrics(ctx, nil, nil)
	if err != nil {
		return "", err
	}
	m, err := r.analytics.MarketInsights(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total sales revenue: $%.2f across %d won deals (average $%.2f).\n",
		sales.TotalRevenue, sales.DealCount, sales.AverageDealValue)
	fmt.Fprintf(&b, "Win rate: %.1f%% (%d won, %d lost).\n", w.WinRate, w.WonDeals, w.LostDeals)
	fmt.Fprintf(&b, "Open pipeline: $%.2f, weighted $%.2f. Health score %d/100.\n",
		h.TotalPipelineValue, h.WeightedPipelineValue, h.HealthScore)

	b.WriteString("Deals per stage:\n")
	for _, s := range domain.Stages() {
		fmt.Fprintf(&b, "- %s: %d\n", s, h.StageCounts[string(s)])
	}
	for _, bn := range h.Bottlenecks {
		fmt.Fprintf(&b, "Bottleneck %s: %.1f%% conversion, %d deals stuck.\n", bn.Stage, bn.ConversionRate, bn.DealsStuck)
	}
	writeMarket(&b, m)
	return b.String(), nil
}

func writeMarket(b *strings.Builder, m analytics.MarketInsights) {
	if len(m.Trends) > 0 {
		fmt.Fprintf(b, "Market trends (%d):\n", len(m.Trends))
		for _, t := range m.Trends {
			fmt.Fprintf(b, "- %s\n", t.Title)
		}
	}
	if m.Competition.Count > 0 {
		industries := make([]string, 0, len(m.Competition.Industries))
		for industry := range m.Competition.Industries {
			industries = append(industries, industry)
		}
		sort.Strings(industries)
		fmt.Fprintf(b, "Competitor activity: %d entries.\n", m.Competition.Count)
		for _, industry := range industries {
			fmt.Fprintf(b, "- %s: %d\n", industry, m.Competition.Industries[industry])
		}
	}
	for _, o := range m.Opportunities {
		fmt.Fprintf(b, "Opportunity: %s.\n", o)
	}
}

func buildRecommendation(ctx context.Context, r *Runner, req Request) (string, error) {
	if req.DealID == nil {
		return "", fmt.Errorf("%w: recommendation needs a deal", ErrMissingSubject)
	}
	d, err := r.store.Deals.Get(ctx, *req.DealID)
	if err != nil {
		return "", fmt.Errorf("get deal %d: %w", *req.DealID, err)
	}
	v, err := r.analytics.Velocity(ctx, d.ID)
	if err != nil {
		return "", err
	}
	recent, _, err := r.store.Activities.List(ctx, domain.ActivityFilter{DealID: &d.ID, Limit: 5})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deal #%d %q: $%s %s, stage %s at %d%%.\n",
		d.ID, d.Title, d.Value.StringFixed(2), d.Currency, d.Stage, d.Probability)
	if d.ExpectedCloseDate != nil {
		fmt.Fprintf(&b, "Expected close: %s.\n", d.ExpectedCloseDate)
	}
	fmt.Fprintf(&b, "Open for %d days, %d in the current stage. Predicted close likelihood %.0f%%.\n",
		v.TotalDaysOpen, v.DaysInCurrentStage, PredictClose(d))
	fmt.Fprintf(&b, "Stage strategy: %s.\n", StageStrategy(d.Stage))

	if len(recent) > 0 {
		b.WriteString("Recent activity:\n")
		for _, a := range recent {
			fmt.Fprintf(&b, "- %s %s: %s\n", a.CreatedAt.Format("2006-01-02"), a.Type, a.Subject)
		}
	}

	if d.ContactID != nil {
		if err := r.writeContact(ctx, &b, *d.ContactID); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (r *Runner) writeContact(ctx context.Context, b *strings.Builder, contactID int64) error {
	c, err := r.store.Contacts.Get(ctx, contactID)
	if err != nil {
		return fmt.Errorf("get contact %d: %w", contactID, err)
	}
	var company *domain.Company
	if c.CompanyID != nil {
		if company, err = r.store.Companies.Get(ctx, *c.CompanyID); err != nil {
			return fmt.Errorf("get company %d: %w", *c.CompanyID, err)
		}
	}
	activities, _, err := r.store.Activities.List(ctx, domain.ActivityFilter{ContactID: &c.ID, Limit: 10})
	if err != nil {
		return err
	}
	deals, _, err := r.store.Deals.List(ctx, domain.DealFilter{ContactID: &c.ID})
	if err != nil {
		return err
	}

	fmt.Fprintf(b, "Contact: %s", c.FullName())
	if c.JobTitle != "" {
		fmt.Fprintf(b, ", %s", c.JobTitle)
	}
	if company != nil {
		fmt.Fprintf(b, " at %s", company.Name)
	}
	fmt.Fprintf(b, " (lead score %d).\n", c.LeadScore)
	fmt.Fprintf(b, "Next best action: %s.\n", NextBestAction(activities, r.store.Now()))
	if e := lastEmail(activities); e != nil {
		fmt.Fprintf(b, "Last email sentiment: %s.\n", EmailSentiment(e.Subject+" "+e.Description).Label)
	}
	for _, s := range ConversationStarters(c, company) {
		fmt.Fprintf(b, "- Starter: %s\n", s)
	}
	for _, s := range UpsellSuggestions(deals, company) {
		fmt.Fprintf(b, "- Upsell: %s\n", s)
	}
	return nil
}

func buildDailyBriefing(ctx context.Context, r *Runner, req Request) (string, error) {
	if req.UserID == nil {
		return "", fmt.Errorf("%w: daily briefing needs a user", ErrMissingSubject)
	}
	u, err := r.store.Users.Get(ctx, *req.UserID)
	if err != nil {
		return "", fmt.Errorf("get user %d: %w", *req.UserID, err)
	}
	tasks, _, err := r.store.Tasks.List(ctx, domain.TaskFilter{AssignedTo: &u.ID})
	if err != nil {
		return "", err
	}
	risky, err := r.analytics.AtRisk(ctx)
	if err != nil {
		return "", err
	}
	contacts, _, err := r.store.Contacts.List(ctx, domain.ContactFilter{})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Briefing for %s (%s) on %s.\n", u.FullName(), u.Email, r.store.Now().Format("2006-01-02"))

	b.WriteString("Open tasks:\n")
	open := 0
	for _, t := range tasks {
		if !t.IsOpen() {
			continue
		}
		open++
		due := "no due date"
		if t.DueDate != nil {
			due = "due " + t.DueDate.String()
		}
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", t.Priority, t.Title, due)
	}
	if open == 0 {
		b.WriteString("- none\n")
	}

	mine := make([]analytics.AtRiskDeal, 0, len(risky))
	for _, d := range risky {
		if d.AssignedTo != nil && *d.AssignedTo == u.ID {
			mine = append(mine, d)
		}
	}
	writeAtRisk(&b, mine)

	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].LeadScore > contacts[j].LeadScore })
	if len(contacts) > 5 {
		contacts = contacts[:5]
	}
	if len(contacts) > 0 {
		b.WriteString("Top contacts by lead score:\n")
		for _, c := range contacts {
			fmt.Fprintf(&b, "- %s: %d\n", c.FullName(), c.LeadScore)
		}
	}
	return b.String(), nil
}

func writeAtRisk(b *strings.Builder, deals []analytics.AtRiskDeal) {
	if len(deals) == 0 {
		b.WriteString("No deals at risk.\n")
		return
	}
	b.WriteString("Deals at risk:\n")
	for _, d := range deals {
		fmt.Fprintf(b, "- #%d %q (%s, $%.2f): risk %d, %s\n",
			d.DealID, d.Title, d.Stage, d.Value, d.RiskScore, strings.Join(d.RiskFactors, "; "))
	}
}
