package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
)

type demoDeal struct {
	title   string
	value   int64
	path    []domain.Stage
	company int
	contact int
	closeIn int
}

var demoCompanies = []domain.Company{
	{Name: "Northwind Traders", Industry: "Retail", Website: "https://northwind.example"},
	{Name: "Globex Corporation", Industry: "Manufacturing", Website: "https://globex.example"},
}

var demoContacts = []domain.Contact{
	{FirstName: "Nancy", LastName: "Davolio", Email: "nancy@northwind.example", JobTitle: "Buyer", LeadSource: "referral", LifecycleStage: "qualified"},
	{FirstName: "Hank", LastName: "Scorpio", Email: "hank@globex.example", Phone: "555-0100", JobTitle: "CEO", LeadSource: "event", LifecycleStage: "customer"},
	{FirstName: "Andrew", LastName: "Fuller", Email: "andrew@northwind.example", LeadSource: "website", LifecycleStage: "lead"},
}

var demoDeals = []demoDeal{
	{title: "Northwind POS rollout", value: 48000, company: 0, contact: 0, closeIn: 21,
		path: []domain.Stage{domain.StageProspecting, domain.StageQualification, domain.StageProposal}},
	{title: "Globex plant telemetry", value: 120000, company: 1, contact: 1, closeIn: 10,
		path: []domain.Stage{domain.StageQualification, domain.StageProposal, domain.StageNegotiation}},
	{title: "Globex support renewal", value: 25000, company: 1, contact: 1,
		path: []domain.Stage{domain.StageNegotiation, domain.StageClosedWon}},
	{title: "Northwind loyalty pilot", value: 9000, company: 0, contact: 2, closeIn: 45,
		path: []domain.Stage{domain.StageProspecting}},
	{title: "Northwind analytics add-on", value: 15000, company: 0, contact: 2,
		path: []domain.Stage{domain.StageQualification, domain.StageClosedLost}},
}

var demoMarket = []domain.MarketData{
	{DataType: domain.MarketTrend, Title: "Retailers consolidating point-of-sale vendors", Industry: "Retail", Region: "North America", Source: "Industry survey"},
	{DataType: domain.MarketTrend, Title: "Plant telemetry budgets up year over year", Industry: "Manufacturing", Source: "Analyst note"},
	{DataType: domain.MarketCompetitor, Title: "Initech discounting loyalty platform", Industry: "Retail", Source: "Field report"},
	{DataType: domain.MarketNews, Title: "Northwind announces new regional stores", Industry: "Retail", URL: "https://northwind.example/news"},
}

// Demo fills an empty database with a small sample pipeline. Deals are
// walked through their stages by the engine so history and activity notes
// look like real use. A database that already has deals is left alone.
func Demo(ctx context.Context, s *store.Store, e *pipeline.Engine) error {
	_, total, err := s.Deals.List(ctx, domain.DealFilter{Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	owner, err := s.Users.GetByEmail(ctx, "sales@example.com")
	if err != nil {
		return fmt.Errorf("demo owner: %w", err)
	}

	companyIDs := make([]int64, len(demoCompanies))
	for i := range demoCompanies {
		c := demoCompanies[i]
		created, err := s.Companies.Create(ctx, &c)
		if err != nil {
			return err
		}
		companyIDs[i] = created.ID
	}

	contactIDs := make([]int64, len(demoContacts))
	for i := range demoContacts {
		c := demoContacts[i]
		c.CompanyID = &companyIDs[min(i, len(companyIDs)-1)]
		c.CreatedBy = &owner.ID
		created, err := s.Contacts.Create(ctx, &c)
		if err != nil {
			return err
		}
		contactIDs[i] = created.ID
	}

	today := domain.NewDate(s.Now())
	for _, dd := range demoDeals {
		in := domain.DealInput{
			Title:      dd.title,
			Value:      decimal.NewFromInt(dd.value),
			Stage:      dd.path[0],
			CompanyID:  &companyIDs[dd.company],
			ContactID:  &contactIDs[dd.contact],
			AssignedTo: &owner.ID,
		}
		if dd.closeIn > 0 {
			expected := domain.NewDate(today.AddDate(0, 0, dd.closeIn))
			in.ExpectedCloseDate = &expected
		}
		d, err := e.Create(ctx, in, &owner.ID)
		if err != nil {
			return fmt.Errorf("create %q: %w", dd.title, err)
		}
		for _, stage := range dd.path[1:] {
			if _, err := e.SetStage(ctx, d.ID, stage, &owner.ID); err != nil {
				return fmt.Errorf("move %q to %s: %w", dd.title, stage, err)
			}
		}
	}

	due := domain.NewDate(today.AddDate(0, 0, 2))
	if _, err := s.Tasks.Create(ctx, &domain.Task{
		Title:            "Send revised proposal to Northwind",
		Priority:         domain.PriorityHigh,
		Status:           domain.TaskPending,
		DueDate:          &due,
		AssignedTo:       owner.ID,
		CreatedBy:        owner.ID,
		RelatedContactID: &contactIDs[0],
	}); err != nil {
		return err
	}

	for i := range demoMarket {
		m := demoMarket[i]
		if _, err := s.Market.Create(ctx, &m); err != nil {
			return err
		}
	}

	completed := s.Now()
	_, err = s.Activities.Create(ctx, &domain.Activity{
		Type:        domain.ActivityCall,
		Subject:     "Discovery call with Hank",
		Outcome:     "Interested in a multi-site rollout",
		ContactID:   &contactIDs[1],
		UserID:      &owner.ID,
		CompletedAt: &completed,
	})
	return err
}
