// Package pipeline moves deals through the sales stages. Every mutation
// commits the deal row, its history entry and any activity note in one
// transaction.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/events"
	"github.com/crosscrm/crm/internal/metrics"
	"github.com/crosscrm/crm/internal/store"
)

// ErrInvalidStage is returned for a stage outside the pipeline.
var ErrInvalidStage = errors.New("invalid stage")

// Engine applies stage transitions and keeps the deal history.
type Engine struct {
	store   *store.Store
	events  events.Publisher
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.events = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine over s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		events: events.Nop{},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get returns a deal by ID.
func (e *Engine) Get(ctx context.Context, id int64) (*domain.Deal, error) {
	d, err := e.store.Deals.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deal %d: %w", id, err)
	}
	return d, nil
}

// List returns deals matching f and the total match count.
func (e *Engine) List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, int, error) {
	return e.store.Deals.List(ctx, f)
}

// History returns a deal's audit trail oldest first. History of a deleted
// deal is still returned.
func (e *Engine) History(ctx context.Context, id int64) ([]*domain.DealHistory, error) {
	rows, err := e.store.History.ListForDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if _, err := e.store.Deals.Get(ctx, id); err != nil {
			return nil, fmt.Errorf("get deal %d: %w", id, err)
		}
	}
	return rows, nil
}

// Create inserts a deal. The stage defaults to prospecting and a zero
// probability is derived from the stage. When the deal has no assignee it is
// assigned to actor.
func (e *Engine) Create(ctx context.Context, in domain.DealInput, actor *int64) (*domain.Deal, error) {
	d := &domain.Deal{
		Title:             in.Title,
		Description:       in.Description,
		Value:             in.Value,
		Currency:          in.Currency,
		Stage:             in.Stage,
		Probability:       in.Probability,
		ExpectedCloseDate: in.ExpectedCloseDate,
		ContactID:         in.ContactID,
		CompanyID:         in.CompanyID,
		AssignedTo:        in.AssignedTo,
	}
	if d.Stage == "" {
		d.Stage = domain.StageProspecting
	}
	if !d.Stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, d.Stage)
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if d.Probability == 0 {
		d.Probability = d.Stage.Probability()
	}
	if d.AssignedTo == nil && actor != nil {
		d.AssignedTo = copyRef(actor)
	}
	if d.Stage.IsClosed() {
		today := domain.NewDate(e.store.Now())
		d.ActualCloseDate = &today
	}

	var created *domain.Deal
	err := e.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		created, err = tx.Deals.Create(ctx, d)
		if err != nil {
			return err
		}

		stage, value, prob := created.Stage, created.Value, created.Probability
		_, err = tx.History.Append(ctx, &domain.DealHistory{
			DealID:         created.ID,
			NewStage:       &stage,
			NewValue:       &value,
			NewProbability: &prob,
			ChangedBy:      copyRef(actor),
			ChangeReason:   "Deal created",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.DealMutation("create")
	e.publish(ctx, events.DealCreated, created, actor, "")
	e.log.Info().Int64("deal_id", created.ID).Str("stage", string(created.Stage)).Msg("deal created")
	return created, nil
}

// Update applies a partial patch. A stage change without an explicit
// probability re-derives the probability from the stage. One history row is
// appended when stage, value or probability changed, and a stage change also
// logs an activity note. A patch that changes nothing writes nothing.
func (e *Engine) Update(ctx context.Context, id int64, p domain.DealPatch, actor *int64) (*domain.Deal, error) {
	if p.Stage != nil && !p.Stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, *p.Stage)
	}

	var (
		updated  *domain.Deal
		oldStage domain.Stage
		moved    bool
		wrote    bool
	)
	err := e.store.InTx(ctx, func(tx *store.Store) error {
		cur, err := tx.Deals.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get deal %d: %w", id, err)
		}
		next := *cur
		h := &domain.DealHistory{DealID: id, ChangedBy: copyRef(actor)}
		tracked := false

		if p.Value != nil && !p.Value.Equal(cur.Value) {
			h.OldValue, h.NewValue = copyRef(&cur.Value), copyRef(p.Value)
			next.Value = *p.Value
			tracked = true
		}

		if p.Stage != nil && *p.Stage != cur.Stage {
			h.OldStage, h.NewStage = copyRef(&cur.Stage), copyRef(p.Stage)
			next.Stage = *p.Stage
			if p.Probability == nil {
				next.Probability = next.Stage.Probability()
				h.OldProbability, h.NewProbability = copyRef(&cur.Probability), copyRef(&next.Probability)
			}
			e.syncCloseDate(&next)
			oldStage, moved, tracked = cur.Stage, true, true
		}

		if p.Probability != nil {
			next.Probability = *p.Probability
			if *p.Probability != cur.Probability && h.OldProbability == nil {
				h.OldProbability, h.NewProbability = copyRef(&cur.Probability), copyRef(p.Probability)
				tracked = true
			}
		}

		dirty := applyFields(&next, p)
		if !tracked && !dirty {
			updated = cur
			return nil
		}

		if updated, err = tx.Deals.Update(ctx, &next); err != nil {
			return err
		}
		wrote = true
		if !tracked {
			return nil
		}
		if _, err := tx.History.Append(ctx, h); err != nil {
			return err
		}
		if moved {
			return e.logTransition(ctx, tx, cur, next.Stage, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !wrote {
		return updated, nil
	}

	e.metrics.DealMutation("update")
	if moved {
		e.metrics.DealTransition(string(oldStage), string(updated.Stage))
		e.publish(ctx, events.DealStageChanged, updated, actor, oldStage)
	} else {
		e.publish(ctx, events.DealUpdated, updated, actor, "")
	}
	return updated, nil
}

// SetStage moves a deal to stage and resets the probability from the stage
// table. Moving a deal to the stage it is already in writes nothing.
func (e *Engine) SetStage(ctx context.Context, id int64, stage domain.Stage, actor *int64) (*domain.Deal, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}

	var (
		updated  *domain.Deal
		oldStage domain.Stage
	)
	err := e.store.InTx(ctx, func(tx *store.Store) error {
		cur, err := tx.Deals.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get deal %d: %w", id, err)
		}
		if cur.Stage == stage {
			updated = cur
			return nil
		}

		next := *cur
		next.Stage = stage
		next.Probability = stage.Probability()
		e.syncCloseDate(&next)

		if updated, err = tx.Deals.Update(ctx, &next); err != nil {
			return err
		}
		if _, err := tx.History.Append(ctx, &domain.DealHistory{
			DealID:         id,
			OldStage:       copyRef(&cur.Stage),
			NewStage:       copyRef(&stage),
			OldProbability: copyRef(&cur.Probability),
			NewProbability: copyRef(&next.Probability),
			ChangedBy:      copyRef(actor),
		}); err != nil {
			return err
		}
		oldStage = cur.Stage
		return e.logTransition(ctx, tx, cur, stage, actor)
	})
	if err != nil {
		return nil, err
	}
	if oldStage == "" {
		return updated, nil
	}

	e.metrics.DealMutation("update")
	e.metrics.DealTransition(string(oldStage), string(stage))
	e.publish(ctx, events.DealStageChanged, updated, actor, oldStage)
	return updated, nil
}

// Close marks a deal won or lost. Unlike SetStage it always records history
// and an activity note, even when the deal is already in the target stage.
func (e *Engine) Close(ctx context.Context, id int64, in domain.CloseInput, actor *int64) (*domain.Deal, error) {
	stage, prob, outcome := domain.StageClosedLost, 0, "LOST"
	if in.Won {
		stage, prob, outcome = domain.StageClosedWon, 100, "WON"
	}
	closeDate := domain.NewDate(e.store.Now())
	if in.ActualCloseDate != nil && !in.ActualCloseDate.IsZero() {
		closeDate = *in.ActualCloseDate
	}
	reason := "Deal closed as " + outcome

	var (
		updated  *domain.Deal
		oldStage domain.Stage
	)
	err := e.store.InTx(ctx, func(tx *store.Store) error {
		cur, err := tx.Deals.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get deal %d: %w", id, err)
		}
		oldStage = cur.Stage

		if _, err := tx.History.Append(ctx, &domain.DealHistory{
			DealID:         id,
			OldStage:       copyRef(&cur.Stage),
			NewStage:       copyRef(&stage),
			OldProbability: copyRef(&cur.Probability),
			NewProbability: copyRef(&prob),
			ChangedBy:      copyRef(actor),
			ChangeReason:   reason,
		}); err != nil {
			return err
		}

		completed := e.store.Now()
		if _, err := tx.Activities.Create(ctx, &domain.Activity{
			Type:        domain.ActivityNote,
			Subject:     reason,
			Description: "Deal closed with value $" + cur.Value.StringFixed(2),
			DealID:      copyRef(&id),
			UserID:      attribute(actor, cur.AssignedTo),
			CompletedAt: &completed,
		}); err != nil {
			return err
		}

		next := *cur
		next.Stage = stage
		next.Probability = prob
		next.ActualCloseDate = &closeDate
		updated, err = tx.Deals.Update(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.DealMutation("close")
	e.metrics.DealTransition(string(oldStage), string(stage))
	e.publish(ctx, events.DealClosed, updated, actor, oldStage)
	e.log.Info().Int64("deal_id", id).Str("outcome", outcome).Msg("deal closed")
	return updated, nil
}

// Delete removes a deal and reports whether it existed. History rows are
// left in place.
func (e *Engine) Delete(ctx context.Context, id int64) (bool, error) {
	if err := e.store.Deals.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	e.metrics.DealMutation("delete")
	e.publish(ctx, events.DealDeleted, &domain.Deal{ID: id}, nil, "")
	return true, nil
}

// logTransition writes the activity note that accompanies a stage change.
func (e *Engine) logTransition(ctx context.Context, tx *store.Store, cur *domain.Deal, to domain.Stage, actor *int64) error {
	completed := e.store.Now()
	_, err := tx.Activities.Create(ctx, &domain.Activity{
		Type:        domain.ActivityNote,
		Subject:     fmt.Sprintf("Deal moved from %s to %s", cur.Stage, to),
		Description: "Deal stage changed automatically",
		DealID:      copyRef(&cur.ID),
		UserID:      attribute(actor, cur.AssignedTo),
		CompletedAt: &completed,
	})
	return err
}

// syncCloseDate keeps actual_close_date set exactly when the stage is
// terminal.
func (e *Engine) syncCloseDate(d *domain.Deal) {
	if !d.Stage.IsClosed() {
		d.ActualCloseDate = nil
		return
	}
	if d.ActualCloseDate == nil {
		today := domain.NewDate(e.store.Now())
		d.ActualCloseDate = &today
	}
}

func (e *Engine) publish(ctx context.Context, kind string, d *domain.Deal, actor *int64, from domain.Stage) {
	ev := events.DealEvent{
		EventType:  kind,
		DealID:     d.ID,
		ActorID:    copyRef(actor),
		OldStage:   string(from),
		NewStage:   string(d.Stage),
		OccurredAt: e.store.Now(),
	}
	if kind != events.DealDeleted {
		ev.Value = d.Value.String()
	}
	e.events.PublishDealEvent(ctx, ev)
}

// attribute picks the acting user, falling back to the assignee.
func attribute(actor, assignee *int64) *int64 {
	if actor != nil {
		return copyRef(actor)
	}
	return copyRef(assignee)
}

func copyRef[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
