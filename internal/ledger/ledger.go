// Package ledger implements the subscription ledger: shared subscriptions,
// their even cost split, and per-member payment records.
//
// A Ledger owns the in-memory state and its storage.Store. Every operation
// runs under one mutex, and every mutation saves the whole state before it
// becomes visible. If the save fails the mutation is discarded.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/subsplit/internal/calculator"
	"github.com/mmynk/subsplit/internal/models"
	"github.com/mmynk/subsplit/internal/storage"
)

var (
	// ErrNotFound means the subscription or payment record does not exist
	// (or belongs to another group).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the arguments were rejected before any change was made.
	ErrInvalidInput = errors.New("invalid input")
)

// Ledger is the subscription ledger. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	store  storage.Store
	state  *models.Ledger
	now    func() time.Time
	newKey func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source (used for created_at, next_payment and last_payment).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithKeyGenerator overrides how subscription keys are generated.
func WithKeyGenerator(newKey func() string) Option {
	return func(l *Ledger) { l.newKey = newKey }
}

// Open loads the ledger from store.
func Open(ctx context.Context, store storage.Store, opts ...Option) (*Ledger, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	l := &Ledger{
		store:  store,
		state:  state,
		now:    time.Now,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}

	slog.Info("Ledger loaded",
		"subscriptions", len(state.Subscriptions),
		"payments", len(state.Payments),
	)
	return l, nil
}

// commit persists next and makes it the current state.
// Callers must hold l.mu.
func (l *Ledger) commit(ctx context.Context, next *models.Ledger) error {
	if err := l.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	l.state = next
	return nil
}

// CreateSubscription adds a subscription to a group, splits its cost evenly and
// creates one unpaid payment record per member.
//
// Members are trimmed, blanks dropped and duplicates removed keeping the first
// occurrence. The total must be positive and at least one member must remain.
func (l *Ledger) CreateSubscription(ctx context.Context, groupID, name string, totalCost decimal.Decimal, members []string) (*models.Subscription, error) {
	groupID = strings.TrimSpace(groupID)
	name = strings.TrimSpace(name)
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: subscription name is required", ErrInvalidInput)
	}

	members = NormalizeMembers(members)
	share, err := calculator.EvenSplit(totalCost, len(members))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	sub := &models.Subscription{
		Key:           l.newKey(),
		Name:          name,
		GroupID:       groupID,
		TotalCost:     totalCost,
		Members:       members,
		CostPerPerson: share,
		CreatedAt:     now,
		NextPayment:   now.Add(models.BillingPeriod),
	}
	if _, exists := l.state.Subscriptions[sub.Key]; exists {
		return nil, fmt.Errorf("subscription key collision: %s", sub.Key)
	}

	next := l.state.Clone()
	next.Subscriptions[sub.Key] = sub
	for _, member := range members {
		next.Payments[models.PaymentKey(sub.Key, member)] = &models.PaymentRecord{}
	}

	if err := l.commit(ctx, next); err != nil {
		return nil, err
	}
	return sub.Clone(), nil
}

// ListSubscriptions returns every subscription of the group, oldest first.
func (l *Ledger) ListSubscriptions(groupID string) []*models.Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.groupSubscriptions(groupID)
}

// groupSubscriptions returns clones of the group's subscriptions ordered by
// creation time, then key. Callers must hold l.mu.
func (l *Ledger) groupSubscriptions(groupID string) []*models.Subscription {
	var subs []*models.Subscription
	for _, sub := range l.state.Subscriptions {
		if sub.GroupID == groupID {
			subs = append(subs, sub.Clone())
		}
	}
	sortSubscriptions(subs)
	return subs
}

func sortSubscriptions(subs []*models.Subscription) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].Key < subs[j].Key
	})
}

// GetSubscription returns the subscription with the given key.
func (l *Ledger) GetSubscription(key string) (*models.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.state.Subscriptions[key]
	if !ok {
		return nil, fmt.Errorf("subscription %s: %w", key, ErrNotFound)
	}
	return sub.Clone(), nil
}

// FindSubscription returns the group's subscription whose name matches
// case-insensitively. If several match, the oldest wins.
func (l *Ledger) FindSubscription(groupID, name string) (*models.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, sub := range l.groupSubscriptions(groupID) {
		if strings.EqualFold(sub.Name, name) {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("subscription %q: %w", name, ErrNotFound)
}

// Due is one member's share of one subscription.
type Due struct {
	SubscriptionKey string
	Subscription    string
	Amount          decimal.Decimal
	Paid            bool
	LastPayment     *time.Time
	NextPayment     time.Time
}

// GetMemberDues lists the member's share of every group subscription they belong to.
func (l *Ledger) GetMemberDues(groupID, memberID string) []Due {
	l.mu.Lock()
	defer l.mu.Unlock()

	var dues []Due
	for _, sub := range l.groupSubscriptions(groupID) {
		if !sub.HasMember(memberID) {
			continue
		}
		due := Due{
			SubscriptionKey: sub.Key,
			Subscription:    sub.Name,
			Amount:          sub.CostPerPerson,
			NextPayment:     sub.NextPayment,
		}
		if p, ok := l.state.Payments[models.PaymentKey(sub.Key, memberID)]; ok {
			p = p.Clone()
			due.Paid = p.Paid
			due.LastPayment = p.LastPayment
		}
		dues = append(dues, due)
	}
	return dues
}

// MarkPayment sets a member's paid flag for a subscription. Marking as paid
// also stamps the current time as the last payment.
// It returns ErrNotFound, and changes nothing, if no payment record exists.
func (l *Ledger) MarkPayment(ctx context.Context, subscriptionKey, memberID string, paid bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	paymentKey := models.PaymentKey(subscriptionKey, memberID)
	if _, ok := l.state.Payments[paymentKey]; !ok {
		return fmt.Errorf("payment record %s/%s: %w", subscriptionKey, memberID, ErrNotFound)
	}

	next := l.state.Clone()
	record := next.Payments[paymentKey]
	record.Paid = paid
	if paid {
		now := l.now()
		record.LastPayment = &now
	}

	return l.commit(ctx, next)
}

// DeleteSubscription removes a subscription and all of its payment records.
// It returns ErrNotFound, and changes nothing, if the subscription does not
// exist or belongs to a different group.
func (l *Ledger) DeleteSubscription(ctx context.Context, subscriptionKey, groupID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.state.Subscriptions[subscriptionKey]
	if !ok || sub.GroupID != groupID {
		return fmt.Errorf("subscription %s in group %s: %w", subscriptionKey, groupID, ErrNotFound)
	}

	next := l.state.Clone()
	for _, member := range sub.Members {
		delete(next.Payments, models.PaymentKey(subscriptionKey, member))
	}
	delete(next.Subscriptions, subscriptionKey)

	return l.commit(ctx, next)
}

// Summarize reports payment progress for every subscription of the group.
func (l *Ledger) Summarize(groupID string) calculator.GroupSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := l.groupSubscriptions(groupID)
	input := make([]calculator.SubscriptionForSummary, len(subs))
	for i, sub := range subs {
		input[i] = calculator.SubscriptionForSummary{
			Key:           sub.Key,
			Name:          sub.Name,
			TotalCost:     sub.TotalCost,
			CostPerPerson: sub.CostPerPerson,
			Members:       sub.Members,
			NextPayment:   sub.NextPayment,
		}
	}

	return calculator.SummarizeGroup(input, func(key, member string) bool {
		p, ok := l.state.Payments[models.PaymentKey(key, member)]
		return ok && p.Paid
	})
}

// Dump returns every subscription across all groups, oldest first.
func (l *Ledger) Dump() []*models.Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := make([]*models.Subscription, 0, len(l.state.Subscriptions))
	for _, sub := range l.state.Subscriptions {
		subs = append(subs, sub.Clone())
	}
	sortSubscriptions(subs)
	return subs
}

// Stats counts the records currently held.
type Stats struct {
	Subscriptions int
	Payments      int
	Unpaid        int
}

// Stats returns record counts.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{
		Subscriptions: len(l.state.Subscriptions),
		Payments:      len(l.state.Payments),
	}
	for _, p := range l.state.Payments {
		if !p.Paid {
			stats.Unpaid++
		}
	}
	return stats
}

// NormalizeMembers trims member identifiers, drops blanks and removes
// duplicates while preserving the order of first occurrence.
func NormalizeMembers(members []string) []string {
	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
