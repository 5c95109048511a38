package usecase

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/domain/signature"
	"trust_donations/internal/usecase/interfaces"
)

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

func testVerifier() *signature.Verifier {
	return signature.NewVerifier(testKeySecret, testWebhookSecret)
}

// memoryStore mirrors the conditional-write contract of the DynamoDB store:
// Create fails on an existing order or a claimed payment id, Transition only
// applies while the status is in From, and payment ids stay owned by the
// first order that claimed them. writes counts record writes; sweep cursor
// moves are counted apart in checks.
type memoryStore struct {
	mu           sync.Mutex
	nextID       int64
	byOrder      map[string]entities.Donation
	paymentOwner map[string]string
	writes       int
	checks       int
}

var _ interfaces.IDonationRepository = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byOrder:      map[string]entities.Donation{},
		paymentOwner: map[string]string{},
	}
}

func (s *memoryStore) Create(_ context.Context, d entities.Donation) (entities.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byOrder[d.OrderID]; ok {
		return entities.Donation{}, interfaces.ErrDonationExists
	}
	if d.PaymentID != "" {
		if _, ok := s.paymentOwner[d.PaymentID]; ok {
			return entities.Donation{}, interfaces.ErrPaymentIDConflict
		}
		s.paymentOwner[d.PaymentID] = d.OrderID
	}
	s.nextID++
	d.ID = s.nextID
	s.byOrder[d.OrderID] = d
	s.writes++
	return d, nil
}

func (s *memoryStore) GetByOrderID(_ context.Context, orderID string) (entities.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOrder[orderID], nil
}

func (s *memoryStore) GetByPaymentID(_ context.Context, paymentID string) (entities.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.paymentOwner[paymentID]
	if !ok {
		return entities.Donation{}, nil
	}
	return s.byOrder[owner], nil
}

func (s *memoryStore) Transition(_ context.Context, t interfaces.DonationTransition) (entities.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byOrder[t.OrderID]
	if !ok || !slices.Contains(t.From, d.Status) {
		return entities.Donation{}, interfaces.ErrDonationStateConflict
	}
	if t.PaymentID != "" {
		if owner, claimed := s.paymentOwner[t.PaymentID]; claimed && owner != t.OrderID {
			return entities.Donation{}, interfaces.ErrPaymentIDConflict
		}
		s.paymentOwner[t.PaymentID] = t.OrderID
		d.PaymentID = t.PaymentID
	}
	if t.AttemptPaymentID != "" {
		d.AttemptPaymentID = t.AttemptPaymentID
	}
	if t.Signature != "" {
		d.Signature = t.Signature
	}
	if t.Method != "" {
		d.Method = t.Method
	}
	if d.DonorEmail == "" {
		d.DonorEmail = t.DonorEmail
	}
	if d.DonorPhone == "" {
		d.DonorPhone = t.DonorPhone
	}
	d.Status = t.To
	d.UpdatedAt = time.Now().UTC()
	s.byOrder[t.OrderID] = d
	s.writes++
	return d, nil
}

func (s *memoryStore) ListStalePending(_ context.Context, checkedBefore time.Time, limit int) ([]entities.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entities.Donation
	for _, d := range s.byOrder {
		if d.Status == entities.DonationStatusPending && d.CheckedAt().Before(checkedBefore) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedAt().Before(out[j].CheckedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) MarkChecked(_ context.Context, orderID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byOrder[orderID]
	if !ok || d.Status != entities.DonationStatusPending {
		return interfaces.ErrDonationStateConflict
	}
	d.LastCheckedAt = at
	d.SweepAttempts++
	s.byOrder[orderID] = d
	s.checks++
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byOrder)
}

func (s *memoryStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// seed stores a donation as-is, bypassing the create rules.
func (s *memoryStore) seed(d entities.Donation) entities.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = s.nextID
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	d.UpdatedAt = d.CreatedAt
	s.byOrder[d.OrderID] = d
	if d.PaymentID != "" {
		s.paymentOwner[d.PaymentID] = d.OrderID
	}
	return d
}
