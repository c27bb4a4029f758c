package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

// memStore is an in-memory Store whose ClaimShift performs the same
// check-then-set under a lock that the SQL repository performs in a single
// conditional UPDATE.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	shifts map[int64]*domain.Shift
	offers map[int64]*domain.ShiftOffer
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[int64]*domain.User),
		shifts: make(map[int64]*domain.Shift),
		offers: make(map[int64]*domain.ShiftOffer),
	}
}

func (s *memStore) GetOfferByID(_ context.Context, id int64) (*domain.ShiftOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	cp := *offer
	return &cp, nil
}

func (s *memStore) GetShiftByID(_ context.Context, id int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[id]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	cp := *shift
	return &cp, nil
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *memStore) MarkOfferAccepted(_ context.Context, id int64, respondedAt time.Time) error {
	return s.markResponded(id, domain.OfferStatusAccepted, respondedAt)
}

func (s *memStore) MarkOfferDeclined(_ context.Context, id int64, respondedAt time.Time) error {
	return s.markResponded(id, domain.OfferStatusDeclined, respondedAt)
}

func (s *memStore) markResponded(id int64, status domain.OfferStatus, respondedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}
	if offer.Status != domain.OfferStatusPending {
		return domain.ErrAlreadyResolved
	}
	offer.Status = status
	offer.RespondedAt = &respondedAt
	return nil
}

func (s *memStore) MarkOfferExpired(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}
	if offer.Status == domain.OfferStatusPending {
		offer.Status = domain.OfferStatusExpired
	}
	return nil
}

func (s *memStore) ClaimShift(_ context.Context, shiftID int64, personnelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[shiftID]
	if !ok {
		return domain.ErrShiftNotFound
	}
	if shift.Status != domain.ShiftStatusOpen || shift.AssignedPersonnelID != nil {
		return domain.ErrShiftClaimed
	}
	shift.AssignedPersonnelID = &personnelID
	shift.Status = domain.ShiftStatusAssigned
	return nil
}

func (s *memStore) ExpirePendingOffers(_ context.Context, shiftID int64, exceptOfferID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, offer := range s.offers {
		if offer.ShiftID == shiftID && offer.ID != exceptOfferID && offer.Status == domain.OfferStatusPending {
			offer.Status = domain.OfferStatusExpired
			n++
		}
	}
	return n, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []*domain.NotificationMessage
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg *domain.NotificationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) all() []*domain.NotificationMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]*domain.NotificationMessage{}, n.messages...)
}

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	resolver *Resolver
	now      time.Time
}

// newFixture seeds one manager, one open shift and candidates 101..100+n,
// each holding a pending offer (offer id = candidate id) expiring in an hour.
func newFixture(t *testing.T, candidates int) *fixture {
	t.Helper()

	store := newMemStore()
	notifier := &recordingNotifier{}
	rs := New(store, notifier)

	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	rs.now = func() time.Time { return now }

	store.users[1] = &domain.User{ID: 1, FullName: "Dana Whitfield", Email: "dana@venues.example.com", Role: domain.RoleManager, IsActive: true}
	store.shifts[10] = &domain.Shift{ID: 10, VenueName: "The Velvet Room", ManagerID: 1, Status: domain.ShiftStatusOpen}

	for i := 0; i < candidates; i++ {
		id := int64(101 + i)
		store.users[id] = &domain.User{ID: id, FullName: "Guard " + string(rune('A'+i)), Email: "guard@personnel.example.com", Role: domain.RolePersonnel, IsActive: true}
		store.offers[id] = &domain.ShiftOffer{
			ID:          id,
			ShiftID:     10,
			PersonnelID: id,
			Status:      domain.OfferStatusPending,
			ExpiresAt:   now.Add(time.Hour),
		}
	}

	return &fixture{store: store, notifier: notifier, resolver: rs, now: now}
}

func TestResolveResponseDecline(t *testing.T) {
	f := newFixture(t, 1)

	outcome, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionDeclined)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeclined, outcome.Outcome)

	offer := f.store.offers[101]
	assert.Equal(t, domain.OfferStatusDeclined, offer.Status)
	require.NotNil(t, offer.RespondedAt)
	assert.Equal(t, f.now, *offer.RespondedAt)

	// declining has no further side effects
	assert.Equal(t, domain.ShiftStatusOpen, f.store.shifts[10].Status)
	assert.Nil(t, f.store.shifts[10].AssignedPersonnelID)
	assert.Empty(t, f.notifier.all())
}

func TestResolveResponseDeclineIsIdempotent(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionDeclined)
	require.NoError(t, err)
	firstRespondedAt := *f.store.offers[101].RespondedAt

	f.resolver.now = func() time.Time { return f.now.Add(10 * time.Minute) }

	_, err = f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionDeclined)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	assert.Equal(t, firstRespondedAt, *f.store.offers[101].RespondedAt)
}

func TestResolveResponseForbidden(t *testing.T) {
	f := newFixture(t, 2)

	// candidate 102 answers candidate 101's offer
	_, err := f.resolver.ResolveResponse(context.Background(), 101, 102, DecisionAccepted)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.Equal(t, domain.OfferStatusPending, f.store.offers[101].Status)
	assert.Equal(t, domain.ShiftStatusOpen, f.store.shifts[10].Status)
}

func TestResolveResponseOfferNotFound(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.resolver.ResolveResponse(context.Background(), 999, 101, DecisionAccepted)
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)
}

func TestResolveResponseExpiredTakesPrecedence(t *testing.T) {
	f := newFixture(t, 1)
	f.store.offers[101].ExpiresAt = f.now.Add(-time.Minute)

	_, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionAccepted)
	assert.ErrorIs(t, err, domain.ErrOfferExpired)

	// the shift is still unassigned, but the late offer is dead
	assert.Equal(t, domain.OfferStatusExpired, f.store.offers[101].Status)
	assert.Equal(t, domain.ShiftStatusOpen, f.store.shifts[10].Status)
	assert.Nil(t, f.store.shifts[10].AssignedPersonnelID)
}

func TestResolveResponseAcceptWins(t *testing.T) {
	f := newFixture(t, 3)

	// one candidate already declined; their row must stay declined
	_, err := f.resolver.ResolveResponse(context.Background(), 103, 103, DecisionDeclined)
	require.NoError(t, err)

	outcome, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, outcome.Outcome)
	assert.Equal(t, int64(10), outcome.ShiftID)
	assert.Equal(t, "Guard A", outcome.PersonnelName)

	shift := f.store.shifts[10]
	assert.Equal(t, domain.ShiftStatusAssigned, shift.Status)
	require.NotNil(t, shift.AssignedPersonnelID)
	assert.Equal(t, int64(101), *shift.AssignedPersonnelID)

	assert.Equal(t, domain.OfferStatusAccepted, f.store.offers[101].Status)
	assert.Equal(t, domain.OfferStatusExpired, f.store.offers[102].Status)
	assert.Equal(t, domain.OfferStatusDeclined, f.store.offers[103].Status)

	messages := f.notifier.all()
	require.Len(t, messages, 1)
	assert.Equal(t, int64(1), messages[0].RecipientID)
	assert.Equal(t, domain.NotificationKindShiftAssigned, messages[0].Kind)
	assert.Equal(t, "Guard A", messages[0].Payload["personnelName"])
	assert.Equal(t, int64(10), messages[0].Payload["shiftID"])
}

func TestResolveResponseAcceptLosesRace(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionAccepted)
	require.NoError(t, err)

	// candidate 102's offer was cascade-expired, so a late accept reports
	// the offer as already resolved
	_, err = f.resolver.ResolveResponse(context.Background(), 102, 102, DecisionAccepted)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestResolveResponseLostClaimExpiresOffer(t *testing.T) {
	f := newFixture(t, 1)

	// the shift was claimed through some other offer the store does not hold
	other := int64(999)
	f.store.shifts[10].Status = domain.ShiftStatusAssigned
	f.store.shifts[10].AssignedPersonnelID = &other

	_, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionAccepted)
	assert.ErrorIs(t, err, domain.ErrShiftClaimed)
	assert.Equal(t, domain.OfferStatusExpired, f.store.offers[101].Status)
	assert.Equal(t, other, *f.store.shifts[10].AssignedPersonnelID)
}

func TestResolveResponseConcurrentAcceptsSingleWinner(t *testing.T) {
	const candidates = 8
	f := newFixture(t, candidates)

	type result struct {
		offerID int64
		outcome *Outcome
		err     error
	}

	results := make(chan result, candidates)
	var wg sync.WaitGroup
	for i := 0; i < candidates; i++ {
		offerID := int64(101 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.resolver.ResolveResponse(context.Background(), offerID, offerID, DecisionAccepted)
			results <- result{offerID: offerID, outcome: outcome, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var winners, losers int
	var winnerID int64
	for res := range results {
		switch {
		case res.err == nil:
			winners++
			winnerID = res.offerID
			assert.Equal(t, OutcomeAssigned, res.outcome.Outcome)
		case errors.Is(res.err, domain.ErrShiftClaimed) || errors.Is(res.err, domain.ErrAlreadyResolved):
			// a loser either lost the conditional claim or had its offer
			// cascade-expired before it even read it
			losers++
		default:
			t.Fatalf("unexpected error: %v", res.err)
		}
	}

	assert.Equal(t, 1, winners)
	assert.Equal(t, candidates-1, losers)

	shift := f.store.shifts[10]
	assert.Equal(t, domain.ShiftStatusAssigned, shift.Status)
	require.NotNil(t, shift.AssignedPersonnelID)
	assert.Equal(t, winnerID, *shift.AssignedPersonnelID)

	for id, offer := range f.store.offers {
		if id == winnerID {
			assert.Equal(t, domain.OfferStatusAccepted, offer.Status)
		} else {
			assert.Equal(t, domain.OfferStatusExpired, offer.Status, "offer %d", id)
		}
	}
}

func TestResolveResponseNotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, 1)
	f.notifier.err = errors.New("broker unavailable")

	outcome, err := f.resolver.ResolveResponse(context.Background(), 101, 101, DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, outcome.Outcome)
	assert.Equal(t, domain.ShiftStatusAssigned, f.store.shifts[10].Status)
}

func TestResolveResponseUnknownDecision(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.resolver.ResolveResponse(context.Background(), 101, 101, Decision("maybe"))
	require.Error(t, err)
	assert.Equal(t, domain.OfferStatusPending, f.store.offers[101].Status)
}
