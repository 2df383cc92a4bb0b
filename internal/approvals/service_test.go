package approvals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/tripflow/internal/shared"
)

type memoryRepo struct {
	items map[uuid.UUID]*ApprovalRequest
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]*ApprovalRequest{}}
}

func (m *memoryRepo) Create(_ context.Context, a ApprovalRequest) error {
	for _, existing := range m.items {
		if existing.QuotationID == a.QuotationID && existing.Pending() {
			return ErrDuplicatePending
		}
	}
	copied := a
	m.items[a.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*ApprovalRequest, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]ApprovalRequest, int, error) {
	var out []ApprovalRequest
	for _, a := range m.items {
		if filter.QuotationID != nil && a.QuotationID != *filter.QuotationID {
			continue
		}
		if filter.Decision != nil && a.Decision != *filter.Decision {
			continue
		}
		if filter.RequestedBy != nil && a.RequestedBy != *filter.RequestedBy {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Decide(_ context.Context, id uuid.UUID, decision Decision, comment, decidedBy string, decidedAt time.Time) error {
	a, ok := m.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if !a.Pending() {
		return ErrAlreadyDecided
	}
	a.Decision = decision
	a.DecisionComment = comment
	a.DecidedBy = decidedBy
	a.DecidedAt = &decidedAt
	a.UpdatedAt = decidedAt
	return nil
}

func (m *memoryRepo) PendingExists(_ context.Context, quotationID uuid.UUID) (bool, error) {
	for _, a := range m.items {
		if a.QuotationID == quotationID && a.Pending() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) ApprovedExists(_ context.Context, quotationID uuid.UUID, optionCode string) (bool, error) {
	for _, a := range m.items {
		if a.QuotationID == quotationID && a.OptionCode == optionCode && a.Decision == DecisionApproved {
			return true, nil
		}
	}
	return false, nil
}

type stubDiscounts struct {
	discount float64
	err      error
}

func (s stubDiscounts) DiscountFor(context.Context, uuid.UUID, string) (float64, error) {
	return s.discount, s.err
}

var (
	salesperson = shared.Identity{UserID: "sp-1", Name: "Asha", Role: "salesperson"}
	manager     = shared.Identity{UserID: "mgr-1", Name: "Ravi", Role: "sales_manager"}
)

func newTestService(repo Repository, discount float64) *Service {
	svc := NewService(repo, stubDiscounts{discount: discount}, 15, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func validCreate() CreateApprovalRequest {
	return CreateApprovalRequest{
		QuotationID: uuid.New(),
		OptionCode:  "OPT-A",
		Reason:      "repeat customer, matching a competitor quote",
	}
}

func TestCreateCapturesDiscountAtRequestTime(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 22.5)

	a, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.NoError(t, err)
	require.Equal(t, DecisionPending, a.Decision)
	require.InDelta(t, 22.5, a.DiscountPercentage, 1e-9)
	require.Equal(t, salesperson.UserID, a.RequestedBy)
}

func TestCreateRejectsDiscountWithinThreshold(t *testing.T) {
	svc := newTestService(newMemoryRepo(), 12)

	_, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.ErrorIs(t, err, ErrNotRequired)
}

func TestCreateThresholdIsExclusive(t *testing.T) {
	// A discount of exactly the threshold does not need approval.
	svc := newTestService(newMemoryRepo(), 15)

	_, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.ErrorIs(t, err, ErrNotRequired)
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 20)

	req := validCreate()
	_, err := svc.Create(context.Background(), req, salesperson)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, salesperson)
	require.ErrorIs(t, err, ErrDuplicatePending)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestApproveUnblocksSendGate(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 20)

	req := validCreate()
	a, err := svc.Create(context.Background(), req, salesperson)
	require.NoError(t, err)

	pending, err := svc.PendingExists(context.Background(), req.QuotationID)
	require.NoError(t, err)
	require.True(t, pending)

	decided, err := svc.Approve(context.Background(), a.ID, DecideApprovalRequest{Comment: "ok for this account"}, manager)
	require.NoError(t, err)
	require.Equal(t, DecisionApproved, decided.Decision)
	require.Equal(t, manager.UserID, decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)

	pending, err = svc.PendingExists(context.Background(), req.QuotationID)
	require.NoError(t, err)
	require.False(t, pending)

	approved, err := svc.ApprovedExists(context.Background(), req.QuotationID, req.OptionCode)
	require.NoError(t, err)
	require.True(t, approved)
}

func TestRejectRequiresComment(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 20)

	a, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), a.ID, DecideApprovalRequest{}, manager)
	require.ErrorIs(t, err, shared.ErrValidation)

	decided, err := svc.Reject(context.Background(), a.ID, DecideApprovalRequest{Comment: "margin too thin"}, manager)
	require.NoError(t, err)
	require.Equal(t, DecisionRejected, decided.Decision)
}

func TestDecideTwiceFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 20)

	a, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, DecideApprovalRequest{}, manager)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, DecideApprovalRequest{}, manager)
	require.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestCannotDecideOwnRequest(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 20)

	a, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, DecideApprovalRequest{}, salesperson)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListScopesSalespersonToOwnRequests(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 20)

	_, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.NoError(t, err)

	other := shared.Identity{UserID: "sp-2", Name: "Meera", Role: "salesperson"}
	_, err = svc.Create(context.Background(), validCreate(), other)
	require.NoError(t, err)

	mine, total, err := svc.List(context.Background(), ListFilter{}, salesperson)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, salesperson.UserID, mine[0].RequestedBy)

	all, total, err := svc.List(context.Background(), ListFilter{}, manager)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, all, 2)
}

type recordingNotifier struct {
	decided []Decision
}

func (n *recordingNotifier) ApprovalDecided(_ context.Context, a *ApprovalRequest) error {
	n.decided = append(n.decided, a.Decision)
	return nil
}

func TestDecisionNotifiesRequester(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, stubDiscounts{discount: 20}, 15, nil, notifier, nil)

	a, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, DecideApprovalRequest{}, manager)
	require.NoError(t, err)
	require.Equal(t, []Decision{DecisionApproved}, notifier.decided)
}

func TestCreatePropagatesDiscountLookupFailure(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubDiscounts{err: shared.ErrNotFound}, 15, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreate(), salesperson)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
