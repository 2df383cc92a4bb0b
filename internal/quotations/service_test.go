package quotations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/tripflow/internal/pricing"
	"github.com/tripflow/tripflow/internal/shared"
)

type memoryRepo struct {
	items map[uuid.UUID]*Quotation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]*Quotation{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Create(_ context.Context, q Quotation) error {
	copied := q
	copied.Options = append([]pricing.Option(nil), q.Options...)
	m.items[q.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Quotation, error) {
	q, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *q
	copied.Options = append([]pricing.Option(nil), q.Options...)
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range m.items {
		if filter.CustomerID != nil && q.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.SalespersonID != nil && q.SalespersonID != *filter.SalespersonID {
			continue
		}
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, q Quotation) error {
	stored, ok := m.items[q.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != q.Version {
		return ErrVersionConflict
	}
	q.Version++
	q.Options = append([]pricing.Option(nil), q.Options...)
	m.items[q.ID] = &q
	return nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, expectedVersion int64, status Status, selectedOption string) error {
	stored, ok := m.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	stored.Status = status
	stored.SelectedOptionCode = selectedOption
	stored.Version++
	return nil
}

type stubGate struct {
	pending  bool
	approved bool
	err      error
}

func (s *stubGate) PendingExists(context.Context, uuid.UUID) (bool, error) {
	return s.pending, s.err
}

func (s *stubGate) ApprovedExists(context.Context, uuid.UUID, string) (bool, error) {
	return s.approved, s.err
}

type stubRequests struct {
	customerID string
	err        error
	quoted     []uuid.UUID
}

func (s *stubRequests) CustomerFor(context.Context, uuid.UUID) (string, error) {
	return s.customerID, s.err
}

func (s *stubRequests) MarkQuoted(_ context.Context, id uuid.UUID) error {
	s.quoted = append(s.quoted, id)
	return nil
}

type recordingNotifier struct {
	sent []uuid.UUID
}

func (n *recordingNotifier) QuotationSent(_ context.Context, q *Quotation) error {
	n.sent = append(n.sent, q.ID)
	return nil
}

var (
	salesperson = shared.Identity{UserID: "sp-1", Name: "Asha", Role: "salesperson"}
	customer    = shared.Identity{UserID: "cust-1", Name: "Vikram", Role: "customer"}
)

var frozenNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(repo Repository, gate ApprovalGate) *Service {
	svc := NewService(repo, &stubRequests{customerID: "cust-1"}, gate, pricing.NewCalculator(pricing.DefaultConfig()), nil, nil, nil)
	svc.now = func() time.Time { return frozenNow }
	return svc
}

// optionAt builds an option request whose discount against the standard
// 20% margin lands where the test needs it. With a single 10000 cost line,
// margin 20 prices at standard (0% discount), margin 0 at 16.67%, and
// margin 2 at exactly 15%.
func optionAt(margin float64) OptionRequest {
	return OptionRequest{
		Code:             "STD",
		Name:             "Standard",
		Duration:         "5 days",
		MarginPercentage: margin,
		LineItems: []LineItemRequest{
			{Category: pricing.CategoryAccommodation, Description: "Hotel, 5 nights", Quantity: 1, UnitPrice: 10000},
		},
	}
}

func validCreate(margin float64) CreateQuotationRequest {
	return CreateQuotationRequest{
		RequestID:    uuid.New(),
		Title:        "Kerala backwaters",
		ValidityDays: 7,
		Options:      []OptionRequest{optionAt(margin)},
	}
}

func mustCreate(t *testing.T, svc *Service, margin float64) *Quotation {
	t.Helper()
	q, err := svc.Create(context.Background(), validCreate(margin), salesperson)
	require.NoError(t, err)
	return q
}

func TestCreatePricesOptions(t *testing.T) {
	repo := newMemoryRepo()
	requests := &stubRequests{customerID: "cust-1"}
	svc := NewService(repo, requests, &stubGate{}, pricing.NewCalculator(pricing.DefaultConfig()), nil, nil, nil)
	svc.now = func() time.Time { return frozenNow }

	req := validCreate(20)
	req.Options[0].LineItems = append(req.Options[0].LineItems,
		LineItemRequest{Category: pricing.CategoryTaxes, Description: "GST", IsFixed: true})

	q, err := svc.Create(context.Background(), req, salesperson)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, q.Status)
	require.Equal(t, "cust-1", q.CustomerID)
	require.Equal(t, salesperson.UserID, q.SalespersonID)
	require.Equal(t, int64(1), q.Version)

	opt := q.Options[0]
	// 10000 subtotal, 1800 GST back-computed, 20% margin on 11800.
	require.Equal(t, 1800.0, opt.LineItems[1].Total)
	require.Equal(t, 14160.0, opt.TotalPrice)

	require.Equal(t, []uuid.UUID{req.RequestID}, requests.quoted)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})

	req := validCreate(20)
	req.Options = nil
	_, err := svc.Create(context.Background(), req, salesperson)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateFailsWhenRequestUnknown(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubRequests{err: shared.ErrNotFound}, &stubGate{}, pricing.NewCalculator(pricing.DefaultConfig()), nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreate(20), salesperson)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSendHappyPath(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, &stubRequests{customerID: "cust-1"}, &stubGate{}, pricing.NewCalculator(pricing.DefaultConfig()), nil, notifier, nil)
	svc.now = func() time.Time { return frozenNow }
	q := mustCreate(t, svc, 20)

	sent, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)
	require.Equal(t, "STD", sent.SelectedOptionCode)
	require.Equal(t, q.Version+1, sent.Version)
	require.Equal(t, []uuid.UUID{q.ID}, notifier.sent)
}

func TestSendOnlyFromDraft(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSendBlockedPastValidity(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	svc.now = func() time.Time { return frozenNow.AddDate(0, 0, 8) }
	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.ErrorIs(t, err, ErrExpired)
}

func TestSendBlockedWhileApprovalPending(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{pending: true})
	q := mustCreate(t, svc, 20)

	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.ErrorIs(t, err, ErrApprovalPending)
}

func TestSendDeepDiscountNeedsApproval(t *testing.T) {
	gate := &stubGate{}
	svc := newTestService(newMemoryRepo(), gate)
	q := mustCreate(t, svc, 0) // 16.67% below standard price

	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.ErrorIs(t, err, ErrApprovalRequired)

	gate.approved = true
	sent, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)
}

func TestSendAtThresholdNeedsNoApproval(t *testing.T) {
	// Margin 2 prices exactly 15% below standard; the threshold is
	// strictly exclusive so no approval is required.
	svc := newTestService(newMemoryRepo(), &stubGate{approved: false})
	q := mustCreate(t, svc, 2)

	sent, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)
}

func TestSendUnknownOption(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "NOPE"}, salesperson)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAcceptLifecycle(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	_, err := svc.Accept(context.Background(), q.ID, customer)
	require.ErrorIs(t, err, ErrInvalidStatus, "draft cannot be accepted")

	_, err = svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), q.ID, customer)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, accepted.Status)
}

func TestAcceptScopedToOwningCustomer(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)
	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)

	other := shared.Identity{UserID: "cust-2", Role: "customer"}
	_, err = svc.Accept(context.Background(), q.ID, other)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAcceptBlockedPastValidity(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)
	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)

	svc.now = func() time.Time { return frozenNow.AddDate(0, 0, 8) }
	_, err = svc.Accept(context.Background(), q.ID, customer)
	require.ErrorIs(t, err, ErrExpired)
}

func TestUpdateDraftRepricesOptions(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	opts := []OptionRequest{optionAt(10)}
	updated, err := svc.UpdateDraft(context.Background(), q.ID, UpdateQuotationRequest{Options: &opts}, salesperson)
	require.NoError(t, err)
	require.Equal(t, 11000.0, updated.Options[0].TotalPrice)
	require.Equal(t, q.Version+1, updated.Version)
}

func TestUpdateDraftRejectsForeignSalesperson(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	other := shared.Identity{UserID: "sp-2", Role: "salesperson"}
	title := "Revised"
	_, err := svc.UpdateDraft(context.Background(), q.ID, UpdateQuotationRequest{Title: &title}, other)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateDraftOnlyWhileDraft(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)
	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)

	title := "Too late"
	_, err = svc.UpdateDraft(context.Background(), q.ID, UpdateQuotationRequest{Title: &title}, salesperson)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConcurrentEditLosesVersionRace(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGate{})
	q := mustCreate(t, svc, 20)

	// Simulate another writer bumping the stored version.
	repo.items[q.ID].Version++

	stale := *q
	stale.UpdatedAt = frozenNow
	err := repo.Update(context.Background(), stale)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestApplyPriceTargetClampsAtMinimumMargin(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	// A target below cost back-solves a negative margin, clamped to the
	// 5% floor: 10000 × 1.05.
	updated, err := svc.ApplyPriceTarget(context.Background(), q.ID, ApplyPriceTargetRequest{OptionCode: "STD", TargetPrice: 9000}, salesperson)
	require.NoError(t, err)
	require.Equal(t, 5.0, updated.Options[0].MarginPercentage)
	require.Equal(t, 10500.0, updated.Options[0].TotalPrice)
}

func TestListScopesCustomersToOwnSentQuotations(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGate{})
	mine := mustCreate(t, svc, 20)
	_, err := svc.Send(context.Background(), mine.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)
	mustCreate(t, svc, 20) // stays draft, invisible to the customer

	out, total, err := svc.List(context.Background(), ListFilter{}, customer)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, mine.ID, out[0].ID)
}

func TestGetHidesDraftsFromCustomers(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	_, err := svc.Get(context.Background(), q.ID, customer)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.Get(context.Background(), q.ID, salesperson)
	require.NoError(t, err)
	require.Equal(t, q.ID, got.ID)
}

func TestDiscountFor(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 0)

	discount, err := svc.DiscountFor(context.Background(), q.ID, "STD")
	require.NoError(t, err)
	require.InDelta(t, 16.67, discount, 0.01)
}

func TestAcceptedTotal(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGate{})
	q := mustCreate(t, svc, 20)

	_, _, err := svc.AcceptedTotal(context.Background(), q.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), q.ID, customer)
	require.NoError(t, err)

	customerID, total, err := svc.AcceptedTotal(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, "cust-1", customerID)
	require.Equal(t, 12000.0, total)
}

func TestGateFailurePropagates(t *testing.T) {
	gateErr := errors.New("approvals unavailable")
	svc := newTestService(newMemoryRepo(), &stubGate{err: gateErr})
	q := mustCreate(t, svc, 20)

	_, err := svc.Send(context.Background(), q.ID, SendQuotationRequest{OptionCode: "STD"}, salesperson)
	require.ErrorIs(t, err, gateErr)
}
