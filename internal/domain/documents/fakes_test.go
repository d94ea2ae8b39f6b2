package documents

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain"
	"charterbooks/internal/domain/fx"
)

// memRepo is an in-memory Repository enforcing number uniqueness among
// live documents of the same company and kind.
type memRepo struct {
	mu   sync.Mutex
	docs map[id.ID]*Document

	// createHook, when set, runs before Create and may fail it.
	createHook   func(doc *Document) error
	failPayments error
	creates      int
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*Document)}
}

func clone(doc *Document) *Document {
	c := *doc
	c.Lines = slices.Clone(doc.Lines)
	c.Payments = slices.Clone(doc.Payments)
	return &c
}

func (r *memRepo) numberTaken(doc *Document) bool {
	for _, other := range r.docs {
		if other.ID == doc.ID || other.DeletionMark || other.Status == entity.StatusVoid {
			continue
		}
		if other.CompanyID == doc.CompanyID && other.Kind == doc.Kind && other.Number == doc.Number {
			return true
		}
	}
	return false
}

func (r *memRepo) Create(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createHook != nil {
		if err := r.createHook(doc); err != nil {
			return err
		}
	}
	if r.numberTaken(doc) {
		return apperror.NewDuplicate("document", "number", doc.Number)
	}
	doc.Version = 1
	stored := clone(doc)
	stored.Lines = nil
	stored.Payments = nil
	r.docs[doc.ID] = stored
	return nil
}

func (r *memRepo) Update(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound("document", doc.ID)
	}
	if stored.Version != doc.Version {
		return apperror.NewConcurrentModification("document", doc.ID)
	}
	if r.numberTaken(doc) {
		return apperror.NewDuplicate("document", "number", doc.Number)
	}
	doc.Version++
	updated := clone(doc)
	updated.Lines = stored.Lines
	updated.Payments = stored.Payments
	r.docs[doc.ID] = updated
	return nil
}

func (r *memRepo) GetByID(_ context.Context, docID id.ID) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[docID]
	if !ok || stored.DeletionMark {
		return nil, apperror.NewNotFound("document", docID)
	}
	return clone(stored), nil
}

func (r *memRepo) SaveLines(_ context.Context, docID id.ID, lines []LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[docID].Lines = slices.Clone(lines)
	return nil
}

func (r *memRepo) SavePayments(_ context.Context, docID id.ID, payments []PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPayments != nil {
		return r.failPayments
	}
	r.docs[docID].Payments = slices.Clone(payments)
	return nil
}

func (r *memRepo) UpdateStatus(_ context.Context, docID id.ID, status entity.Status, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("document", docID)
	}
	stored.Status = status
	stored.AppendNote(note)
	stored.Version++
	return nil
}

func (r *memRepo) Delete(_ context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[docID].DeletionMark = true
	return nil
}

func (r *memRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Document
	for _, d := range r.docs {
		if d.DeletionMark || (filter.Kind != "" && d.Kind != filter.Kind) {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		items = append(items, clone(d))
	}
	return domain.ListResult[*Document]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func (r *memRepo) stored(docID id.ID) *Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.docs[docID])
}

// fakeLedger records posting requests and tracks posted documents.
type fakeLedger struct {
	mu       sync.Mutex
	requests []PostingRequest
	posted   map[id.ID]bool
	reversed []id.ID
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{posted: make(map[id.ID]bool)}
}

func (l *fakeLedger) Post(_ context.Context, req PostingRequest) (PostingResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	if l.err != nil {
		return PostingResult{}, l.err
	}
	l.posted[req.DocumentID] = true
	return PostingResult{Success: true, ReferenceNumber: "JV-" + req.Number}, nil
}

func (l *fakeLedger) HasPostings(_ context.Context, docID id.ID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.posted[docID], nil
}

func (l *fakeLedger) Reverse(_ context.Context, docID id.ID, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reversed = append(l.reversed, docID)
	delete(l.posted, docID)
	return nil
}

// bareLedger supports neither checking nor reversal.
type bareLedger struct{ calls int }

func (l *bareLedger) Post(context.Context, PostingRequest) (PostingResult, error) {
	l.calls++
	return PostingResult{Success: true}, nil
}

// fakeWht stores WHT records per document.
type fakeWht struct {
	mu        sync.Mutex
	records   map[id.ID][]WhtRecord
	creates   int
	cancelled []id.ID
	err       error
}

func newFakeWht() *fakeWht {
	return &fakeWht{records: make(map[id.ID][]WhtRecord)}
}

func (w *fakeWht) Exists(_ context.Context, docID id.ID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records[docID]) > 0, nil
}

func (w *fakeWht) CreateFromLines(_ context.Context, docID id.ID, records []WhtRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.creates++
	w.records[docID] = append(w.records[docID], records...)
	return nil
}

func (w *fakeWht) Cancel(_ context.Context, docID id.ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelled = append(w.cancelled, docID)
	delete(w.records, docID)
	return nil
}

// fakeRates resolves USD at a fixed rate and fails for everything else.
type fakeRates struct {
	base  string
	calls int
}

func (f *fakeRates) NeedsRate(currency string) bool {
	return currency != "" && currency != f.base
}

func (f *fakeRates) Resolve(_ context.Context, currency string, asOf time.Time, manual *types.Money) (*fx.Rate, error) {
	f.calls++
	if manual != nil && manual.IsPositive() {
		return &fx.Rate{Value: *manual, Source: fx.SourceManual, Date: asOf}, nil
	}
	if currency == "USD" {
		return &fx.Rate{Value: types.MustMoney("36.5"), Source: fx.SourceBOT, Date: asOf}, nil
	}
	return nil, fx.ErrRateUnavailable
}

// passTx runs fn without a transaction.
type passTx struct{ calls int }

func (p *passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// recordingAuditor keeps audit events.
type recordingAuditor struct {
	events []AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, event AuditEvent) error {
	a.events = append(a.events, event)
	return nil
}

var errBoom = errors.New("boom")
