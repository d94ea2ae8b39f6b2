package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charterbooks/internal/core/apperror"
	appctx "charterbooks/internal/core/context"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain"
	"charterbooks/internal/domain/auth"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/domain/fx"
	"charterbooks/internal/infrastructure/storage/postgres"
	"charterbooks/pkg/logger"
)

// --- fakes ---

type tokenTable map[string]*appctx.UserContext

func (t tokenTable) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

type fakeDocuments struct {
	docs      map[id.ID]*documents.Document
	lastSaved *documents.Document
	version   int
	target    entity.Status
	saveErr   error
	approved  []id.ID
	voided    map[id.ID]string
	deleted   []id.ID
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: map[id.ID]*documents.Document{}, voided: map[id.ID]string{}}
}

func (f *fakeDocuments) Save(_ context.Context, doc *documents.Document, target entity.Status) (*documents.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.lastSaved = doc
	f.version = doc.Version
	f.target = target
	doc.Recalculate()
	doc.Status = target
	if doc.Number == "" {
		doc.Number = "INV-2026-00001"
		doc.NumberAutoAssigned = true
	}
	doc.Version++
	f.docs[doc.ID] = doc
	return &documents.SaveResult{Document: doc}, nil
}

func (f *fakeDocuments) Approve(_ context.Context, kind documents.Kind, docID id.ID) (*documents.SaveResult, error) {
	f.approved = append(f.approved, docID)
	doc := f.docs[docID]
	doc.Status = kind.ActiveStatus()
	return &documents.SaveResult{Document: doc}, nil
}

func (f *fakeDocuments) Void(_ context.Context, _ documents.Kind, docID id.ID, reason string) (*documents.VoidResult, error) {
	f.voided[docID] = reason
	doc := f.docs[docID]
	doc.Status = entity.StatusVoid
	return &documents.VoidResult{
		Document: doc,
		Recycled: true,
		Warnings: []documents.Warning{{Code: documents.WarnReverseFailed, Message: "ledger down"}},
	}, nil
}

func (f *fakeDocuments) Delete(_ context.Context, _ documents.Kind, docID id.ID) error {
	f.deleted = append(f.deleted, docID)
	return nil
}

func (f *fakeDocuments) Calculate(doc *documents.Document) documents.Summary {
	return doc.Summarize()
}

func (f *fakeDocuments) GetByID(_ context.Context, kind documents.Kind, docID id.ID) (*documents.Document, error) {
	doc, ok := f.docs[docID]
	if !ok || doc.Kind != kind {
		return nil, apperror.NewNotFound(string(kind), docID)
	}
	return doc, nil
}

func (f *fakeDocuments) List(_ context.Context, filter documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	var items []*documents.Document
	for _, doc := range f.docs {
		if doc.Kind == filter.Kind {
			items = append(items, doc)
		}
	}
	return domain.ListResult[*documents.Document]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

type fakeRates struct {
	rate *fx.Rate
	err  error
}

func (f fakeRates) BaseCurrency() string { return "THB" }

func (f fakeRates) Resolve(_ context.Context, currency string, _ time.Time, _ *types.Money) (*fx.Rate, error) {
	if currency == "THB" {
		return nil, nil
	}
	return f.rate, f.err
}

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }
func (f fakeDB) Stats() postgres.PoolStats  { return postgres.PoolStats{MaxConns: 10} }

// --- harness ---

var (
	companyA = id.MustParse("0190a000-0000-7000-8000-00000000000a")
	companyB = id.MustParse("0190a000-0000-7000-8000-00000000000b")
)

type harness struct {
	docs  *fakeDocuments
	rates *fakeRates
	db    *fakeDB
	srv   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{docs: newFakeDocuments(), rates: &fakeRates{}, db: &fakeDB{}}
	tokens := tokenTable{
		"accountant": {UserID: "u-1", Roles: []string{auth.RoleAccountant}, CompanyIDs: []string{companyA.String()}},
		"approver":   {UserID: "u-2", Roles: []string{auth.RoleApprover}},
		"viewer":     {UserID: "u-3"},
	}
	h.srv = NewRouter(RouterConfig{
		Database:     h.db,
		Logger:       logger.Nop(),
		JWTValidator: tokens,
		Documents:    h.docs,
		Rates:        h.rates,
		Version:      "test",
	})
	return h
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func (h *harness) seed(kind documents.Kind, company id.ID, status entity.Status) *documents.Document {
	doc := documents.NewDocument(kind, company)
	doc.Version = 1
	doc.Status = status
	doc.Number = "INV-2026-00042"
	h.docs.docs[doc.ID] = doc
	return doc
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func invoiceBody() map[string]any {
	return map[string]any{
		"companyId":  companyA.String(),
		"clientId":   id.New().String(),
		"clientName": "Andaman Sail Co",
		"date":       "2026-04-01T00:00:00Z",
		"lineItems": []map[string]any{
			{"description": "Charter 3 days", "quantity": "3", "unitPrice": "1000", "taxRate": "7"},
		},
	}
}

// --- tests ---

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	h.db.err = errors.New("connection refused")
	rec = h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = h.do(t, http.MethodGet, "/health/info", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"maxConns":10`)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/documents/invoice", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decode[errorBody](t, rec).Code)

	rec = h.do(t, http.MethodGet, "/api/v1/documents/invoice", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateInvoice(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/documents/invoice", "accountant", invoiceBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NotNil(t, h.docs.lastSaved)
	assert.Equal(t, documents.KindInvoice, h.docs.lastSaved.Kind)
	assert.Equal(t, entity.StatusDraft, h.docs.target)

	body := decode[map[string]any](t, rec)
	doc := body["document"].(map[string]any)
	assert.Equal(t, "INV-2026-00001", doc["number"])
	assert.Equal(t, "3210", doc["totalAmount"])
	assert.Equal(t, "2026-04-01", doc["date"])
}

func TestCreateIssueFlag(t *testing.T) {
	h := newHarness(t)
	body := invoiceBody()
	body["issue"] = true

	rec := h.do(t, http.MethodPost, "/api/v1/documents/receipt", "accountant", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, entity.StatusPaid, h.docs.target)
}

func TestCreateKindAliases(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/documents/credit-note", "accountant", invoiceBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, documents.KindCreditNote, h.docs.lastSaved.Kind)

	rec = h.do(t, http.MethodPost, "/api/v1/documents/quote", "accountant", invoiceBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFieldErrors(t *testing.T) {
	h := newHarness(t)
	body := invoiceBody()
	body["clientId"] = "not-a-uuid"
	body["lineItems"] = []map[string]any{{"description": "x", "whtRate": "4", "projectId": "bad"}}

	rec := h.do(t, http.MethodPost, "/api/v1/documents/invoice", "accountant", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := decode[errorBody](t, rec).Details["fields"].(map[string]any)
	assert.Contains(t, fields, "clientId")
	assert.Contains(t, fields, "lineItems[0].whtRate")
	assert.Contains(t, fields, "lineItems[0].projectId")
	assert.Nil(t, h.docs.lastSaved)
}

func TestCreateCompanyAccess(t *testing.T) {
	h := newHarness(t)
	body := invoiceBody()
	body["companyId"] = companyB.String()

	rec := h.do(t, http.MethodPost, "/api/v1/documents/invoice", "accountant", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/documents/invoice", "approver", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateRequiresWriterRole(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/documents/invoice", "viewer", invoiceBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	h := newHarness(t)
	h.docs.saveErr = apperror.NewNumberConflict(3)

	rec := h.do(t, http.MethodPost, "/api/v1/documents/invoice", "accountant", invoiceBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeNumberConflict, decode[errorBody](t, rec).Code)

	h.docs.saveErr = fmt.Errorf("insert: %w", errors.New("connection reset"))
	rec = h.do(t, http.MethodPost, "/api/v1/documents/invoice", "accountant", invoiceBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestUpdateRequiresVersion(t *testing.T) {
	h := newHarness(t)
	doc := h.seed(documents.KindInvoice, companyA, entity.StatusDraft)
	path := "/api/v1/documents/invoice/" + doc.ID.String()

	rec := h.do(t, http.MethodPut, path, "accountant", invoiceBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := invoiceBody()
	body["version"] = 1
	body["status"] = "issued"
	rec = h.do(t, http.MethodPut, path, "accountant", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, doc.ID, h.docs.lastSaved.ID)
	assert.Equal(t, 1, h.docs.version)
	assert.Equal(t, entity.StatusIssued, h.docs.target)
}

func TestUpdateCannotVoid(t *testing.T) {
	h := newHarness(t)
	doc := h.seed(documents.KindInvoice, companyA, entity.StatusIssued)

	body := invoiceBody()
	body["version"] = 1
	body["status"] = "void"
	rec := h.do(t, http.MethodPut, "/api/v1/documents/invoice/"+doc.ID.String(), "accountant", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Nil(t, h.docs.lastSaved)
	assert.Empty(t, h.docs.voided)
	assert.Equal(t, entity.StatusIssued, h.docs.docs[doc.ID].Status)
}

func TestSaveWhtFailureCarriesDocumentID(t *testing.T) {
	h := newHarness(t)
	docID := id.New()
	h.docs.saveErr = apperror.NewWhtTrackingFailed(docID, "INV-2026-00009", 1).WithCause(errors.New("wht store down"))

	body := invoiceBody()
	body["issue"] = true
	rec := h.do(t, http.MethodPost, "/api/v1/documents/invoice", "accountant", body)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decode[map[string]any](t, rec)
	assert.Equal(t, apperror.CodeWhtTrackingFailed, resp["code"])
	details := resp["details"].(map[string]any)
	assert.Equal(t, docID.String(), details["document_id"])
	assert.Equal(t, "INV-2026-00009", details["number"])
	assert.NotContains(t, rec.Body.String(), "wht store down")
}

func TestGetWrongKind(t *testing.T) {
	h := newHarness(t)
	doc := h.seed(documents.KindReceipt, companyA, entity.StatusDraft)

	rec := h.do(t, http.MethodGet, "/api/v1/documents/invoice/"+doc.ID.String(), "viewer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/documents/receipt/"+doc.ID.String(), "viewer", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/documents/receipt/123", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveRole(t *testing.T) {
	h := newHarness(t)
	doc := h.seed(documents.KindInvoice, companyA, entity.StatusDraft)
	path := "/api/v1/documents/invoice/" + doc.ID.String() + "/approve"

	rec := h.do(t, http.MethodPost, path, "accountant", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, h.docs.approved)

	rec = h.do(t, http.MethodPost, path, "approver", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []id.ID{doc.ID}, h.docs.approved)
}

func TestVoid(t *testing.T) {
	h := newHarness(t)
	doc := h.seed(documents.KindInvoice, companyA, entity.StatusIssued)
	path := "/api/v1/documents/invoice/" + doc.ID.String() + "/void"

	rec := h.do(t, http.MethodPost, path, "accountant", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, path, "accountant", map[string]any{"reason": "duplicate booking"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate booking", h.docs.voided[doc.ID])

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["numberRecycled"])
	assert.Len(t, body["warnings"], 1)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	doc := h.seed(documents.KindInvoice, companyB, entity.StatusDraft)
	path := "/api/v1/documents/invoice/" + doc.ID.String()

	rec := h.do(t, http.MethodDelete, path, "accountant", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, path, "approver", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []id.ID{doc.ID}, h.docs.deleted)
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.seed(documents.KindInvoice, companyA, entity.StatusDraft)
	h.seed(documents.KindReceipt, companyA, entity.StatusDraft)

	// restricted users must name a company
	rec := h.do(t, http.MethodGet, "/api/v1/documents/invoice", "accountant", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/documents/invoice?companyId="+companyA.String()+"&status=draft", "accountant", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, body["totalCount"])

	rec = h.do(t, http.MethodGet, "/api/v1/documents/invoice?status=archived", "approver", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculate(t *testing.T) {
	h := newHarness(t)
	body := invoiceBody()
	body["pricingType"] = "include_vat"
	body["lineItems"] = []map[string]any{
		{"description": "Charter", "quantity": "1", "unitPrice": "1070", "taxRate": "7", "whtRate": "3"},
	}

	rec := h.do(t, http.MethodPost, "/api/v1/calculate", "viewer", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[map[string]any](t, rec)
	assert.Equal(t, "1000", summary["subtotal"])
	assert.Equal(t, "70", summary["taxAmount"])
	assert.Equal(t, "1070", summary["totalAmount"])
	assert.Equal(t, "30", summary["whtAmount"])
	assert.Equal(t, "1040", summary["netAmountToPay"])
}

func TestFxRates(t *testing.T) {
	h := newHarness(t)
	h.rates.rate = &fx.Rate{Value: types.MustMoney("36.5"), Source: fx.SourceBOT, Date: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)}

	rec := h.do(t, http.MethodGet, "/api/v1/fx-rates?currency=usd&date=2026-04-01", "viewer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "USD", body["currency"])
	assert.Equal(t, "36.5", body["rate"])
	assert.Equal(t, "bot", body["source"])
	assert.Equal(t, "2026-03-31", body["date"])

	rec = h.do(t, http.MethodGet, "/api/v1/fx-rates?currency=THB", "viewer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", decode[map[string]any](t, rec)["rate"])

	h.rates.rate, h.rates.err = nil, fmt.Errorf("all providers failed: %w", fx.ErrRateUnavailable)
	rec = h.do(t, http.MethodGet, "/api/v1/fx-rates?currency=EUR", "viewer", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apperror.CodeFxRateUnavailable, decode[errorBody](t, rec).Code)

	rec = h.do(t, http.MethodGet, "/api/v1/fx-rates?currency=EUR&date=01/04/2026", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
