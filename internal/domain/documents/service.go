package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/numerator"
	"charterbooks/internal/core/tx"
	"charterbooks/internal/domain"
	"charterbooks/internal/domain/audit"
	"charterbooks/internal/domain/fx"
	"charterbooks/pkg/logger"
)

var tracer = otel.Tracer("charterbooks/documents")

// DefaultNumberAttempts bounds the create retries on a number collision.
const DefaultNumberAttempts = 3

// Warning codes returned with successful saves.
const (
	WarnManualRateRequired = "FX_MANUAL_RATE_REQUIRED"
	WarnPostingFailed      = "LEDGER_POSTING_FAILED"
	WarnRecycleFailed      = "NUMBER_RECYCLE_FAILED"
	WarnReverseFailed      = "LEDGER_REVERSE_FAILED"
	WarnWhtCancelFailed    = "WHT_CANCEL_FAILED"
)

// Warning is a non-fatal problem met during an operation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	Document   *Document      `json:"document"`
	Warnings   []Warning      `json:"warnings,omitempty"`
	Posting    *PostingResult `json:"posting,omitempty"`
	WhtCreated int            `json:"whtRecordsCreated"`
}

func (r *SaveResult) warn(code, msg string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: msg})
}

// VoidResult is the outcome of a void.
type VoidResult struct {
	Document *Document `json:"document"`
	Recycled bool      `json:"recycled"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// ServiceConfig configures the document service.
// Only Repo and Numerator are required.
type ServiceConfig struct {
	Repo      Repository
	Numerator numerator.Generator
	TxManager tx.Manager
	Rates     RateResolver
	Ledger    LedgerPoster
	Wht       WhtTracker
	Auditor   Auditor

	// NumberAttempts defaults to DefaultNumberAttempts.
	NumberAttempts int
}

// Service runs the document lifecycle: validation, numbering, persistence and side effects.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	rates     RateResolver
	ledger    LedgerPoster
	wht       WhtTracker
	auditor   Auditor
	attempts  int
}

// NewService creates a new document service.
func NewService(cfg ServiceConfig) *Service {
	attempts := cfg.NumberAttempts
	if attempts <= 0 {
		attempts = DefaultNumberAttempts
	}
	return &Service{
		repo:      cfg.Repo,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		rates:     cfg.Rates,
		ledger:    cfg.Ledger,
		wht:       cfg.Wht,
		auditor:   cfg.Auditor,
		attempts:  attempts,
	}
}

// Save validates doc and stores it in status target, then runs the side effects
// of entering the active status.
//
// Steps run in a fixed order: transition check, recalculation, validation,
// FX rate, number, header, lines, payments, ledger posting, WHT tracking.
// A failure stops the sequence; only the ledger posting is best-effort. Writes
// that completed stay committed: when WHT tracking fails the result is returned
// together with the error so the caller can save the stored version again.
func (s *Service) Save(ctx context.Context, doc *Document, target entity.Status) (result *SaveResult, err error) {
	ctx, span := tracer.Start(ctx, "documents.Save", trace.WithAttributes(
		attribute.String("document.kind", string(doc.Kind)),
		attribute.String("document.target_status", string(target)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !doc.Kind.IsValid() {
		return nil, apperror.NewValidation("unknown document kind").WithDetail("kind", string(doc.Kind))
	}

	var current *Document
	from := entity.StatusDraft
	if !doc.IsNew() {
		current, err = s.repo.GetByID(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		if current.Kind != doc.Kind {
			return nil, apperror.NewNotFound(string(doc.Kind), doc.ID)
		}
		from = current.Status
	}

	if err := Transition(doc.Kind, from, target); err != nil {
		if apperror.HasCode(err, apperror.CodeDocumentVoid) {
			return nil, apperror.NewDocumentVoid(doc.ID)
		}
		return nil, err
	}
	if target == entity.StatusVoid {
		return nil, apperror.NewInvalidTransition(string(from), string(target)).
			WithDetail("hint", "use the void action")
	}

	if current != nil {
		doc.CreatedAt = current.CreatedAt
		doc.CreatedBy = current.CreatedBy
		doc.InternalNotes = mergeNotes(current.InternalNotes, doc.InternalNotes)
		if strings.TrimSpace(doc.Number) == "" {
			doc.Number = current.Number
			doc.NumberAutoAssigned = current.NumberAutoAssigned
		} else if doc.Number == current.Number {
			doc.NumberAutoAssigned = current.NumberAutoAssigned
		} else {
			doc.NumberAutoAssigned = false
		}
	}

	doc.Recalculate()

	if err := Validate(doc, target).Err(); err != nil {
		return nil, err
	}

	result = &SaveResult{Document: doc}
	s.attachRate(ctx, doc, result)
	doc.Recalculate()

	doc.Status = target
	if doc.IsNew() {
		audit.EnrichCreated(ctx, &doc.BaseDocument)
	} else {
		audit.EnrichUpdated(ctx, &doc.BaseDocument)
	}

	if err := s.persistWithRetry(ctx, doc, current == nil); err != nil {
		doc.Status = from
		return nil, err
	}

	if current != nil && current.NumberAutoAssigned && current.Number != doc.Number {
		s.recycle(ctx, current, result)
	}

	enteredActive := !from.IsActive() && target.IsActive()
	if enteredActive {
		s.postToLedger(ctx, doc, result)
	}
	action := AuditUpdate
	if current == nil {
		action = AuditCreate
	}

	if target.IsActive() {
		created, err := s.trackWht(ctx, doc)
		if err != nil {
			s.record(ctx, doc, action, from)
			logger.Error(ctx, "WHT tracking failed after save",
				"id", doc.ID,
				"number", doc.Number,
				"error", err)
			return result, apperror.NewWhtTrackingFailed(doc.ID, doc.Number, doc.Version).WithCause(err)
		}
		result.WhtCreated = created
	}

	s.record(ctx, doc, action, from)

	logger.Info(ctx, "document saved",
		"id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
		"from", from,
		"status", doc.Status,
		"warnings", len(result.Warnings))

	return result, nil
}

// attachRate resolves the FX rate. Failures leave the document without a rate
// and add a warning asking for a manual one.
func (s *Service) attachRate(ctx context.Context, doc *Document, result *SaveResult) {
	if s.rates == nil {
		return
	}
	if !s.rates.NeedsRate(doc.Currency) {
		doc.clearFx()
		return
	}

	manual := doc.FxRate
	if doc.FxRateSource != "" && doc.FxRateSource != fx.SourceManual {
		manual = nil
	}

	rate, err := s.rates.Resolve(ctx, doc.Currency, doc.Date, manual)
	if err != nil || rate == nil {
		logger.Warn(ctx, "fx rate unavailable, saving without rate",
			"currency", doc.Currency,
			"date", doc.Date.Format(time.DateOnly),
			"error", err)
		doc.clearFx()
		result.warn(WarnManualRateRequired,
			fmt.Sprintf("No exchange rate found for %s; enter the rate manually", strings.ToUpper(doc.Currency)))
		return
	}

	value := rate.Value
	date := rate.Date
	doc.FxRate = &value
	doc.FxRateSource = rate.Source
	doc.FxRateDate = &date
}

// persistWithRetry writes header, lines and payments. For new documents with an
// auto-assigned number a duplicate number triggers a fresh number and another attempt.
func (s *Service) persistWithRetry(ctx context.Context, doc *Document, isNew bool) error {
	scope := doc.Kind.NumberScope(doc.CompanyID)

	for attempt := 1; ; attempt++ {
		if strings.TrimSpace(doc.Number) == "" {
			number, err := s.numerator.Next(ctx, scope, doc.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
			doc.NumberAutoAssigned = true
		}

		err := s.persist(ctx, doc, isNew)
		if err == nil {
			return nil
		}

		if !isNew || !doc.NumberAutoAssigned {
			return err
		}
		if !apperror.IsDuplicate(err) {
			s.recycle(ctx, doc, &SaveResult{})
			doc.Number = ""
			doc.NumberAutoAssigned = false
			return err
		}
		if attempt >= s.attempts {
			logger.Error(ctx, "document number retries exhausted",
				"kind", doc.Kind,
				"last_number", doc.Number,
				"attempts", attempt)
			doc.Number = ""
			doc.NumberAutoAssigned = false
			return apperror.NewNumberConflict(attempt).WithCause(err)
		}

		logger.Warn(ctx, "document number taken, retrying",
			"kind", doc.Kind,
			"number", doc.Number,
			"attempt", attempt)
		doc.Number = ""
	}
}

func (s *Service) persist(ctx context.Context, doc *Document, isNew bool) error {
	write := func(ctx context.Context) error {
		if isNew {
			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
		} else {
			if err := s.repo.Update(ctx, doc); err != nil {
				return err
			}
		}

		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if doc.Kind.Rules().RequiresPayments {
			if err := s.repo.SavePayments(ctx, doc.ID, doc.Payments); err != nil {
				return fmt.Errorf("save payments: %w", err)
			}
		}
		return nil
	}

	if s.txManager == nil {
		return write(ctx)
	}
	return s.txManager.RunInTransaction(ctx, write)
}

// postToLedger submits the posting once per entry into the active status.
func (s *Service) postToLedger(ctx context.Context, doc *Document, result *SaveResult) {
	if s.ledger == nil {
		return
	}

	if checker, ok := s.ledger.(PostingChecker); ok {
		posted, err := checker.HasPostings(ctx, doc.ID)
		if err != nil {
			logger.Warn(ctx, "ledger posting check failed", "id", doc.ID, "error", err)
			result.warn(WarnPostingFailed, "Could not check existing ledger postings; posting skipped")
			return
		}
		if posted {
			logger.Info(ctx, "ledger posting exists, skipping", "id", doc.ID, "number", doc.Number)
			return
		}
	}

	res, err := s.ledger.Post(ctx, BuildPostingRequest(doc))
	if err == nil && !res.Success {
		err = errors.New(res.Error)
	}
	if err != nil {
		logger.Warn(ctx, "ledger posting failed", "id", doc.ID, "number", doc.Number, "error", err)
		result.warn(WarnPostingFailed, fmt.Sprintf("Document saved but ledger posting failed: %v", err))
		result.Posting = &PostingResult{Success: false, Error: err.Error()}
		return
	}
	result.Posting = &res
}

// trackWht creates one record per line with nonzero WHT, unless records exist.
func (s *Service) trackWht(ctx context.Context, doc *Document) (int, error) {
	if s.wht == nil || !doc.HasWht() {
		return 0, nil
	}

	exists, err := s.wht.Exists(ctx, doc.ID)
	if err != nil {
		return 0, fmt.Errorf("check WHT records: %w", err)
	}
	if exists {
		return 0, nil
	}

	records := BuildWhtRecords(doc)
	if err := s.wht.CreateFromLines(ctx, doc.ID, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Approve issues a saved draft invoice.
func (s *Service) Approve(ctx context.Context, kind Kind, docID id.ID) (*SaveResult, error) {
	doc, err := s.GetByID(ctx, kind, docID)
	if err != nil {
		return nil, err
	}
	if !kind.Rules().Approvable {
		return nil, apperror.NewBusinessRule("APPROVE_NOT_SUPPORTED",
			fmt.Sprintf("%s documents cannot be approved", kind))
	}
	if doc.Status != entity.StatusDraft {
		if doc.IsVoid() {
			return nil, apperror.NewDocumentVoid(docID)
		}
		return nil, apperror.NewInvalidTransition(string(doc.Status), string(kind.ActiveStatus()))
	}

	result, err := s.Save(ctx, doc, kind.ActiveStatus())
	if err != nil {
		return nil, err
	}
	s.record(ctx, doc, AuditApprove, entity.StatusDraft)
	return result, nil
}

// Void moves an active document to void, appends reason to the internal notes
// and returns an auto-assigned number to the pool. Ledger reversal and WHT
// cancellation run when the collaborators support them; their failures are warnings.
func (s *Service) Void(ctx context.Context, kind Kind, docID id.ID, reason string) (*VoidResult, error) {
	ctx, span := tracer.Start(ctx, "documents.Void", trace.WithAttributes(
		attribute.String("document.kind", string(kind)),
		attribute.String("document.id", docID.String()),
	))
	defer span.End()

	doc, err := s.GetByID(ctx, kind, docID)
	if err != nil {
		return nil, err
	}

	from := doc.Status
	if err := Transition(kind, from, entity.StatusVoid); err != nil {
		if apperror.HasCode(err, apperror.CodeDocumentVoid) {
			return nil, apperror.NewDocumentVoid(docID)
		}
		return nil, err
	}

	note := voidNote(reason)
	if err := s.repo.UpdateStatus(ctx, docID, entity.StatusVoid, note); err != nil {
		return nil, fmt.Errorf("void document: %w", err)
	}
	doc.Status = entity.StatusVoid
	doc.AppendNote(note)

	result := &VoidResult{Document: doc}
	saveResult := &SaveResult{}
	if doc.NumberAutoAssigned {
		result.Recycled = s.recycle(ctx, doc, saveResult)
	}

	if reverser, ok := s.ledger.(LedgerReverser); ok {
		if err := reverser.Reverse(ctx, docID, reason); err != nil {
			logger.Warn(ctx, "ledger reversal failed", "id", docID, "error", err)
			saveResult.warn(WarnReverseFailed, fmt.Sprintf("Ledger reversal failed: %v", err))
		}
	}
	if canceller, ok := s.wht.(WhtCanceller); ok {
		if err := canceller.Cancel(ctx, docID); err != nil {
			logger.Warn(ctx, "WHT cancellation failed", "id", docID, "error", err)
			saveResult.warn(WarnWhtCancelFailed, fmt.Sprintf("WHT records were not cancelled: %v", err))
		}
	}
	result.Warnings = saveResult.Warnings

	s.record(ctx, doc, AuditVoid, from)
	logger.Info(ctx, "document voided",
		"id", docID,
		"kind", kind,
		"number", doc.Number,
		"recycled", result.Recycled)

	return result, nil
}

// Delete soft-deletes a draft and recycles its auto-assigned number.
// Active documents must be voided instead.
func (s *Service) Delete(ctx context.Context, kind Kind, docID id.ID) error {
	doc, err := s.GetByID(ctx, kind, docID)
	if err != nil {
		return err
	}

	switch {
	case doc.IsVoid():
		return apperror.NewDocumentVoid(docID)
	case doc.Status != entity.StatusDraft:
		return apperror.NewBusinessRule(apperror.CodeInvalidTransition,
			"Only draft documents can be deleted; void the document instead")
	}

	if err := s.repo.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if doc.NumberAutoAssigned {
		s.recycle(ctx, doc, &SaveResult{})
	}
	s.record(ctx, doc, AuditDelete, doc.Status)
	return nil
}

// Calculate previews the totals of doc without persisting anything.
func (s *Service) Calculate(doc *Document) Summary {
	return doc.Summarize()
}

// GetByID retrieves a document of kind with lines and payments.
func (s *Service) GetByID(ctx context.Context, kind Kind, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Kind != kind {
		return nil, apperror.NewNotFound(string(kind), docID)
	}
	return doc, nil
}

// List retrieves documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) recycle(ctx context.Context, doc *Document, result *SaveResult) bool {
	if doc.Number == "" {
		return false
	}
	if err := s.numerator.Recycle(ctx, doc.Kind.NumberScope(doc.CompanyID), doc.Number); err != nil {
		logger.Warn(ctx, "number recycle failed", "number", doc.Number, "error", err)
		result.warn(WarnRecycleFailed, fmt.Sprintf("Number %s was not returned to the pool", doc.Number))
		return false
	}
	return true
}

func (s *Service) record(ctx context.Context, doc *Document, action AuditAction, from entity.Status) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Record(ctx, AuditEvent{
		DocumentID: doc.ID,
		Kind:       doc.Kind,
		Number:     doc.Number,
		Action:     action,
		From:       from,
		To:         doc.Status,
		Snapshot:   doc,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "id", doc.ID, "action", action, "error", err)
	}
}

func voidNote(reason string) string {
	reason = strings.TrimSpace(reason)
	stamp := time.Now().UTC().Format(time.DateOnly)
	if reason == "" {
		return fmt.Sprintf("[%s] Voided", stamp)
	}
	return fmt.Sprintf("[%s] Voided: %s", stamp, reason)
}

// mergeNotes keeps the stored notes when the caller sends none.
func mergeNotes(stored, incoming string) string {
	if strings.TrimSpace(incoming) == "" {
		return stored
	}
	return incoming
}
