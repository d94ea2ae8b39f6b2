package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"charterbooks/internal/core/apperror"
	appctx "charterbooks/internal/core/context"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/domain"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/http/v1/dto"
)

// DocumentService is the document lifecycle used by the handlers.
type DocumentService interface {
	Save(ctx context.Context, doc *documents.Document, target entity.Status) (*documents.SaveResult, error)
	Approve(ctx context.Context, kind documents.Kind, docID id.ID) (*documents.SaveResult, error)
	Void(ctx context.Context, kind documents.Kind, docID id.ID, reason string) (*documents.VoidResult, error)
	Delete(ctx context.Context, kind documents.Kind, docID id.ID) error
	Calculate(doc *documents.Document) documents.Summary
	GetByID(ctx context.Context, kind documents.Kind, docID id.ID) (*documents.Document, error)
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*documents.Document], error)
}

var _ DocumentService = (*documents.Service)(nil)

// DocumentHandler serves every document kind; the kind comes from the path.
type DocumentHandler struct {
	BaseHandler
	service DocumentService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) kind(c *gin.Context) (documents.Kind, bool) {
	kind, err := documents.ParseKind(c.Param("kind"))
	if err != nil {
		h.Error(c, apperror.NewNotFound("document kind", c.Param("kind")))
		return "", false
	}
	return kind, true
}

// load fetches the document addressed by the path and checks company access.
func (h *DocumentHandler) load(c *gin.Context) (*documents.Document, bool) {
	kind, ok := h.kind(c)
	if !ok {
		return nil, false
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	doc, err := h.service.GetByID(c.Request.Context(), kind, docID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	if !h.RequireCompany(c, doc.CompanyID) {
		return nil, false
	}
	return doc, true
}

// Create saves a new document.
// POST /api/v1/documents/:kind
func (h *DocumentHandler) Create(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	var req dto.SaveDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Version = 0

	result, ok := h.save(c, kind, &req, nil)
	if !ok {
		return
	}
	h.Created(c, dto.FromSaveResult(result))
}

// Update saves an existing document. The body must carry the current version.
// PUT /api/v1/documents/:kind/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.SaveDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Version < 1 {
		h.Error(c, apperror.NewValidation("version is required for update").WithDetail("field", "version"))
		return
	}

	current, err := h.service.GetByID(c.Request.Context(), kind, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireCompany(c, current.CompanyID) {
		return
	}

	result, ok := h.save(c, kind, &req, &docID)
	if !ok {
		return
	}
	h.OK(c, dto.FromSaveResult(result))
}

func (h *DocumentHandler) save(c *gin.Context, kind documents.Kind, req *dto.SaveDocumentRequest, docID *id.ID) (*documents.SaveResult, bool) {
	target, err := req.TargetStatus(kind)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	doc, err := req.ToDocument(kind)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	if docID != nil {
		doc.ID = *docID
	}
	if !h.RequireCompany(c, doc.CompanyID) {
		return nil, false
	}

	result, err := h.service.Save(c.Request.Context(), doc, target)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return result, true
}

// Get returns one document with lines and payments.
// GET /api/v1/documents/:kind/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromDocument(doc))
}

// List returns document headers.
// GET /api/v1/documents/:kind
func (h *DocumentHandler) List(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	var query dto.DocumentListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter(kind)
	if err != nil {
		h.Error(c, err)
		return
	}

	user := appctx.GetUser(c.Request.Context())
	if filter.CompanyID == nil && user != nil && !user.IsAdmin && len(user.CompanyIDs) > 0 {
		h.Error(c, apperror.NewValidation("companyId is required").WithDetail("field", "companyId"))
		return
	}
	if filter.CompanyID != nil && !h.RequireCompany(c, *filter.CompanyID) {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.DocumentResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromDocument(doc)
	}
	h.OK(c, dto.ListResponse[dto.DocumentResponse]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Approve issues a draft invoice.
// POST /api/v1/documents/:kind/:id/approve
func (h *DocumentHandler) Approve(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	result, err := h.service.Approve(c.Request.Context(), doc.Kind, doc.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSaveResult(result))
}

// Void voids an active document.
// POST /api/v1/documents/:kind/:id/void
func (h *DocumentHandler) Void(c *gin.Context) {
	var req dto.VoidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, ok := h.load(c)
	if !ok {
		return
	}
	result, err := h.service.Void(c.Request.Context(), doc.Kind, doc.ID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromVoidResult(result))
}

// Delete removes a draft.
// DELETE /api/v1/documents/:kind/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), doc.Kind, doc.ID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Calculate previews totals without saving. Kind defaults to invoice.
// POST /api/v1/calculate
func (h *DocumentHandler) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	kind := documents.KindInvoice
	if req.Kind != "" {
		k, err := documents.ParseKind(req.Kind)
		if err != nil {
			h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "kind"))
			return
		}
		kind = k
	}

	doc, err := req.ToDocument(kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.service.Calculate(doc))
}
