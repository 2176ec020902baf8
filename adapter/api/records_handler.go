package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/pkg/observability"
)

// RecordHandler handles quality record API requests.
type RecordHandler struct {
	createRecord     *commands.CreateRecordHandler
	updateRecord     *commands.UpdateRecordHandler
	deleteRecord     *commands.DeleteRecordHandler
	transitionRecord *commands.TransitionRecordHandler
	supplierResponse *commands.RecordSupplierResponseHandler
	listRecords      *queries.ListRecordsHandler
	getRecord        *queries.GetRecordHandler
	getTimeline      *queries.GetTimelineHandler
	getAuditTrail    *queries.GetAuditTrailHandler
	exportRegister   *queries.ExportRegisterHandler
	metrics          observability.Metrics
	logger           *slog.Logger
}

// RecordHandlerConfig holds dependencies for the record handler.
type RecordHandlerConfig struct {
	CreateRecord     *commands.CreateRecordHandler
	UpdateRecord     *commands.UpdateRecordHandler
	DeleteRecord     *commands.DeleteRecordHandler
	TransitionRecord *commands.TransitionRecordHandler
	SupplierResponse *commands.RecordSupplierResponseHandler
	ListRecords      *queries.ListRecordsHandler
	GetRecord        *queries.GetRecordHandler
	GetTimeline      *queries.GetTimelineHandler
	GetAuditTrail    *queries.GetAuditTrailHandler
	ExportRegister   *queries.ExportRegisterHandler
	Metrics          observability.Metrics
	Logger           *slog.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(cfg RecordHandlerConfig) *RecordHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &RecordHandler{
		createRecord:     cfg.CreateRecord,
		updateRecord:     cfg.UpdateRecord,
		deleteRecord:     cfg.DeleteRecord,
		transitionRecord: cfg.TransitionRecord,
		supplierResponse: cfg.SupplierResponse,
		listRecords:      cfg.ListRecords,
		getRecord:        cfg.GetRecord,
		getTimeline:      cfg.GetTimeline,
		getAuditTrail:    cfg.GetAuditTrail,
		exportRegister:   cfg.ExportRegister,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
	}
}

// Request bodies

type createRecordRequest struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Owner       string   `json:"owner"`
	Supplier    string   `json:"supplier"`
	PartNumber  string   `json:"part_number"`
	LotNumbers  []string `json:"lot_numbers"`
	Tags        []string `json:"tags"`
	Actor       string   `json:"actor"`
}

type updateRecordRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Severity    *string   `json:"severity"`
	Owner       *string   `json:"owner"`
	Supplier    *string   `json:"supplier"`
	PartNumber  *string   `json:"part_number"`
	LotNumbers  *[]string `json:"lot_numbers"`
	Tags        *[]string `json:"tags"`
	Actor       string    `json:"actor"`
}

type transitionRequest struct {
	ToStatus string `json:"to_status"`
	Comment  string `json:"comment"`
	Actor    string `json:"actor"`
}

type supplierResponseRequest struct {
	Accepted        bool   `json:"accepted"`
	RejectionReason string `json:"rejection_reason"`
	Actor           string `json:"actor"`
}

// Response bodies

type recordResponse struct {
	ID               string               `json:"id"`
	Kind             string               `json:"kind"`
	KindName         string               `json:"kind_name"`
	Status           string               `json:"status"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Severity         string               `json:"severity"`
	Owner            string               `json:"owner,omitempty"`
	Supplier         string               `json:"supplier,omitempty"`
	PartNumber       string               `json:"part_number,omitempty"`
	LotNumbers       []string             `json:"lot_numbers,omitempty"`
	Tags             []string             `json:"tags,omitempty"`
	ResponseAccepted *bool                `json:"response_accepted,omitempty"`
	RejectionReason  string               `json:"rejection_reason,omitempty"`
	Dates            map[string]time.Time `json:"dates,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Version          int                  `json:"version"`
}

type recordDetailResponse struct {
	recordResponse
	Milestones           []lifecycle.MilestoneStage `json:"milestones"`
	AvailableTransitions []lifecycle.TransitionEdge `json:"available_transitions"`
}

func toRecordResponse(dto queries.RecordDTO) recordResponse {
	resp := recordResponse{
		ID:               dto.ID.String(),
		Kind:             dto.Kind.String(),
		KindName:         dto.KindName,
		Status:           string(dto.Status),
		Title:            dto.Title,
		Description:      dto.Description,
		Severity:         dto.Severity,
		Owner:            dto.Owner,
		Supplier:         dto.Supplier,
		PartNumber:       dto.PartNumber,
		LotNumbers:       dto.LotNumbers,
		Tags:             dto.Tags,
		ResponseAccepted: dto.ResponseAccepted,
		RejectionReason:  dto.RejectionReason,
		CreatedAt:        dto.CreatedAt,
		UpdatedAt:        dto.UpdatedAt,
		Version:          dto.Version,
	}
	if len(dto.Dates) > 0 {
		resp.Dates = make(map[string]time.Time, len(dto.Dates))
		for field, at := range dto.Dates {
			resp.Dates[string(field)] = at
		}
	}
	return resp
}

// ListRecords handles GET /api/v1/records
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	query := queries.ListRecordsQuery{
		Kind:   r.URL.Query().Get("kind"),
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	}

	records, err := h.listRecords.Handle(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, err, "list records")
		return
	}

	responses := make([]recordResponse, len(records))
	for i, dto := range records {
		responses[i] = toRecordResponse(dto)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": responses,
		"count":   len(responses),
	})
}

// CreateRecord handles POST /api/v1/records
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := lifecycle.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Severity != "" {
		if _, err := record.ParseSeverity(req.Severity); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cmd := commands.CreateRecordCommand{
		Kind:        kind,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Owner:       req.Owner,
		Supplier:    req.Supplier,
		PartNumber:  req.PartNumber,
		LotNumbers:  req.LotNumbers,
		Tags:        req.Tags,
		Actor:       requestActor(r, req.Actor),
	}

	result, err := h.createRecord.Handle(r.Context(), cmd)
	if err != nil {
		h.writeDomainError(w, err, "create record")
		return
	}

	h.metrics.Counter(observability.MetricRecordsCreated, 1, observability.T("kind", kind.String()))
	writeJSON(w, http.StatusCreated, map[string]string{
		"record_id": result.RecordID.String(),
		"status":    string(result.Status),
	})
}

// GetRecord handles GET /api/v1/records/{recordID}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	detail, err := h.getRecord.Handle(r.Context(), queries.GetRecordQuery{RecordID: recordID})
	if err != nil {
		h.writeDomainError(w, err, "get record")
		return
	}

	writeJSON(w, http.StatusOK, recordDetailResponse{
		recordResponse:       toRecordResponse(detail.RecordDTO),
		Milestones:           detail.Milestones,
		AvailableTransitions: detail.AvailableTransitions,
	})
}

// UpdateRecord handles PATCH /api/v1/records/{recordID}
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	var req updateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Severity != nil && *req.Severity != "" {
		if _, err := record.ParseSeverity(*req.Severity); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cmd := commands.UpdateRecordCommand{
		RecordID:    recordID,
		Actor:       requestActor(r, req.Actor),
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Owner:       req.Owner,
		Supplier:    req.Supplier,
		PartNumber:  req.PartNumber,
		LotNumbers:  req.LotNumbers,
		Tags:        req.Tags,
	}

	if err := h.updateRecord.Handle(r.Context(), cmd); err != nil {
		h.writeDomainError(w, err, "update record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteRecord handles DELETE /api/v1/records/{recordID}
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	cmd := commands.DeleteRecordCommand{
		RecordID: recordID,
		Actor:    requestActor(r, r.URL.Query().Get("actor")),
	}

	if err := h.deleteRecord.Handle(r.Context(), cmd); err != nil {
		h.writeDomainError(w, err, "delete record")
		return
	}

	h.metrics.Counter(observability.MetricRecordsDeleted, 1)
	w.WriteHeader(http.StatusNoContent)
}

// GetTimeline handles GET /api/v1/records/{recordID}/timeline
func (h *RecordHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	items, err := h.getTimeline.Handle(r.Context(), queries.GetTimelineQuery{RecordID: recordID})
	if err != nil {
		h.writeDomainError(w, err, "get timeline")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"record_id": recordID.String(),
		"timeline":  items,
	})
}

// ListTransitions handles GET /api/v1/records/{recordID}/transitions
func (h *RecordHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	detail, err := h.getRecord.Handle(r.Context(), queries.GetRecordQuery{RecordID: recordID})
	if err != nil {
		h.writeDomainError(w, err, "list transitions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"record_id":   detail.ID.String(),
		"status":      string(detail.Status),
		"transitions": detail.AvailableTransitions,
	})
}

// TransitionRecord handles POST /api/v1/records/{recordID}/transitions
func (h *RecordHandler) TransitionRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ToStatus == "" {
		writeError(w, http.StatusBadRequest, "Field 'to_status' is required")
		return
	}

	cmd := commands.TransitionRecordCommand{
		RecordID: recordID,
		ToStatus: lifecycle.Status(req.ToStatus),
		Actor:    requestActor(r, req.Actor),
		Comment:  req.Comment,
	}

	result, err := h.transitionRecord.Handle(r.Context(), cmd)
	if err != nil {
		h.metrics.Counter(observability.MetricTransitionsRejected, 1)
		h.writeDomainError(w, err, "transition record")
		return
	}

	h.metrics.Counter(observability.MetricTransitionsAccepted, 1, observability.T("label", result.Label))
	writeJSON(w, http.StatusOK, map[string]string{
		"record_id":   result.RecordID.String(),
		"from_status": string(result.FromStatus),
		"to_status":   string(result.ToStatus),
		"label":       result.Label,
	})
}

// GetAuditTrail handles GET /api/v1/records/{recordID}/audit
func (h *RecordHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	entries, err := h.getAuditTrail.Handle(r.Context(), queries.GetAuditTrailQuery{RecordID: recordID})
	if err != nil {
		h.writeDomainError(w, err, "get audit trail")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"record_id": recordID.String(),
		"entries":   entries,
		"count":     len(entries),
	})
}

// RecordSupplierResponse handles POST /api/v1/records/{recordID}/response
func (h *RecordHandler) RecordSupplierResponse(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	var req supplierResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := commands.RecordSupplierResponseCommand{
		RecordID:        recordID,
		Accepted:        req.Accepted,
		RejectionReason: req.RejectionReason,
		Actor:           requestActor(r, req.Actor),
	}

	if err := h.supplierResponse.Handle(r.Context(), cmd); err != nil {
		h.writeDomainError(w, err, "record supplier response")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportRegister handles GET /api/v1/records/export
func (h *RecordHandler) ExportRegister(w http.ResponseWriter, r *http.Request) {
	query := queries.ExportRegisterQuery{
		Kind:   r.URL.Query().Get("kind"),
		Status: r.URL.Query().Get("status"),
		Format: r.URL.Query().Get("format"),
	}

	result, err := h.exportRegister.Handle(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, err, "export register")
		return
	}

	h.metrics.Counter(observability.MetricExportsRendered, 1, observability.T("format", query.Format))
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Error("failed to write export payload", "error", err)
	}
}

// writeDomainError maps a command or query failure to an HTTP status. Rule
// rejections are client errors; anything unrecognized is a 500.
func (h *RecordHandler) writeDomainError(w http.ResponseWriter, err error, op string) {
	var (
		invalidTransition *lifecycle.InvalidTransitionError
		invalidStatus     *lifecycle.InvalidStatusError
		missingComment    *lifecycle.MissingCommentError
		unauthorized      *lifecycle.UnauthorizedError
	)

	switch {
	case errors.Is(err, record.ErrRecordNotFound), errors.Is(err, queries.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, record.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &missingComment):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &invalidStatus), errors.Is(err, lifecycle.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, record.ErrEmptyTitle):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, record.ErrRecordClosed), errors.Is(err, record.ErrNotDeletable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, queries.ErrUnknownExportFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to "+op, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

// Helper functions

func parseRecordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("recordID")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Record ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Record ID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// requestActor resolves the acting identity. The X-Actor header wins; a
// body-level actor field is the fallback for clients that embed it.
func requestActor(r *http.Request, bodyActor string) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return bodyActor
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
