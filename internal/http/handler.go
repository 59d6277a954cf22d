package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sanitation-service/internal/http/middleware"
	"sanitation-service/internal/model"
	"sanitation-service/internal/notify"
	"sanitation-service/internal/permit"
	"sanitation-service/internal/service"
)

type Handler struct {
	businessService     *service.BusinessService
	inspectionService   *service.InspectionService
	notificationService *service.NotificationService
	dispatcher          *notify.Dispatcher
	log                 zerolog.Logger
}

func NewHandler(
	businessService *service.BusinessService,
	inspectionService *service.InspectionService,
	notificationService *service.NotificationService,
	dispatcher *notify.Dispatcher,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		businessService:     businessService,
		inspectionService:   inspectionService,
		notificationService: notificationService,
		dispatcher:          dispatcher,
		log:                 log,
	}
}

type checklistItemRequest struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	DueDate *time.Time `json:"due_date"`
}

type businessRequest struct {
	BidNumber     string `json:"bid_number"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Establishment string `json:"establishment"`
	Type          string `json:"type"`
	Address       string `json:"address"`
	Landmark      string `json:"landmark"`
	ContactPerson string `json:"contact_person"`
	ContactNumber string `json:"contact_number"`
	Remarks       string `json:"remarks"`

	SanitaryPermitIssuedAt     *time.Time             `json:"sanitary_permit_issued_at"`
	SanitaryPermitChecklist    []checklistItemRequest `json:"sanitary_permit_checklist"`
	HealthCertificateChecklist []checklistItemRequest `json:"health_certificate_checklist"`
	MSRChecklist               []checklistItemRequest `json:"msr_checklist"`

	DeclaredPersonnel *int       `json:"declared_personnel"`
	HealthCertCount   *int       `json:"health_cert_count"`
	BalanceToComply   *int       `json:"balance_to_comply"`
	ComplianceDueDate *time.Time `json:"compliance_due_date"`

	Submit bool `json:"submit"`
}

func (h *Handler) createBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateBusinessInput{
		BidNumber:     req.BidNumber,
		Name:          req.Name,
		Nickname:      req.Nickname,
		Establishment: req.Establishment,
		Type:          req.Type,
		Address:       req.Address,
		Landmark:      req.Landmark,
		ContactPerson: req.ContactPerson,
		ContactNumber: req.ContactNumber,
		Remarks:       req.Remarks,

		SanitaryPermitIssuedAt:     req.SanitaryPermitIssuedAt,
		SanitaryPermitChecklist:    toChecklistItems(req.SanitaryPermitChecklist),
		HealthCertificateChecklist: toChecklistItems(req.HealthCertificateChecklist),
		MSRChecklist:               toChecklistItems(req.MSRChecklist),

		DeclaredPersonnel: req.DeclaredPersonnel,
		HealthCertCount:   req.HealthCertCount,
		BalanceToComply:   req.BalanceToComply,
		ComplianceDueDate: req.ComplianceDueDate,

		Submit: req.Submit,
	}

	record, err := h.businessService.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

func (h *Handler) listBusinesses(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var opts service.ListBusinessOptions
	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.ApplicationStatus(strings.ToUpper(val)))
		}
	}
	opts.Type = strings.TrimSpace(c.Query("type"))
	opts.Search = strings.TrimSpace(c.Query("search"))
	opts.Limit = intQuery(c, "limit")
	opts.Offset = intQuery(c, "offset")

	records, err := h.businessService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) getBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	details, err := h.businessService.Get(c.Request.Context(), principal, strings.TrimSpace(c.Param("ref")))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(details))
}

func (h *Handler) updateBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		BidNumber     *string `json:"bid_number"`
		Name          *string `json:"name"`
		Nickname      *string `json:"nickname"`
		Establishment *string `json:"establishment"`
		Type          *string `json:"type"`
		Address       *string `json:"address"`
		Landmark      *string `json:"landmark"`
		ContactPerson *string `json:"contact_person"`
		ContactNumber *string `json:"contact_number"`
		Remarks       *string `json:"remarks"`

		SanitaryPermitIssuedAt     *time.Time             `json:"sanitary_permit_issued_at"`
		SanitaryPermitChecklist    []checklistItemRequest `json:"sanitary_permit_checklist"`
		HealthCertificateChecklist []checklistItemRequest `json:"health_certificate_checklist"`
		MSRChecklist               []checklistItemRequest `json:"msr_checklist"`

		DeclaredPersonnel *int       `json:"declared_personnel"`
		HealthCertCount   *int       `json:"health_cert_count"`
		BalanceToComply   *int       `json:"balance_to_comply"`
		ComplianceDueDate *time.Time `json:"compliance_due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.UpdateBusinessInput{
		BidNumber:     req.BidNumber,
		Name:          req.Name,
		Nickname:      req.Nickname,
		Establishment: req.Establishment,
		Type:          req.Type,
		Address:       req.Address,
		Landmark:      req.Landmark,
		ContactPerson: req.ContactPerson,
		ContactNumber: req.ContactNumber,
		Remarks:       req.Remarks,

		SanitaryPermitIssuedAt: req.SanitaryPermitIssuedAt,

		DeclaredPersonnel: req.DeclaredPersonnel,
		HealthCertCount:   req.HealthCertCount,
		BalanceToComply:   req.BalanceToComply,
		ComplianceDueDate: req.ComplianceDueDate,
	}
	if req.SanitaryPermitChecklist != nil {
		input.SanitaryPermitChecklist = toChecklistItems(req.SanitaryPermitChecklist)
	}
	if req.HealthCertificateChecklist != nil {
		input.HealthCertificateChecklist = toChecklistItems(req.HealthCertificateChecklist)
	}
	if req.MSRChecklist != nil {
		input.MSRChecklist = toChecklistItems(req.MSRChecklist)
	}

	record, err := h.businessService.Update(c.Request.Context(), principal, strings.TrimSpace(c.Param("ref")), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) submitBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	record, err := h.businessService.Submit(c.Request.Context(), principal, strings.TrimSpace(c.Param("ref")))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) advanceBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	target := model.ApplicationStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	record, fx, err := h.businessService.Advance(c.Request.Context(), principal, strings.TrimSpace(c.Param("ref")), target, req.Note)
	if err != nil {
		h.handleError(c, err)
		return
	}

	warnings := h.dispatcher.Dispatch(c.Request.Context(), fx)
	c.JSON(http.StatusOK, successResponseWithWarnings(record, warnings))
}

func (h *Handler) cancelBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	record, err := h.businessService.Cancel(c.Request.Context(), principal, strings.TrimSpace(c.Param("ref")))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) deleteBusiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	if err := h.businessService.Delete(c.Request.Context(), principal, strings.TrimSpace(c.Param("ref"))); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deleted"}))
}

func (h *Handler) createTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		BusinessRef    string     `json:"business_ref" binding:"required"`
		InspectionType string     `json:"inspection_type"`
		InspectionDate *time.Time `json:"inspection_date"`
		Remarks        string     `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateTicketInput{
		BusinessRef:    strings.TrimSpace(req.BusinessRef),
		InspectionType: model.InspectionType(strings.ToUpper(strings.TrimSpace(req.InspectionType))),
		InspectionDate: req.InspectionDate,
		Remarks:        req.Remarks,
	}

	record, fx, err := h.inspectionService.CreateTicket(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	warnings := h.dispatcher.Dispatch(c.Request.Context(), fx)
	c.JSON(http.StatusCreated, successResponseWithWarnings(record, warnings))
}

func (h *Handler) listTickets(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts := service.ListTicketOptions{
		BusinessRef: strings.TrimSpace(c.Query("business_ref")),
		Limit:       intQuery(c, "limit"),
		Offset:      intQuery(c, "offset"),
	}
	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.InspectionStatus(strings.ToUpper(val)))
		}
	}
	if year := intQuery(c, "year"); year > 0 {
		from, to := permit.YearWindow(year, time.UTC)
		opts.From = &from
		opts.To = &to
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid date_from"))
			return
		}
		opts.From = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid date_to"))
			return
		}
		opts.To = &ts
	}

	records, err := h.inspectionService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) getTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	record, err := h.inspectionService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) completeTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	var req struct {
		SanitaryPermit   string     `json:"sanitary_permit"`
		ActualCount      int        `json:"actual_count"`
		WithCert         int        `json:"with_cert"`
		WithoutCert      int        `json:"without_cert"`
		PotableWaterCert string     `json:"potable_water_cert"`
		PestControl      string     `json:"pest_control"`
		SanitaryOrder1   string     `json:"sanitary_order1"`
		SanitaryOrder2   string     `json:"sanitary_order2"`
		InspectionDate   *time.Time `json:"inspection_date"`
		Remarks          string     `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CompleteTicketInput{
		Checklist: model.InspectionChecklist{
			SanitaryPermit: model.PermitMark(strings.ToUpper(strings.TrimSpace(req.SanitaryPermit))),
			HealthCertificates: model.HealthCertificateCount{
				ActualCount: req.ActualCount,
				WithCert:    req.WithCert,
				WithoutCert: req.WithoutCert,
			},
			PotableWaterCert: model.ComplianceMark(strings.ToUpper(strings.TrimSpace(req.PotableWaterCert))),
			PestControl:      model.ComplianceMark(strings.ToUpper(strings.TrimSpace(req.PestControl))),
			SanitaryOrder1:   model.ComplianceMark(strings.ToUpper(strings.TrimSpace(req.SanitaryOrder1))),
			SanitaryOrder2:   model.ComplianceMark(strings.ToUpper(strings.TrimSpace(req.SanitaryOrder2))),
		},
		InspectionDate: req.InspectionDate,
		Remarks:        req.Remarks,
	}

	record, fx, err := h.inspectionService.CompleteTicket(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	warnings := h.dispatcher.Dispatch(c.Request.Context(), fx)
	c.JSON(http.StatusOK, successResponseWithWarnings(record, warnings))
}

func (h *Handler) cancelTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	if err := h.inspectionService.CancelTicket(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "cancelled"}))
}

func (h *Handler) listViolations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	businessRef := strings.TrimSpace(c.Query("business_id"))
	if businessRef == "" {
		c.JSON(http.StatusBadRequest, errorResponse("business_id is required"))
		return
	}

	violations, err := h.inspectionService.ListViolations(
		c.Request.Context(),
		principal,
		businessRef,
		intQuery(c, "limit"),
		intQuery(c, "offset"),
	)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": violations}))
}

func (h *Handler) resolveViolation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid violation id"))
		return
	}

	fx, err := h.inspectionService.ResolveViolation(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	warnings := h.dispatcher.Dispatch(c.Request.Context(), fx)
	c.JSON(http.StatusOK, successResponseWithWarnings(gin.H{"status": "resolved"}, warnings))
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	items, err := h.notificationService.List(c.Request.Context(), principal, intQuery(c, "limit"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": items}))
}

func (h *Handler) readNotification(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid notification id"))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "read"}))
}

func (h *Handler) deleteNotification(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid notification id"))
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deleted"}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, service.ErrLimitExceeded):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStoreUnavailable):
		h.log.Error().Err(err).Msg("store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorResponse("store unavailable, retry later"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func toChecklistItems(items []checklistItemRequest) []model.ChecklistItem {
	out := make([]model.ChecklistItem, 0, len(items))
	for _, item := range items {
		out = append(out, model.ChecklistItem{
			Key:     item.Key,
			Label:   item.Label,
			DueDate: item.DueDate,
		})
	}
	return out
}

func intQuery(c *gin.Context, name string) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data     interface{} `json:"data"`
	Warnings []string    `json:"warnings,omitempty"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func successResponseWithWarnings(data interface{}, warnings []string) responseEnvelope {
	return responseEnvelope{Data: data, Warnings: warnings}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
