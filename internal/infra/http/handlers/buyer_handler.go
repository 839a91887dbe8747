package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

const maxJSONBody = 1 << 20

type BuyerHandler struct {
	CreateUC *usecase.CreateBuyerUseCase
	UpdateUC *usecase.UpdateBuyerUseCase
	DeleteUC *usecase.DeleteBuyerUseCase
	QueryUC  *usecase.QueryBuyersUseCase
	Logger   *zap.Logger
}

func NewBuyerHandler(
	create *usecase.CreateBuyerUseCase,
	update *usecase.UpdateBuyerUseCase,
	del *usecase.DeleteBuyerUseCase,
	query *usecase.QueryBuyersUseCase,
	logger *zap.Logger,
) *BuyerHandler {
	return &BuyerHandler{
		CreateUC: create,
		UpdateUC: update,
		DeleteUC: del,
		QueryUC:  query,
		Logger:   loggerOrNop(logger),
	}
}

type buyerResponse struct {
	OK    bool          `json:"ok"`
	Buyer *entity.Buyer `json:"buyer"`
}

type buyerDetailResponse struct {
	OK bool `json:"ok"`
	*usecase.BuyerDetailOutput
}

type listBuyersResponse struct {
	OK bool `json:"ok"`
	*usecase.ListBuyersOutput
}

type cityCountsResponse struct {
	OK     bool               `json:"ok"`
	Counts []entity.CityCount `json:"counts"`
}

// List (GET /api/buyers?city=&propertyType=&status=&timeline=&q=&page=)
func (h *BuyerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, ok := parseFilter(w, q)
	if !ok {
		return
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	out, err := h.QueryUC.List(r.Context(), usecase.ListBuyersInput{Filter: filter, Page: page})
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listBuyersResponse{OK: true, ListBuyersOutput: out})
}

func (h *BuyerHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input usecase.BuyerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	buyer, err := h.CreateUC.Execute(r.Context(), identity, input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	middleware.RecordBuyerMutation("create")
	writeJSON(w, http.StatusCreated, buyerResponse{OK: true, Buyer: buyer})
}

// Get (GET /api/buyers/{id}) returns the buyer and its recent history.
func (h *BuyerHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.QueryUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, buyerDetailResponse{OK: true, BuyerDetailOutput: out})
}

func (h *BuyerHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input usecase.UpdateBuyerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	buyer, err := h.UpdateUC.Execute(r.Context(), identity, chi.URLParam(r, "id"), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	middleware.RecordBuyerMutation("update")
	writeJSON(w, http.StatusOK, buyerResponse{OK: true, Buyer: buyer})
}

func (h *BuyerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.DeleteUC.Execute(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	middleware.RecordBuyerMutation("delete")
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// CityCounts (GET /api/buyers/stats/cities)
func (h *BuyerHandler) CityCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.QueryUC.CityCounts(r.Context())
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cityCountsResponse{OK: true, Counts: counts})
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (entity.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized")
	}
	return identity, ok
}

// parseFilter reads the list/export filters. Enum values are matched
// case-insensitively; unknown values are rejected.
func parseFilter(w http.ResponseWriter, q url.Values) (entity.BuyerFilter, bool) {
	var (
		filter entity.BuyerFilter
		errs   []usecase.ValidationError
	)

	filter.City = entity.City(enumParam(q, "city"))
	if filter.City != "" && !filter.City.IsValid() {
		errs = append(errs, usecase.ValidationError{Field: "city", Message: "unknown city"})
	}
	filter.PropertyType = entity.PropertyType(enumParam(q, "propertyType"))
	if filter.PropertyType != "" && !filter.PropertyType.IsValid() {
		errs = append(errs, usecase.ValidationError{Field: "propertyType", Message: "unknown property type"})
	}
	filter.Status = entity.Status(enumParam(q, "status"))
	if filter.Status != "" && !filter.Status.IsValid() {
		errs = append(errs, usecase.ValidationError{Field: "status", Message: "unknown status"})
	}
	filter.Timeline = entity.Timeline(enumParam(q, "timeline"))
	if filter.Timeline != "" && !filter.Timeline.IsValid() {
		errs = append(errs, usecase.ValidationError{Field: "timeline", Message: "unknown timeline"})
	}
	filter.Query = strings.TrimSpace(q.Get("q"))

	if len(errs) > 0 {
		resp := ErrorResponse{Error: usecase.CodeValidation, Message: "invalid filter"}
		for _, e := range errs {
			resp.Details = append(resp.Details, ErrorDetail{Field: e.Field, Message: e.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return filter, false
	}
	return filter, true
}

func enumParam(q url.Values, key string) string {
	return strings.ToUpper(strings.TrimSpace(q.Get(key)))
}
