package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billgate/billgate/internal/api/models"
	"github.com/billgate/billgate/internal/api/response"
	"github.com/billgate/billgate/internal/bill"
	"github.com/billgate/billgate/internal/gate"
)

// BillsHandler handles bill endpoints.
type BillsHandler struct {
	service bill.Service
}

// NewBillsHandler creates a new BillsHandler.
func NewBillsHandler(service bill.Service) *BillsHandler {
	return &BillsHandler{service: service}
}

// ListBills handles GET /v1/bills - list the user's bills.
func (h *BillsHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeBillError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.BillList{Items: items})
}

// GetBill handles GET /v1/bills/{billId} - fetch a single bill.
func (h *BillsHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	billID := chi.URLParam(r, "billId")
	if billID == "" {
		response.BadRequest(w, r, "billId is required", nil)
		return
	}

	result, err := h.service.Get(r.Context(), userID, billID)
	if err != nil {
		writeBillError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// CreateBill handles POST /v1/bills - create a new bill.
func (h *BillsHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input models.BillCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.service.Create(r.Context(), userID, &input)
	if err != nil {
		writeBillError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/bills/%s", result.ID)
	response.Created(w, r, location, result)
}

// MarkBillPaid handles POST /v1/bills/{billId}/pay - mark a bill as paid.
func (h *BillsHandler) MarkBillPaid(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	billID := chi.URLParam(r, "billId")
	if billID == "" {
		response.BadRequest(w, r, "billId is required", nil)
		return
	}

	result, err := h.service.MarkPaid(r.Context(), userID, billID)
	if err != nil {
		writeBillError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// DeleteBill handles DELETE /v1/bills/{billId} - delete a bill.
func (h *BillsHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	billID := chi.URLParam(r, "billId")
	if billID == "" {
		response.BadRequest(w, r, "billId is required", nil)
		return
	}

	if err := h.service.Delete(r.Context(), userID, billID); err != nil {
		writeBillError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// writeBillError maps bill service errors to problem responses.
// Gate denials surface as 403 naming the flag and layer.
func writeBillError(w http.ResponseWriter, r *http.Request, err error) {
	if denied, ok := gate.IsDenied(err); ok {
		response.Forbidden(w, r, denied.Error(), denied.Flag, string(denied.Layer))
		return
	}

	var validation *bill.ValidationError
	if errors.As(err, &validation) {
		response.BadRequest(w, r, "validation failed", validation.Errors)
		return
	}

	switch {
	case errors.Is(err, bill.ErrBillNotFound):
		response.NotFound(w, r, "bill not found")
	case errors.Is(err, bill.ErrAlreadyPaid):
		response.Conflict(w, r, "bill is already marked paid")
	default:
		response.InternalError(w, r, "failed to process bill request")
	}
}
