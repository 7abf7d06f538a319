package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billgate/billgate/internal/account"
	"github.com/billgate/billgate/internal/api/models"
	"github.com/billgate/billgate/internal/api/response"
	"github.com/billgate/billgate/internal/gate"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	service *account.Service
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(service *account.Service) *AccountsHandler {
	return &AccountsHandler{service: service}
}

// ListAccounts handles GET /v1/accounts - list the user's accounts.
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.AccountList{Items: items})
}

// GetAccount handles GET /v1/accounts/{accountId} - fetch a single account.
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	accountID := chi.URLParam(r, "accountId")
	if accountID == "" {
		response.BadRequest(w, r, "accountId is required", nil)
		return
	}

	result, err := h.service.Get(r.Context(), userID, accountID)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// CreateAccount handles POST /v1/accounts - create a new account.
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input models.AccountCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.service.Create(r.Context(), userID, &input)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/accounts/%s", result.ID)
	response.Created(w, r, location, result)
}

// UpdateAccount handles PUT /v1/accounts/{accountId} - update an account.
func (h *AccountsHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	accountID := chi.URLParam(r, "accountId")
	if accountID == "" {
		response.BadRequest(w, r, "accountId is required", nil)
		return
	}

	var input models.AccountUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.service.Update(r.Context(), userID, accountID, &input)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// DeleteAccount handles DELETE /v1/accounts/{accountId} - delete an account.
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	accountID := chi.URLParam(r, "accountId")
	if accountID == "" {
		response.BadRequest(w, r, "accountId is required", nil)
		return
	}

	if err := h.service.Delete(r.Context(), userID, accountID); err != nil {
		writeAccountError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// writeAccountError maps account service errors to problem responses.
// Gate denials surface as 403 naming the flag and layer.
func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	if denied, ok := gate.IsDenied(err); ok {
		response.Forbidden(w, r, denied.Error(), denied.Flag, string(denied.Layer))
		return
	}

	var validation *account.ValidationError
	if errors.As(err, &validation) {
		response.BadRequest(w, r, "validation failed", validation.Errors)
		return
	}

	if account.IsNotFound(err) {
		response.NotFound(w, r, "account not found")
		return
	}

	response.InternalError(w, r, "failed to process account request")
}
