package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/offerly/internal/offer/aggregate"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/internal/offer/editor"
	orgdomain "github.com/smallbiznis/offerly/internal/organization/domain"
)

// apiError is the wire shape of every error response.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Code + ": " + e.Message }

var (
	ErrNotFound = &apiError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "resource not found",
	}
	ErrMissingOrganization = &apiError{
		Status:  http.StatusBadRequest,
		Code:    "missing_organization",
		Message: "no organization is configured",
	}
	ErrTooManyRequests = &apiError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "too many requests, slow down",
	}
)

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// AbortWithError translates domain errors into HTTP responses. Unknown
// errors become a 500 without leaking internals.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "something went wrong"

	switch {
	case errors.Is(err, offerdomain.ErrDocumentNotFound),
		errors.Is(err, orgdomain.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, offerdomain.ErrInvalidID):
		status, code, message = http.StatusBadRequest, "invalid_id", "invalid document id"
	case errors.Is(err, offerdomain.ErrInvalidOrganization),
		errors.Is(err, orgdomain.ErrInvalidOrganization):
		status, code, message = http.StatusBadRequest, "invalid_organization", "organization could not be resolved"
	case errors.Is(err, offerdomain.ErrMissingCounterpartyName):
		status, code, message = http.StatusUnprocessableEntity, "missing_counterparty_name", "counterparty name is required"
	case errors.Is(err, offerdomain.ErrInvalidLineItem):
		status, code, message = http.StatusUnprocessableEntity, "invalid_line_item", "line items need a name and non-negative amounts"
	case errors.Is(err, offerdomain.ErrInvalidStatus):
		status, code, message = http.StatusBadRequest, "invalid_status", "unknown document status"
	case errors.Is(err, offerdomain.ErrInvalidStatusTransition):
		status, code, message = http.StatusConflict, "invalid_status_transition", "status change not allowed"
	case errors.Is(err, offerdomain.ErrUnsupportedSnapshot):
		status, code, message = http.StatusUnprocessableEntity, "unsupported_snapshot", "stored snapshot version is not supported"
	case errors.Is(err, orgdomain.ErrInvalidName):
		status, code, message = http.StatusBadRequest, "invalid_name", "name is required"
	case errors.Is(err, aggregate.ErrLineItemNotFound):
		status, code, message = http.StatusNotFound, "line_item_not_found", "line item not found"
	case errors.Is(err, aggregate.ErrMissingItemName):
		status, code, message = http.StatusBadRequest, "missing_item_name", "line item name is required"
	case errors.Is(err, aggregate.ErrNegativeQuantity),
		errors.Is(err, aggregate.ErrNegativeUnitPrice),
		errors.Is(err, aggregate.ErrNegativeTaxRate),
		errors.Is(err, aggregate.ErrNegativeDiscount):
		status, code, message = http.StatusUnprocessableEntity, "negative_amount", "amounts must be non-negative"
	case errors.Is(err, editor.ErrUnknownIntent):
		status, code, message = http.StatusBadRequest, "unknown_intent", "unknown editor intent"
	case errors.Is(err, editor.ErrMissingSnapshot):
		status, code, message = http.StatusBadRequest, "missing_document", "open_saved requires a document id"
	case errors.Is(err, editor.ErrInitializationInProgress):
		status, code, message = http.StatusConflict, "initialization_in_progress", "editor is already initializing"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &apiError{
		Status:  status,
		Code:    code,
		Message: message,
	}})
}
