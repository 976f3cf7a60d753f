package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/tendant/stepup-auth/pkg/formdata"
	"github.com/tendant/stepup-auth/pkg/operation"
	"github.com/tendant/stepup-auth/pkg/smsotp"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// Handler handles HTTP requests for operation orchestration
type Handler struct {
	operations *operation.Service
	smsStep    *operation.SMSOTPStep
	mobileStep *operation.MobileTokenStep
}

// NewHandler creates a new operation handler
func NewHandler(operations *operation.Service, smsStep *operation.SMSOTPStep, mobileStep *operation.MobileTokenStep) *Handler {
	return &Handler{
		operations: operations,
		smsStep:    smsStep,
		mobileStep: mobileStep,
	}
}

// RegisterRoutes registers the operation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/operations", func(r chi.Router) {
		r.Post("/", h.CreateOperation)
		r.Get("/{id}", h.GetOperation)
		r.Put("/{id}/user", h.AssignUser)
		r.Post("/{id}/sms-otp", h.SendOtp)
		r.Post("/{id}/sms-otp/verify", h.VerifyOtp)
		r.Post("/{id}/mobile-token/verify", h.VerifyMobileToken)
	})
}

// OperationResponse is the wire representation of an operation.
type OperationResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	UserID        string                 `json:"user_id,omitempty"`
	Result        stepflow.AuthResult    `json:"result"`
	FailureReason stepflow.FailureReason `json:"failure_reason,omitempty"`
	PendingMethod stepflow.AuthMethod    `json:"pending_method,omitempty"`
	FormData      *formdata.FormData     `json:"form_data,omitempty"`
}

// CreateOperation handles POST /operations - create an operation and resolve its first step
func (h *Handler) CreateOperation(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name     string             `json:"name"`
		FormData *formdata.FormData `json:"form_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Name == "" {
		http.Error(w, "Operation name is required", http.StatusBadRequest)
		return
	}
	if request.FormData == nil {
		request.FormData = formdata.New()
	}

	op, err := h.operations.Create(r.Context(), request.Name, request.FormData)
	if err != nil {
		slog.Error("Failed to create operation", "name", request.Name, "error", err)
		http.Error(w, "Failed to create operation", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toOperationResponse(op))
}

// GetOperation handles GET /operations/{id}
func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	op, err := h.operations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOperationError(w, err)
		return
	}
	render.JSON(w, r, toOperationResponse(op))
}

// AssignUser handles PUT /operations/{id}/user - bind the authenticated user to the operation
func (h *Handler) AssignUser(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.UserID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	if err := h.operations.AssignUser(r.Context(), chi.URLParam(r, "id"), request.UserID); err != nil {
		writeOperationError(w, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "User assigned"})
}

// SendOtp handles POST /operations/{id}/sms-otp - issue a fresh authorization code
func (h *Handler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Lang string `json:"lang"`
	}
	// The body is optional; an absent lang falls back to the catalog default.
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	op, err := h.operations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOperationError(w, err)
		return
	}

	auth, err := h.smsStep.Initiate(r.Context(), op, request.Lang)
	if err != nil {
		if errors.Is(err, operation.ErrOperationTerminal) || errors.Is(err, operation.ErrUnexpectedMethod) {
			writeOperationError(w, err)
			return
		}
		slog.Error("Failed to issue authorization sms", "operationId", op.ID, "error", err)
		http.Error(w, "Failed to issue authorization sms", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"message_id": auth.MessageID})
}

// VerifyOtp handles POST /operations/{id}/sms-otp/verify
func (h *Handler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var request struct {
		MessageID         string `json:"message_id"`
		AuthorizationCode string `json:"authorization_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.MessageID == "" {
		http.Error(w, "Message ID is required", http.StatusBadRequest)
		return
	}

	operationID := chi.URLParam(r, "id")
	outcome, err := h.smsStep.Verify(r.Context(), operationID, request.MessageID, request.AuthorizationCode)
	if err != nil {
		if errors.Is(err, smsotp.ErrInvalidMessage) {
			http.Error(w, "Authorization message not valid for this operation", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to verify authorization sms", "messageId", request.MessageID, "error", err)
		http.Error(w, "Failed to verify authorization sms", http.StatusInternalServerError)
		return
	}

	h.recordOutcome(w, r, operationID, h.smsStep.Method(), outcome)
}

// VerifyMobileToken handles POST /operations/{id}/mobile-token/verify
func (h *Handler) VerifyMobileToken(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Passcode string `json:"passcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	op, err := h.operations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOperationError(w, err)
		return
	}
	if op.UserID == "" {
		http.Error(w, "Operation has no assigned user", http.StatusConflict)
		return
	}

	outcome, err := h.mobileStep.Verify(r.Context(), op.UserID, request.Passcode)
	if err != nil {
		slog.Error("Failed to verify mobile token", "operationId", op.ID, "error", err)
		http.Error(w, "Failed to verify mobile token", http.StatusInternalServerError)
		return
	}

	h.recordOutcome(w, r, op.ID, h.mobileStep.Method(), outcome)
}

// recordOutcome feeds a step outcome into the orchestrator and writes the
// refreshed operation state.
func (h *Handler) recordOutcome(w http.ResponseWriter, r *http.Request, operationID string, method stepflow.AuthMethod, outcome operation.StepOutcome) {
	op, err := h.operations.RecordStepResult(r.Context(), operationID, method, outcome)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	response := toOperationResponse(op)
	response.FormData = nil
	render.JSON(w, r, struct {
		Outcome   operation.StepOutcome `json:"outcome"`
		Operation OperationResponse     `json:"operation"`
	}{
		Outcome:   outcome,
		Operation: response,
	})
}

func toOperationResponse(op *operation.Operation) OperationResponse {
	response := OperationResponse{}
	copier.Copy(&response, op)
	return response
}

func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, operation.ErrOperationNotFound):
		http.Error(w, "Operation not found", http.StatusNotFound)
	case errors.Is(err, operation.ErrOperationTerminal):
		http.Error(w, "Operation already finished", http.StatusConflict)
	case errors.Is(err, operation.ErrUnexpectedMethod):
		http.Error(w, "Unexpected authentication method", http.StatusBadRequest)
	default:
		slog.Error("Operation request failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
