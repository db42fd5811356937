package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/api/middleware"
	"github.com/bhanuka-viraj/nexsplit/internal/api/service"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// ExpenseHandler handles HTTP requests for expense operations
type ExpenseHandler struct {
	expenseService service.ExpenseService
	logger         *slog.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(logger *slog.Logger, expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// Create records a new expense in a nex and queues it for debt generation
func (h *ExpenseHandler) Create(c *gin.Context) {
	nexIDParam := c.Param("id")
	nexID, err := uuid.Parse(nexIDParam)
	if err != nil {
		h.logger.Error("Invalid nex ID", "nex_id", nexIDParam, "error", err)
		RespondBadRequest(c, "Invalid nex ID")
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		RespondBadRequest(c, "Invalid payer ID")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}
	participants, errMsg := buildParticipants(req.Participants)
	if errMsg != "" {
		RespondBadRequest(c, errMsg)
		return
	}

	payerParticipates := true
	if req.PayerParticipates != nil {
		payerParticipates = *req.PayerParticipates
	}

	exp, err := expense.NewExpense(
		nexID,
		payerID,
		amount,
		req.Currency,
		shared.SplitPolicy(req.SplitPolicy),
		payerParticipates,
		participants,
	)
	if err != nil {
		h.logger.Error("Invalid expense", "nex_id", nexIDParam, "error", err)
		RespondBadRequest(c, err.Error())
		return
	}

	if err := h.expenseService.CreateExpense(c.Request.Context(), exp, middleware.GetCorrelationID(c)); err != nil {
		h.logger.Error("Failed to create expense", "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"expense_id": exp.ID.String(),
		"status":     string(shared.ExpenseStatusPending),
	})
}

// Update revises an expense and queues debt regeneration
func (h *ExpenseHandler) Update(c *gin.Context) {
	idParam := c.Param("id")
	expenseID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid expense ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid expense ID")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		RespondBadRequest(c, "Invalid payer ID")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}
	participants, errMsg := buildParticipants(req.Participants)
	if errMsg != "" {
		RespondBadRequest(c, errMsg)
		return
	}

	payerParticipates := true
	if req.PayerParticipates != nil {
		payerParticipates = *req.PayerParticipates
	}

	edit := service.ExpenseEdit{
		PayerID:           payerID,
		Amount:            amount,
		Currency:          req.Currency,
		SplitPolicy:       shared.SplitPolicy(req.SplitPolicy),
		PayerParticipates: payerParticipates,
		Participants:      participants,
	}

	exp, err := h.expenseService.ReviseExpense(c.Request.Context(), expenseID, edit, middleware.GetCorrelationID(c))
	if err != nil {
		switch {
		case errors.Is(err, expense.ErrExpenseNotFound{}):
			RespondNotFound(c, "Expense not found")
		case errors.Is(err, expense.ErrConcurrentRevision{}):
			RespondConflict(c, "Expense was modified concurrently, retry with fresh state")
		case isExpenseValidationError(err):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to revise expense", "id", idParam, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, gin.H{
		"expense_id": exp.ID.String(),
		"revision":   exp.Revision,
		"status":     string(shared.ExpenseStatusPending),
	})
}

// GetByID retrieves expense details by ID, returns 404 if not found
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid expense ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid expense ID")
		return
	}

	exp, err := h.expenseService.GetExpenseByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get expense", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	if exp == nil {
		RespondNotFound(c, "Expense not found")
		return
	}

	RespondOK(c, mapExpenseToResponse(exp))
}

// buildParticipants converts participant inputs and validates their decimal
// fields. Returns a non-empty message on the first invalid input.
func buildParticipants(inputs []ParticipantInput) ([]expense.Participant, string) {
	participants := make([]expense.Participant, 0, len(inputs))
	for _, in := range inputs {
		userID, err := uuid.Parse(in.UserID)
		if err != nil {
			return nil, "Invalid participant user ID: " + in.UserID
		}
		p := expense.Participant{UserID: userID}
		if in.Percentage != "" {
			p.Percentage, err = decimal.NewFromString(in.Percentage)
			if err != nil {
				return nil, "Invalid participant percentage: " + in.Percentage
			}
		}
		if in.Amount != "" {
			p.Amount, err = decimal.NewFromString(in.Amount)
			if err != nil {
				return nil, "Invalid participant amount: " + in.Amount
			}
		}
		participants = append(participants, p)
	}
	return participants, ""
}

// isExpenseValidationError reports whether err is one of the expense domain
// validation errors that map to a 400 response
func isExpenseValidationError(err error) bool {
	for _, target := range []error{
		expense.ErrInvalidAmount,
		expense.ErrNoParticipants,
		expense.ErrInvalidSplitPolicy,
		expense.ErrInvalidCurrency,
		expense.ErrMissingPayer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// mapExpenseToResponse maps an expense to its response DTO
func mapExpenseToResponse(exp *expense.Expense) ExpenseResponse {
	participants := make([]ParticipantResponse, 0, len(exp.Participants))
	for _, p := range exp.Participants {
		pr := ParticipantResponse{UserID: p.UserID.String()}
		if !p.Percentage.IsZero() {
			pr.Percentage = p.Percentage.String()
		}
		if !p.Amount.IsZero() {
			pr.Amount = p.Amount.StringFixed(2)
		}
		if !p.Share.IsZero() {
			pr.Share = p.Share.StringFixed(2)
		}
		participants = append(participants, pr)
	}

	return ExpenseResponse{
		ID:                exp.ID.String(),
		NexID:             exp.NexID.String(),
		PayerID:           exp.PayerID.String(),
		Amount:            exp.Amount.StringFixed(2),
		Currency:          exp.Currency,
		SplitPolicy:       string(exp.SplitPolicy),
		PayerParticipates: exp.PayerParticipates,
		Participants:      participants,
		Status:            string(exp.Status),
		FailureReason:     exp.FailureReason,
		Revision:          exp.Revision,
		CreatedAt:         exp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         exp.UpdatedAt.Format(time.RFC3339),
	}
}
