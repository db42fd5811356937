package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/api/middleware"
	"github.com/bhanuka-viraj/nexsplit/internal/api/service"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/engine"
)

// SettlementHandler handles HTTP requests for balance and settlement operations
type SettlementHandler struct {
	settlementService service.SettlementService
	logger            *slog.Logger
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(logger *slog.Logger, settlementService service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// GetNexBalances retrieves the net position of every user in a nex
func (h *SettlementHandler) GetNexBalances(c *gin.Context) {
	nexIDParam := c.Param("id")
	nexID, err := uuid.Parse(nexIDParam)
	if err != nil {
		h.logger.Error("Invalid nex ID", "nex_id", nexIDParam, "error", err)
		RespondBadRequest(c, "Invalid nex ID")
		return
	}

	balances, err := h.settlementService.GetNexBalances(c.Request.Context(), nexID)
	if err != nil {
		var inconsistent engine.InconsistentStateError
		if errors.As(err, &inconsistent) {
			RespondUnprocessable(c, "INCONSISTENT_STATE", inconsistent.Error())
			return
		}
		h.logger.Error("Failed to get balances", "nex_id", nexIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	response := NexBalancesResponse{
		NexID:    nexID.String(),
		Balances: make([]BalanceResponse, 0, len(balances)),
	}
	for _, b := range balances {
		response.Balances = append(response.Balances, BalanceResponse{
			UserID: b.UserID.String(),
			Net:    b.Net.StringFixed(2),
		})
	}
	RespondOK(c, response)
}

// GetUserBalances retrieves a user's net positions across all nexes
func (h *SettlementHandler) GetUserBalances(c *gin.Context) {
	userIDParam := c.Param("id")
	userID, err := uuid.Parse(userIDParam)
	if err != nil {
		h.logger.Error("Invalid user ID", "user_id", userIDParam, "error", err)
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	positions, err := h.settlementService.GetUserBalances(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get user balances", "user_id", userIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	response := UserBalancesResponse{
		UserID:    userID.String(),
		Positions: make([]NexPositionResponse, 0, len(positions)),
	}
	for _, p := range positions {
		response.Positions = append(response.Positions, NexPositionResponse{
			NexID:    p.NexID.String(),
			Net:      p.Net.StringFixed(2),
			Currency: p.Currency,
		})
	}
	RespondOK(c, response)
}

// Plan computes a settlement plan for a nex in the requested mode
func (h *SettlementHandler) Plan(c *gin.Context) {
	nexIDParam := c.Param("id")
	nexID, err := uuid.Parse(nexIDParam)
	if err != nil {
		h.logger.Error("Invalid nex ID", "nex_id", nexIDParam, "error", err)
		RespondBadRequest(c, "Invalid nex ID")
		return
	}

	mode := shared.SettlementMode(c.DefaultQuery("mode", string(shared.SettlementModeSimplified)))
	if !mode.Valid() {
		RespondBadRequest(c, "Invalid settlement mode, expected DETAILED or SIMPLIFIED")
		return
	}

	txns, err := h.settlementService.PlanSettlements(c.Request.Context(), nexID, mode)
	if err != nil {
		var inconsistent engine.InconsistentStateError
		if errors.As(err, &inconsistent) {
			RespondUnprocessable(c, "INCONSISTENT_STATE", inconsistent.Error())
			return
		}
		h.logger.Error("Failed to plan settlements", "nex_id", nexIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	response := SettlementPlanResponse{
		NexID:        nexID.String(),
		Mode:         string(mode),
		Transactions: make([]TransactionResponse, 0, len(txns)),
	}
	for _, txn := range txns {
		response.Transactions = append(response.Transactions, mapTransactionToResponse(txn))
	}
	RespondOK(c, response)
}

// Execute settles selected planned transactions and reports per-transaction
// outcomes
func (h *SettlementHandler) Execute(c *gin.Context) {
	nexIDParam := c.Param("id")
	nexID, err := uuid.Parse(nexIDParam)
	if err != nil {
		h.logger.Error("Invalid nex ID", "nex_id", nexIDParam, "error", err)
		RespondBadRequest(c, "Invalid nex ID")
		return
	}

	var req ExecuteSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	selection, errMsg := buildSelection(&req)
	if errMsg != "" {
		RespondBadRequest(c, errMsg)
		return
	}

	report, err := h.settlementService.ExecuteSettlements(
		c.Request.Context(),
		nexID,
		shared.SettlementMode(req.Mode),
		selection,
		req.PaymentMethod,
		req.Notes,
		middleware.GetCorrelationID(c),
	)
	if err != nil {
		var inconsistent engine.InconsistentStateError
		switch {
		case errors.Is(err, service.ErrEmptySelection):
			RespondBadRequest(c, "Selection must name transactions or set all=true")
		case errors.As(err, &inconsistent):
			RespondUnprocessable(c, "INCONSISTENT_STATE", inconsistent.Error())
		default:
			h.logger.Error("Failed to execute settlements", "nex_id", nexIDParam, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapReportToResponse(report))
}

// History retrieves paginated settlement history for a nex
func (h *SettlementHandler) History(c *gin.Context) {
	nexIDParam := c.Param("id")
	nexID, err := uuid.Parse(nexIDParam)
	if err != nil {
		h.logger.Error("Invalid nex ID", "nex_id", nexIDParam, "error", err)
		RespondBadRequest(c, "Invalid nex ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.settlementService.GetHistory(
		c.Request.Context(),
		nexID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get settlement history", "nex_id", nexIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	history := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, history, pagination.Page, pagination.PerPage, int(total))
}

// buildSelection converts an execute request body into a domain selection.
// Returns a non-empty message on the first invalid input.
func buildSelection(req *ExecuteSettlementRequest) (settlement.Selection, string) {
	if req.All {
		return settlement.SelectAll(), ""
	}

	selection := settlement.Selection{
		Transactions: make([]settlement.SelectedTransaction, 0, len(req.Transactions)),
	}
	for _, in := range req.Transactions {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return settlement.Selection{}, "Invalid transaction ID: " + in.ID
		}
		selected := settlement.SelectedTransaction{ID: id}
		if in.Amount != "" {
			amount, err := decimal.NewFromString(in.Amount)
			if err != nil {
				return settlement.Selection{}, "Invalid transaction amount: " + in.Amount
			}
			selected.Amount = &amount
		}
		selection.Transactions = append(selection.Transactions, selected)
	}
	return selection, ""
}

// mapTransactionToResponse maps a planned transaction to its response DTO
func mapTransactionToResponse(txn *settlement.Transaction) TransactionResponse {
	relatedIDs := make([]string, 0, len(txn.RelatedDebtIDs))
	for _, id := range txn.RelatedDebtIDs {
		relatedIDs = append(relatedIDs, id.String())
	}
	return TransactionResponse{
		ID:             txn.ID.String(),
		NexID:          txn.NexID.String(),
		FromUserID:     txn.FromUserID.String(),
		ToUserID:       txn.ToUserID.String(),
		Amount:         txn.Amount.StringFixed(2),
		Currency:       txn.Currency,
		Mode:           string(txn.Mode),
		Status:         string(txn.Status),
		RelatedDebtIDs: relatedIDs,
	}
}

// mapReportToResponse maps an execution report to its response DTO
func mapReportToResponse(report *settlement.ExecutionReport) ExecutionReportResponse {
	results := make([]TransactionResultResponse, 0, len(report.Results))
	for _, r := range report.Results {
		settledIDs := make([]string, 0, len(r.SettledDebtIDs))
		for _, id := range r.SettledDebtIDs {
			settledIDs = append(settledIDs, id.String())
		}
		results = append(results, TransactionResultResponse{
			TransactionID:  r.TransactionID.String(),
			FromUserID:     r.FromUserID.String(),
			ToUserID:       r.ToUserID.String(),
			Amount:         r.Amount.StringFixed(2),
			Status:         string(r.Status),
			SettledDebtIDs: settledIDs,
			FailureReason:  r.FailureReason,
		})
	}

	return ExecutionReportResponse{
		NexID:        report.NexID.String(),
		Mode:         string(report.Mode),
		SettledCount: report.SettledCount,
		FailedCount:  report.FailedCount,
		TotalSettled: report.TotalSettled.StringFixed(2),
		Results:      results,
		ExecutedAt:   report.ExecutedAt.Format(time.RFC3339),
	}
}

// mapEntryToResponse maps a settlement history entry to its response DTO
func mapEntryToResponse(entry *settlement.Entry) HistoryEntryResponse {
	settledIDs := make([]string, 0, len(entry.SettledDebtIDs))
	for _, id := range entry.SettledDebtIDs {
		settledIDs = append(settledIDs, id.String())
	}
	return HistoryEntryResponse{
		TransactionID:  entry.TransactionID.String(),
		NexID:          entry.NexID.String(),
		FromUserID:     entry.FromUserID.String(),
		ToUserID:       entry.ToUserID.String(),
		Amount:         entry.Amount,
		Currency:       entry.Currency,
		Mode:           string(entry.Mode),
		Status:         string(entry.Status),
		PaymentMethod:  entry.PaymentMethod,
		Notes:          entry.Notes,
		SettledDebtIDs: settledIDs,
		FailureReason:  entry.FailureReason,
		ExecutedAt:     entry.ExecutedAt.Format(time.RFC3339),
	}
}
