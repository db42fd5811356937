package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bhanuka-viraj/nexsplit/internal/api/service"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) CreateExpense(ctx context.Context, exp *expense.Expense, correlationID string) error {
	args := m.Called(ctx, exp, correlationID)
	return args.Error(0)
}

func (m *MockExpenseService) ReviseExpense(ctx context.Context, expenseID uuid.UUID, edit service.ExpenseEdit, correlationID string) (*expense.Expense, error) {
	args := m.Called(ctx, expenseID, edit, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Expense), args.Error(1)
}

func (m *MockExpenseService) GetExpenseByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Expense), args.Error(1)
}

var _ service.ExpenseService = (*MockExpenseService)(nil)

func validCreateBody(payerID uuid.UUID, others ...uuid.UUID) CreateExpenseRequest {
	participants := []ParticipantInput{{UserID: payerID.String()}}
	for _, id := range others {
		participants = append(participants, ParticipantInput{UserID: id.String()})
	}
	return CreateExpenseRequest{
		PayerID:      payerID.String(),
		Amount:       "90.00",
		Currency:     "USD",
		SplitPolicy:  "EQUALLY",
		Participants: participants,
	}
}

func TestExpenseHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		nexID := uuid.New()
		payerID := uuid.New()
		mockService.On("CreateExpense", mock.Anything, mock.MatchedBy(func(exp *expense.Expense) bool {
			return exp.NexID == nexID &&
				exp.PayerID == payerID &&
				exp.Amount.Equal(decimal.RequireFromString("90.00")) &&
				exp.SplitPolicy == shared.SplitPolicyEqually &&
				exp.PayerParticipates
		}), mock.Anything).Return(nil)

		router := gin.Default()
		router.POST("/nexes/:id/expenses", handler.Create)

		jsonBody, _ := json.Marshal(validCreateBody(payerID, uuid.New(), uuid.New()))
		req, _ := http.NewRequest(http.MethodPost, "/nexes/"+nexID.String()+"/expenses", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		data, ok := response.Data.(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, data["expense_id"])
		assert.Equal(t, "PENDING", data["status"])

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidNexID", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)
		router := gin.Default()
		router.POST("/nexes/:id/expenses", handler.Create)

		jsonBody, _ := json.Marshal(validCreateBody(uuid.New()))
		req, _ := http.NewRequest(http.MethodPost, "/nexes/not-a-uuid/expenses", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidSplitPolicy", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)
		router := gin.Default()
		router.POST("/nexes/:id/expenses", handler.Create)

		body := validCreateBody(uuid.New())
		body.SplitPolicy = "RANDOMLY"
		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/nexes/"+uuid.New().String()+"/expenses", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)
		router := gin.Default()
		router.POST("/nexes/:id/expenses", handler.Create)

		body := validCreateBody(uuid.New())
		body.Amount = "ninety"
		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/nexes/"+uuid.New().String()+"/expenses", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		mockService.On("CreateExpense", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka unavailable"))

		router := gin.Default()
		router.POST("/nexes/:id/expenses", handler.Create)

		jsonBody, _ := json.Marshal(validCreateBody(uuid.New()))
		req, _ := http.NewRequest(http.MethodPost, "/nexes/"+uuid.New().String()+"/expenses", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestExpenseHandler_Update(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	newUpdateBody := func(payerID uuid.UUID) UpdateExpenseRequest {
		return UpdateExpenseRequest{
			PayerID:     payerID.String(),
			Amount:      "120.00",
			Currency:    "USD",
			SplitPolicy: "EQUALLY",
			Participants: []ParticipantInput{
				{UserID: payerID.String()},
				{UserID: uuid.New().String()},
			},
		}
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		payerID := uuid.New()
		exp, err := expense.NewExpense(uuid.New(), payerID, decimal.RequireFromString("120.00"), "USD",
			shared.SplitPolicyEqually, true, []expense.Participant{{UserID: payerID}, {UserID: uuid.New()}})
		require.NoError(t, err)
		exp.Revision = 2

		mockService.On("ReviseExpense", mock.Anything, exp.ID, mock.Anything, mock.Anything).Return(exp, nil)

		router := gin.Default()
		router.PUT("/expenses/:id", handler.Update)

		jsonBody, _ := json.Marshal(newUpdateBody(payerID))
		req, _ := http.NewRequest(http.MethodPut, "/expenses/"+exp.ID.String(), bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		data, ok := response.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, exp.ID.String(), data["expense_id"])
		assert.Equal(t, float64(2), data["revision"])

		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		expenseID := uuid.New()
		mockService.On("ReviseExpense", mock.Anything, expenseID, mock.Anything, mock.Anything).
			Return(nil, expense.ErrExpenseNotFound{ExpenseID: expenseID})

		router := gin.Default()
		router.PUT("/expenses/:id", handler.Update)

		jsonBody, _ := json.Marshal(newUpdateBody(uuid.New()))
		req, _ := http.NewRequest(http.MethodPut, "/expenses/"+expenseID.String(), bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("ConcurrentRevision", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		expenseID := uuid.New()
		mockService.On("ReviseExpense", mock.Anything, expenseID, mock.Anything, mock.Anything).
			Return(nil, expense.ErrConcurrentRevision{ExpenseID: expenseID})

		router := gin.Default()
		router.PUT("/expenses/:id", handler.Update)

		jsonBody, _ := json.Marshal(newUpdateBody(uuid.New()))
		req, _ := http.NewRequest(http.MethodPut, "/expenses/"+expenseID.String(), bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("DomainValidationError", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		expenseID := uuid.New()
		mockService.On("ReviseExpense", mock.Anything, expenseID, mock.Anything, mock.Anything).
			Return(nil, expense.ErrInvalidAmount)

		router := gin.Default()
		router.PUT("/expenses/:id", handler.Update)

		jsonBody, _ := json.Marshal(newUpdateBody(uuid.New()))
		req, _ := http.NewRequest(http.MethodPut, "/expenses/"+expenseID.String(), bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestExpenseHandler_GetByID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)

		payerID := uuid.New()
		other := uuid.New()
		exp, err := expense.NewExpense(uuid.New(), payerID, decimal.RequireFromString("50.00"), "USD",
			shared.SplitPolicyEqually, true, []expense.Participant{{UserID: payerID}, {UserID: other}})
		require.NoError(t, err)
		exp.Status = shared.ExpenseStatusProcessed
		exp.Participants[0].Share = decimal.RequireFromString("25.00")
		exp.Participants[1].Share = decimal.RequireFromString("25.00")

		mockService.On("GetExpenseByID", mock.Anything, exp.ID).Return(exp, nil)

		router := gin.Default()
		router.GET("/expenses/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/expenses/"+exp.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		dataBytes, err := json.Marshal(response.Data)
		require.NoError(t, err)
		var respBody ExpenseResponse
		require.NoError(t, json.Unmarshal(dataBytes, &respBody))

		assert.Equal(t, exp.ID.String(), respBody.ID)
		assert.Equal(t, "50.00", respBody.Amount)
		assert.Equal(t, "PROCESSED", respBody.Status)
		require.Len(t, respBody.Participants, 2)
		assert.Equal(t, "25.00", respBody.Participants[0].Share)

		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)
		expenseID := uuid.New()
		mockService.On("GetExpenseByID", mock.Anything, expenseID).Return(nil, nil)

		router := gin.Default()
		router.GET("/expenses/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/expenses/"+expenseID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockExpenseService)
		handler := NewExpenseHandler(logger, mockService)
		expenseID := uuid.New()
		mockService.On("GetExpenseByID", mock.Anything, expenseID).Return(nil, errors.New("db error"))

		router := gin.Default()
		router.GET("/expenses/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/expenses/"+expenseID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
