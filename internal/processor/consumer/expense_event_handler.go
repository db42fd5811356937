package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/messaging/producers"
	"github.com/bhanuka-viraj/nexsplit/internal/processor/service"
)

// ExpenseEventHandler handles incoming expense request messages from Kafka
type ExpenseEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewExpenseEventHandler creates a new handler
func NewExpenseEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *ExpenseEventHandler {
	return &ExpenseEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. Unparseable payloads go to the
// DLQ when one is configured; processing errors propagate so the offset is
// not committed and Kafka redelivers.
func (h *ExpenseEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ExpenseRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal expense request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				return nil
			}
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received expense request for processing",
		"request_id", request.RequestID.String(),
		"expense_id", request.ExpenseID.String(),
		"nex_id", request.NexID.String(),
		"kind", string(request.Kind),
	)

	if err := h.processingService.ProcessExpense(ctx, &request); err != nil {
		logger.Error("Failed to process expense request",
			"request_id", request.RequestID.String(),
			"expense_id", request.ExpenseID.String(),
			"error", err,
		)
		return fmt.Errorf("processing expense request %s failed: %w", request.RequestID.String(), err)
	}

	logger.Info("Successfully processed expense request", "request_id", request.RequestID.String())
	return nil
}
