package delivery

import (
	"context"

	"github.com/backoffice/backend/internal/application/fulfillment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoggingGateway is a placeholder delivery integration. It records every
// intake request in the log so operations can schedule the delivery by
// hand until the real carrier integration lands.
type LoggingGateway struct {
	logger *zap.Logger
}

// NewLoggingGateway creates a delivery gateway that only logs
func NewLoggingGateway(logger *zap.Logger) *LoggingGateway {
	return &LoggingGateway{logger: logger.Named("delivery")}
}

// ScheduleIntake logs the delivery request and reports success
func (g *LoggingGateway) ScheduleIntake(ctx context.Context, invoiceID, orderID uuid.UUID, address string) error {
	g.logger.Info("Delivery intake requested",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("address", address),
	)
	return nil
}

// Ensure LoggingGateway implements the application gateway
var _ fulfillment.DeliveryGateway = (*LoggingGateway)(nil)
