package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

// DeliveryGateway notifies the delivery system that an approved order
// needs a physical delivery scheduled. It is consulted after the
// approval transaction commits; failures are logged and never unwind
// the approval.
type DeliveryGateway interface {
	ScheduleIntake(ctx context.Context, invoiceID, orderID uuid.UUID, address string) error
}
