package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/events"
	"github.com/jafarshop/returnsapi/internal/repository"
)

// lifecycle applies status changes and writes their audit trail
type lifecycle struct {
	repos     *repository.Repositories
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// transition moves req to the next status. mutate stamps the fields that go with
// the move. The write only succeeds if the stored status is still the one read.
func (l *lifecycle) transition(
	ctx context.Context,
	req *domain.ReturnRequest,
	to domain.ReturnStatus,
	actor string,
	notes *string,
	mutate func(r *domain.ReturnRequest, now time.Time),
) error {
	from := req.Status
	if err := domain.Transition(from, to); err != nil {
		return err
	}

	now := l.now().UTC()
	updated := *req
	updated.Status = to
	updated.UpdatedAt = now
	if mutate != nil {
		mutate(&updated, now)
	}

	if err := l.repos.ReturnRequest.Update(ctx, &updated, from); err != nil {
		return err
	}
	*req = updated

	l.recordStatusChange(ctx, req, &from, actor, notes)
	return nil
}

// recordStatusChange writes the history row and publishes the event.
// Neither failure undoes a committed status change.
func (l *lifecycle) recordStatusChange(
	ctx context.Context,
	req *domain.ReturnRequest,
	from *domain.ReturnStatus,
	actor string,
	notes *string,
) {
	l.writeHistory(ctx, req, from, actor, notes)

	eventType := events.TypeReturnStatusChanged
	fromStatus := ""
	if from == nil {
		eventType = events.TypeReturnCreated
	} else {
		fromStatus = string(*from)
	}

	if err := l.publisher.Publish(ctx, events.ReturnEvent{
		Type:            eventType,
		ReturnRequestID: req.ID,
		ReturnNumber:    req.ReturnNumber,
		OrderID:         req.OrderID,
		CustomerID:      req.CustomerID,
		FromStatus:      fromStatus,
		ToStatus:        string(req.Status),
		Actor:           actor,
		OccurredAt:      req.UpdatedAt,
	}); err != nil {
		l.logger.Warn("Failed to publish return event",
			zap.String("return_number", req.ReturnNumber),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

func (l *lifecycle) writeHistory(
	ctx context.Context,
	req *domain.ReturnRequest,
	from *domain.ReturnStatus,
	actor string,
	notes *string,
) {
	entry := &domain.StatusHistory{
		ReturnRequestID: req.ID,
		FromStatus:      from,
		ToStatus:        req.Status,
		ChangedBy:       actor,
		Notes:           notes,
		CreatedAt:       l.now().UTC(),
	}
	if err := l.repos.StatusHistory.Create(ctx, entry); err != nil {
		l.logger.Error("Failed to write status history",
			zap.String("return_number", req.ReturnNumber),
			zap.String("to_status", string(req.Status)),
			zap.Error(err),
		)
	}
}

func stringRef(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
