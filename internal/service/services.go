package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/config"
	"github.com/jafarshop/returnsapi/internal/events"
	"github.com/jafarshop/returnsapi/internal/mailer"
	"github.com/jafarshop/returnsapi/internal/repository"
)

// Services bundles everything the HTTP handlers call
type Services struct {
	Eligibility   *EligibilityService
	Returns       *ReturnService
	Inspection    *InspectionService
	Refunds       *RefundService
	Notifications *NotificationService
}

// NewServices wires the services around one set of repositories and collaborators
func NewServices(
	cfg *config.Config,
	repos *repository.Repositories,
	gateway RefundGateway,
	m mailer.Mailer,
	publisher events.Publisher,
	logger *zap.Logger,
) *Services {
	return newServices(cfg, repos, gateway, m, publisher, logger, time.Now)
}

func newServices(
	cfg *config.Config,
	repos *repository.Repositories,
	gateway RefundGateway,
	m mailer.Mailer,
	publisher events.Publisher,
	logger *zap.Logger,
	now func() time.Time,
) *Services {
	lc := &lifecycle{
		repos:     repos,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}

	eligibility := NewEligibilityService(repos, cfg.Returns.WindowDays, logger)
	eligibility.now = now

	return &Services{
		Eligibility:   eligibility,
		Returns:       newReturnService(repos, eligibility, lc, logger),
		Inspection:    newInspectionService(repos, lc, logger),
		Refunds:       newRefundService(repos, gateway, lc, logger),
		Notifications: NewNotificationService(repos, m, cfg.Returns, logger),
	}
}
