// internal/app/digest_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"mrr_analytics/internal/domain/analytics"
	"mrr_analytics/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// DigestService sends the monthly analytics digest to the admin chat.
type DigestService struct {
	computer     ReportComputer
	client       telegram.Client
	adminChatID  int64
	windowMonths int
	now          func() time.Time
	logger       logrus.FieldLogger
}

func NewDigestService(
	computer ReportComputer,
	client telegram.Client,
	adminChatID int64,
	windowMonths int,
	logger logrus.FieldLogger,
) *DigestService {
	return &DigestService{
		computer:     computer,
		client:       client,
		adminChatID:  adminChatID,
		windowMonths: windowMonths,
		now:          time.Now,
		logger:       logger,
	}
}

// DigestRange is the window covered by a digest sent at now: the last
// windowMonths complete months.
func DigestRange(now time.Time, windowMonths int) analytics.Range {
	return analytics.WindowEndingAt(analytics.MonthOf(now).AddMonths(-1), windowMonths)
}

// SendMonthlyDigest computes the digest window and sends it to the admin.
func (s *DigestService) SendMonthlyDigest(ctx context.Context) error {
	r := DigestRange(s.now(), s.windowMonths)
	log := s.logger.WithFields(logrus.Fields{"range": r.String(), "chat_id": s.adminChatID})

	report, err := s.computer.Compute(ctx, r)
	if err != nil {
		log.WithError(err).Error("Failed to compute digest")
		return fmt.Errorf("failed to compute digest for %s: %w", r, err)
	}
	if err := s.client.SendText(s.adminChatID, FormatDigest(report)); err != nil {
		log.WithError(err).Error("Failed to send digest")
		return fmt.Errorf("failed to send digest: %w", err)
	}
	log.Info("Monthly digest sent")
	return nil
}
