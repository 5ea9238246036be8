package services

import (
	"context"
	"time"

	"talktrack-backend/logging"
	"talktrack-backend/models"
	"talktrack-backend/notify"
	"talktrack-backend/utils"

	"gorm.io/gorm"
)

// DigestService reminds owners about appointments left pending too long.
type DigestService struct {
	db            *gorm.DB
	appointments  *AppointmentService
	dispatch      *Dispatcher
	olderThan     time.Duration
	publicBaseURL string
	logger        *logging.Logger
}

func NewDigestService(db *gorm.DB, appointments *AppointmentService, dispatch *Dispatcher, olderThan time.Duration, publicBaseURL string, logger *logging.Logger) *DigestService {
	if logger == nil {
		logger = logging.Default()
	}
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	return &DigestService{
		db:            db,
		appointments:  appointments,
		dispatch:      dispatch,
		olderThan:     olderThan,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

type pendingRow struct {
	ID         uint
	Name       string
	CreatedAt  time.Time
	FormName   string
	BusinessID uint
}

// Run emails one digest per business with stale pending appointments and
// reports how many digests were accepted by the provider.
func (s *DigestService) Run(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.olderThan)
	var rows []pendingRow
	err := s.db.WithContext(ctx).Model(&models.UserDetails{}).
		Select("user_details.id, user_details.name, user_details.created_at, forms.name AS form_name, forms.business_id").
		Joins("JOIN forms ON forms.share_url = user_details.form_share_url").
		Where("user_details.status = ? AND user_details.created_at < ?", models.StatusPending, cutoff).
		Order("forms.business_id, user_details.created_at").
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}

	byBusiness := map[uint][]notify.DigestItem{}
	var order []uint
	for _, r := range rows {
		if _, seen := byBusiness[r.BusinessID]; !seen {
			order = append(order, r.BusinessID)
		}
		byBusiness[r.BusinessID] = append(byBusiness[r.BusinessID], notify.DigestItem{
			Name:        r.Name,
			FormName:    r.FormName,
			SubmittedAt: r.CreatedAt,
			AgeDays:     utils.DaysBetween(r.CreatedAt.UTC(), now.UTC()),
		})
	}

	sent := 0
	for _, businessID := range order {
		var business models.Business
		if err := s.db.WithContext(ctx).First(&business, businessID).Error; err != nil {
			s.logger.Error("load business for digest", "error", err, "business_id", businessID)
			continue
		}
		to, err := s.appointments.ownerEmail(ctx, business)
		if err != nil {
			s.logger.Warn("no owner email for digest", "error", err, "business_id", businessID)
			continue
		}
		msg, err := notify.DigestEmail(to, notify.DigestData{
			BusinessName: business.Name,
			OlderThan:    s.olderThan.String(),
			Items:        byBusiness[businessID],
			DashboardURL: s.publicBaseURL + "/dashboard",
		})
		if err != nil {
			s.logger.Error("render digest email", "error", err)
			continue
		}
		if s.dispatch.Email(ctx, delivery{businessID: businessID, kind: KindDigest}, msg) {
			sent++
		}
	}
	s.logger.Info("pending digest finished", "businesses", len(order), "sent", sent, "appointments", len(rows))
	return sent, nil
}
