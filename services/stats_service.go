package services

import (
	"context"

	"talktrack-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stats is the dashboard summary. Rates are percentages.
type Stats struct {
	Visits         int64   `json:"visits"`
	Submissions    int64   `json:"submissions"`
	SubmissionRate float64 `json:"submissionRate"`
	BounceRate     float64 `json:"bounceRate"`

	Appointments int64 `json:"appointments"`
	Pending      int64 `json:"pending"`
	Scheduled    int64 `json:"scheduled"`
	Cancelled    int64 `json:"cancelled"`

	Forms          int64 `json:"forms"`
	PublishedForms int64 `json:"publishedForms"`
}

// Rate is part/whole as a percentage, or 0 when whole is 0.
func Rate(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Overview sums every form the owner has.
func (s *StatsService) Overview(ctx context.Context, owner uuid.UUID) (*Stats, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.compute(ctx, owner, "")
}

// ForForm scopes the summary to one of the owner's forms.
func (s *StatsService) ForForm(ctx context.Context, owner uuid.UUID, shareURL string) (*Stats, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Form{}).
		Where("share_url = ? AND user_id = ?", shareURL, owner).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return s.compute(ctx, owner, shareURL)
}

func (s *StatsService) compute(ctx context.Context, owner uuid.UUID, shareURL string) (*Stats, error) {
	db := s.db.WithContext(ctx)
	forms := func() *gorm.DB {
		q := db.Model(&models.Form{}).Where("user_id = ?", owner)
		if shareURL != "" {
			q = q.Where("share_url = ?", shareURL)
		}
		return q
	}

	var st Stats
	var totals struct {
		Visits      int64
		Submissions int64
	}
	if err := forms().Select("COALESCE(SUM(total_appointments), 0) AS visits, COALESCE(SUM(submissions), 0) AS submissions").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	st.Visits, st.Submissions = totals.Visits, totals.Submissions

	if err := forms().Count(&st.Forms).Error; err != nil {
		return nil, err
	}
	if err := forms().Where("published = ?", true).Count(&st.PublishedForms).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status models.AppointmentStatus
		Count  int64
	}
	q := db.Model(&models.UserDetails{}).Scopes(owned(owner))
	if shareURL != "" {
		q = q.Where("user_details.form_share_url = ?", shareURL)
	}
	if err := q.Select("user_details.status AS status, COUNT(*) AS count").
		Group("user_details.status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		switch row.Status {
		case models.StatusPending:
			st.Pending = row.Count
		case models.StatusScheduled:
			st.Scheduled = row.Count
		case models.StatusCancelled:
			st.Cancelled = row.Count
		}
		st.Appointments += row.Count
	}

	st.SubmissionRate = Rate(st.Submissions, st.Visits)
	st.BounceRate = max(0, Rate(st.Visits-st.Submissions, st.Visits))
	return &st, nil
}
