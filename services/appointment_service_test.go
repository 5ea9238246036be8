package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"talktrack-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	all := []models.AppointmentStatus{models.StatusPending, models.StatusScheduled, models.StatusCancelled}
	allowed := map[[2]models.AppointmentStatus]bool{
		{models.StatusPending, models.StatusScheduled}:   true,
		{models.StatusPending, models.StatusCancelled}:   true,
		{models.StatusCancelled, models.StatusScheduled}: true,
		{models.StatusScheduled, models.StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]models.AppointmentStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
		assert.False(t, CanTransition(from, models.StatusPending), "pending is never re-entered")
	}
}

func TestStartSubmissionValidation(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)

	_, err := h.appointments.StartSubmission(context.Background(), form.ShareURL, VisitorDetails{
		Name: "Al", Email: "not-an-email", Phone: "12345",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "phone")

	var count int64
	h.db.Model(&models.UserDetails{}).Count(&count)
	assert.Zero(t, count)
}

func TestStartSubmissionRequiresPublishedForm(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	draft, err := h.forms.Create(context.Background(), owner, CreateFormInput{Name: "Draft form"})
	require.NoError(t, err)

	_, err = h.appointments.StartSubmission(context.Background(), draft.ShareURL, VisitorDetails{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "0803123456",
	})
	assert.ErrorIs(t, err, ErrFormNotPublished)

	_, err = h.appointments.StartSubmission(context.Background(), "missing", VisitorDetails{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "0803123456",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitCommitsAllRows(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)

	sub, err := h.appointments.Submit(context.Background(), form.ShareURL, details.Token, map[string]string{
		"name":    "Jane Doe",
		"service": "Facial",
		"bogus":   "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionValues{"name": "Jane Doe", "service": "Facial"}, sub.Content)

	var detailsCount, subCount, noteCount int64
	h.db.Model(&models.UserDetails{}).Count(&detailsCount)
	h.db.Model(&models.FormSubmission{}).Count(&subCount)
	h.db.Model(&models.Notification{}).Count(&noteCount)
	assert.EqualValues(t, 1, detailsCount)
	assert.EqualValues(t, 1, subCount)
	assert.EqualValues(t, 1, noteCount)

	var stored models.UserDetails
	require.NoError(t, h.db.First(&stored, details.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)

	var reloaded models.Form
	require.NoError(t, h.db.First(&reloaded, form.ID).Error)
	assert.Equal(t, 1, reloaded.Submissions)

	msgs := h.email.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "owner@example.com", msgs[0].To, "falls back to the owner login email")
	assert.Contains(t, msgs[0].HTML, "Jane Doe")
	assert.Contains(t, msgs[0].HTML, "<b>Service:</b> Facial")

	var logs []models.DeliveryLog
	require.NoError(t, h.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, KindNewSubmission, logs[0].Kind)
	assert.Equal(t, "sent", logs[0].Status)
}

func TestSubmitRejectsInvalidAnswersWithoutWrites(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)

	_, err := h.appointments.Submit(context.Background(), form.ShareURL, details.Token, map[string]string{
		"service": "Haircut",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This field is required", verr.Fields["name"])
	assert.Equal(t, "Invalid value", verr.Fields["service"])

	var subCount, noteCount int64
	h.db.Model(&models.FormSubmission{}).Count(&subCount)
	h.db.Model(&models.Notification{}).Count(&noteCount)
	assert.Zero(t, subCount)
	assert.Zero(t, noteCount)
	var reloaded models.Form
	require.NoError(t, h.db.First(&reloaded, form.ID).Error)
	assert.Zero(t, reloaded.Submissions)
	assert.Empty(t, h.email.messages())
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)
	answers := map[string]string{"name": "Jane Doe"}

	_, err := h.appointments.Submit(context.Background(), form.ShareURL, details.Token, answers)
	require.NoError(t, err)
	_, err = h.appointments.Submit(context.Background(), form.ShareURL, details.Token, answers)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	var reloaded models.Form
	require.NoError(t, h.db.First(&reloaded, form.ID).Error)
	assert.Equal(t, 1, reloaded.Submissions)
}

func TestSubmitClaimRejectsLateDuplicate(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)

	// Another request claimed the record but its rows are not visible yet.
	require.NoError(t, h.db.Model(&models.UserDetails{}).Where("id = ?", details.ID).
		Update("submitted_at", time.Now()).Error)

	_, err := h.appointments.Submit(context.Background(), form.ShareURL, details.Token, map[string]string{"name": "Jane Doe"})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	var subCount int64
	h.db.Model(&models.FormSubmission{}).Count(&subCount)
	assert.Zero(t, subCount)
	var reloaded models.Form
	require.NoError(t, h.db.First(&reloaded, form.ID).Error)
	assert.Zero(t, reloaded.Submissions)
}

func TestConcurrentSubmitsStoreOne(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)

	const n = 5
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.appointments.Submit(context.Background(), form.ShareURL, details.Token, map[string]string{"name": "Jane Doe"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	}
	assert.Equal(t, 1, ok)

	var subCount int64
	h.db.Model(&models.FormSubmission{}).Where("user_details_id = ?", details.ID).Count(&subCount)
	assert.EqualValues(t, 1, subCount)

	var stored models.UserDetails
	require.NoError(t, h.db.First(&stored, details.ID).Error)
	assert.NotNil(t, stored.SubmittedAt)
}

func TestSubmitRequiresVisitorToken(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	other := h.publishedForm(t, h.owner(t, "other@example.com"))
	details := h.visitor(t, form.ShareURL)
	second := h.visitor(t, form.ShareURL)
	ctx := context.Background()
	answers := map[string]string{"name": "Jane Doe"}

	_, err := uuid.Parse(details.Token)
	require.NoError(t, err)
	assert.NotEqual(t, details.Token, second.Token)

	for _, token := range []string{"", strconv.FormatUint(uint64(details.ID), 10), uuid.NewString()} {
		_, err := h.appointments.Submit(ctx, form.ShareURL, token, answers)
		assert.ErrorIs(t, err, ErrNotFound, "token %q", token)
	}
	_, err = h.appointments.Submit(ctx, other.ShareURL, details.Token, answers)
	assert.ErrorIs(t, err, ErrNotFound, "token is bound to its form")

	_, err = h.appointments.Submit(ctx, form.ShareURL, details.Token, answers)
	require.NoError(t, err)
	var stored models.UserDetails
	require.NoError(t, h.db.First(&stored, second.ID).Error)
	assert.Nil(t, stored.SubmittedAt, "other visitors are untouched")
}

func TestSubmitSurvivesEmailFailure(t *testing.T) {
	h := newHarness(t)
	h.email.err = errors.New("smtp down")
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)

	_, err := h.appointments.Submit(context.Background(), form.ShareURL, details.Token, map[string]string{"name": "Jane Doe"})
	require.NoError(t, err)

	var subCount int64
	h.db.Model(&models.FormSubmission{}).Count(&subCount)
	assert.EqualValues(t, 1, subCount)
}

func TestScheduleSendsOneEmailAndSurvivesFailure(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)
	h.email.err = errors.New("provider outage")

	updated, err := h.appointments.Schedule(context.Background(), owner, details.ID, "See you Monday at 10")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, updated.Status)

	var stored models.UserDetails
	require.NoError(t, h.db.First(&stored, details.ID).Error)
	assert.Equal(t, models.StatusScheduled, stored.Status, "failed email keeps the new status")

	msgs := h.email.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jane@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "See you Monday at 10")

	var log models.DeliveryLog
	require.NoError(t, h.db.Where("kind = ?", KindScheduled).First(&log).Error)
	assert.Equal(t, "failed", log.Status)
	assert.Contains(t, log.ErrorMessage, "provider outage")
	assert.Empty(t, h.sms.to, "sms is off unless the business enables it")
}

func TestCancelThenRescheduleWithSMS(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	require.NoError(t, h.db.Model(&models.Business{}).Where("user_id = ?", owner).Update("sms_notifications", true).Error)
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)
	ctx := context.Background()

	cancelled, err := h.appointments.Cancel(ctx, owner, details.ID, "Fully booked")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	_, err = h.appointments.Cancel(ctx, owner, details.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rescheduled, err := h.appointments.Schedule(ctx, owner, details.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, rescheduled.Status)

	_, err = h.appointments.Schedule(ctx, owner, details.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Len(t, h.email.messages(), 2)
	assert.Equal(t, []string{"0803123456", "0803123456"}, h.sms.to)
}

func TestTransitionsRequireOwnership(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	stranger := h.owner(t, "stranger@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)
	ctx := context.Background()

	_, err := h.appointments.Schedule(ctx, stranger, details.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.appointments.Schedule(ctx, uuid.Nil, details.ID, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, h.appointments.Delete(ctx, stranger, details.ID), ErrNotFound)
	_, err = h.appointments.Get(ctx, stranger, details.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var stored models.UserDetails
	require.NoError(t, h.db.First(&stored, details.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, h.email.messages())
}

func TestDeleteRemovesSubmissions(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	details := h.visitor(t, form.ShareURL)
	other := h.visitor(t, form.ShareURL)

	for i := 0; i < 2; i++ {
		require.NoError(t, h.db.Create(&models.FormSubmission{
			UserDetailsID: details.ID, FormID: form.ID, Content: models.SubmissionValues{"name": "Jane Doe"},
		}).Error)
	}
	require.NoError(t, h.db.Create(&models.FormSubmission{
		UserDetailsID: other.ID, FormID: form.ID, Content: models.SubmissionValues{"name": "Other"},
	}).Error)

	require.NoError(t, h.appointments.Delete(context.Background(), owner, details.ID))

	var orphans, remaining, detailsLeft int64
	h.db.Model(&models.FormSubmission{}).Where("user_details_id = ?", details.ID).Count(&orphans)
	h.db.Model(&models.FormSubmission{}).Count(&remaining)
	h.db.Model(&models.UserDetails{}).Where("id = ?", details.ID).Count(&detailsLeft)
	assert.Zero(t, orphans)
	assert.Zero(t, detailsLeft)
	assert.EqualValues(t, 1, remaining, "other records keep their submissions")

	assert.ErrorIs(t, h.appointments.Delete(context.Background(), owner, details.ID), ErrNotFound)
}

func TestListAndGetAppointments(t *testing.T) {
	h := newHarness(t)
	owner := h.owner(t, "owner@example.com")
	form := h.publishedForm(t, owner)
	first := h.visitor(t, form.ShareURL)
	h.visitor(t, form.ShareURL)
	ctx := context.Background()

	_, err := h.appointments.Submit(ctx, form.ShareURL, first.Token, map[string]string{"name": "Jane Doe", "service": "Massage"})
	require.NoError(t, err)
	_, err = h.appointments.Schedule(ctx, owner, first.ID, "")
	require.NoError(t, err)

	all, err := h.appointments.List(ctx, owner, AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Consultation", all[0].FormName)
	assert.Equal(t, form.ID, all[0].FormID)

	scheduled, err := h.appointments.List(ctx, owner, AppointmentFilter{ShareURL: form.ShareURL, Status: models.StatusScheduled})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, first.ID, scheduled[0].ID)

	stranger := h.owner(t, "stranger@example.com")
	none, err := h.appointments.List(ctx, stranger, AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	detail, err := h.appointments.Get(ctx, owner, first.ID)
	require.NoError(t, err)
	require.Len(t, detail.Submissions, 1)
	assert.Equal(t, "Massage", detail.Submissions[0].Content["service"])
	assert.Equal(t, "Full name", detail.Labels["name"])
}
