package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talktrack-backend/designer"
	"talktrack-backend/formschema"
	"talktrack-backend/models"
	"talktrack-backend/notify"
	"talktrack-backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
	err  error
}

func (f *fakeEmail) Send(_ context.Context, msg notify.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeEmail) messages() []notify.EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.EmailMessage(nil), f.sent...)
}

type fakeSMS struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	return f.err
}

type harness struct {
	db           *gorm.DB
	email        *fakeEmail
	sms          *fakeSMS
	auth         *AuthService
	business     *BusinessService
	forms        *FormService
	appointments *AppointmentService
	notes        *NotificationService
	stats        *StatsService
	digest       *DigestService
	designer     *DesignerService
	registry     *designer.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	email, sms := &fakeEmail{}, &fakeSMS{}
	registry := designer.NewRegistry(time.Minute)
	dispatch := NewDispatcher(db, email, sms, nil, nil)
	forms := NewFormService(db, registry, nil, nil)
	appointments := NewAppointmentService(db, forms, dispatch, "https://app.example.com", nil, nil)
	return &harness{
		db:           db,
		email:        email,
		sms:          sms,
		auth:         NewAuthService(db, "test-secret", 1, nil),
		business:     NewBusinessService(db, nil, nil),
		forms:        forms,
		appointments: appointments,
		notes:        NewNotificationService(db),
		stats:        NewStatsService(db),
		digest:       NewDigestService(db, appointments, dispatch, 24*time.Hour, "https://app.example.com", nil),
		designer:     NewDesignerService(forms, registry, nil, nil),
		registry:     registry,
	}
}

// owner registers a user with a business and returns the user id.
func (h *harness) owner(t *testing.T, email string) uuid.UUID {
	t.Helper()
	user, _, err := h.auth.Register(context.Background(), RegisterInput{Name: "Owner", Email: email, Password: "password123"})
	require.NoError(t, err)
	_, err = h.business.Create(context.Background(), user.ID, BusinessInput{Name: "Acme Studio"})
	require.NoError(t, err)
	return user.ID
}

func mustElement(t *testing.T, typ formschema.ElementType, id string, patch string) formschema.Element {
	t.Helper()
	el, err := formschema.Construct(typ, id)
	require.NoError(t, err)
	if patch != "" {
		el, err = formschema.MergeAttributes(el, []byte(patch))
		require.NoError(t, err)
	}
	return el
}

// publishedForm creates a published form with a required text field "name"
// and a select field "service".
func (h *harness) publishedForm(t *testing.T, owner uuid.UUID) *models.Form {
	t.Helper()
	ctx := context.Background()
	form, err := h.forms.Create(ctx, owner, CreateFormInput{Name: "Consultation"})
	require.NoError(t, err)
	content, err := formschema.Serialize([]formschema.Element{
		mustElement(t, formschema.TextField, "name", `{"label":"Full name","required":true}`),
		mustElement(t, formschema.SelectField, "service", `{"label":"Service","options":["Massage","Facial"]}`),
	})
	require.NoError(t, err)
	_, err = h.forms.UpdateContent(ctx, owner, form.ID, content)
	require.NoError(t, err)
	form, err = h.forms.Publish(ctx, owner, form.ID)
	require.NoError(t, err)
	return form
}

func (h *harness) visitor(t *testing.T, shareURL string) *models.UserDetails {
	t.Helper()
	d, err := h.appointments.StartSubmission(context.Background(), shareURL, VisitorDetails{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "0803123456",
	})
	require.NoError(t, err)
	return d
}

func isValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
