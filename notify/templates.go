package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Answer is one labelled value shown in a new-submission email.
type Answer struct {
	Label string
	Value string
}

type NewSubmissionData struct {
	BusinessName   string
	SubmitterName  string
	FormName       string
	Answers        []Answer
	AppointmentURL string
}

// NewSubmissionEmail tells the business owner a visitor completed a form.
func NewSubmissionEmail(to string, d NewSubmissionData) (EmailMessage, error) {
	html, err := execute("new_submission", d)
	if err != nil {
		return EmailMessage{}, err
	}
	var body strings.Builder
	fmt.Fprintf(&body, "New appointment submission from %s on %s.\n", d.SubmitterName, d.FormName)
	for _, a := range d.Answers {
		fmt.Fprintf(&body, "%s: %s\n", a.Label, a.Value)
	}
	if d.AppointmentURL != "" {
		fmt.Fprintf(&body, "\nView it at %s\n", d.AppointmentURL)
	}
	return EmailMessage{
		To:      to,
		ToName:  d.BusinessName,
		Subject: "New Appointment Submission",
		Body:    body.String(),
		HTML:    html,
	}, nil
}

type StatusChangeData struct {
	SubmitterName     string
	BusinessName      string
	FormName          string
	Status            string // Scheduled or Cancelled
	AdditionalMessage string
}

func (d StatusChangeData) Scheduled() bool { return d.Status == "Scheduled" }

// StatusChangeEmail tells the submitter their appointment was decided.
func StatusChangeEmail(to string, d StatusChangeData) (EmailMessage, error) {
	html, err := execute("status_change", d)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      to,
		ToName:  d.SubmitterName,
		Subject: fmt.Sprintf("Your Appointment Has Been %s", d.Status),
		Body:    StatusChangeSMS(d),
		HTML:    html,
	}, nil
}

// StatusChangeSMS is the short text version of a status change.
func StatusChangeSMS(d StatusChangeData) string {
	msg := fmt.Sprintf("Hi %s, your appointment with %s (%s) has been %s.", d.SubmitterName, d.BusinessName, d.FormName, strings.ToLower(d.Status))
	if d.AdditionalMessage != "" {
		msg += " " + d.AdditionalMessage
	}
	return msg
}

type DigestItem struct {
	Name        string
	FormName    string
	SubmittedAt time.Time
	AgeDays     int
}

type DigestData struct {
	BusinessName string
	OlderThan    string
	Items        []DigestItem
	DashboardURL string
}

// DigestEmail reminds an owner of appointments still pending.
func DigestEmail(to string, d DigestData) (EmailMessage, error) {
	html, err := execute("digest", d)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      to,
		ToName:  d.BusinessName,
		Subject: fmt.Sprintf("%d pending appointment request(s)", len(d.Items)),
		Body:    fmt.Sprintf("You have %d appointment request(s) waiting for a decision.", len(d.Items)),
		HTML:    html,
	}, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}
