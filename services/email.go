package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"

	"legal_diary/config"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers emails
type Mailer interface {
	Send(email *Email) error
}

// ResendMailer sends through the Resend API, or logs to the console when
// EmailTestMode is on
type ResendMailer struct {
	cfg    *config.Config
	client *resend.Client
}

func NewResendMailer(cfg *config.Config) *ResendMailer {
	m := &ResendMailer{cfg: cfg}
	if cfg.ResendAPIKey != "" {
		m.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return m
}

// Send sends an email using Resend API
func (m *ResendMailer) Send(email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	if m.cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}
	if m.client == nil {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.cfg.EmailFromName, m.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("[EMAIL] Sent via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 60)
	log.Printf("\n%s\n[EMAIL] Test mode, not sent\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n%s\n%s", email.TextBody, separator)
}

// HearingReminderData fills the hearing reminder email
type HearingReminderData struct {
	RecipientName string
	CaseNumber    string
	CaseTitle     string
	CourtName     string
	CourtRoom     string
	HearingDate   string
	HearingTime   string
	HearingType   string
	DayLabel      string
}

var hearingReminderHTML = template.Must(template.New("hearing_reminder").Parse(`<p>Dear {{.RecipientName}},</p>
<p>This is a reminder of the hearing in <strong>{{.CaseNumber}}</strong> ({{.CaseTitle}}).</p>
<ul>
<li>Date: {{.HearingDate}}{{if .HearingTime}} at {{.HearingTime}}{{end}}</li>
{{if .CourtName}}<li>Court: {{.CourtName}}{{if .CourtRoom}}, {{.CourtRoom}}{{end}}</li>{{end}}
<li>Type: {{.HearingType}}</li>
</ul>
{{if .DayLabel}}<p><em>Note: the court calendar marks this day as {{.DayLabel}}.</em></p>{{end}}
`))

// BuildHearingReminderEmail creates the day-before reminder for one recipient
func BuildHearingReminderEmail(to string, data HearingReminderData) (*Email, error) {
	var html bytes.Buffer
	if err := hearingReminderHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render reminder email: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\nReminder: hearing in %s (%s)\n", data.RecipientName, data.CaseNumber, data.CaseTitle)
	fmt.Fprintf(&text, "Date: %s", data.HearingDate)
	if data.HearingTime != "" {
		fmt.Fprintf(&text, " at %s", data.HearingTime)
	}
	text.WriteString("\n")
	if data.CourtName != "" {
		fmt.Fprintf(&text, "Court: %s", data.CourtName)
		if data.CourtRoom != "" {
			fmt.Fprintf(&text, ", %s", data.CourtRoom)
		}
		text.WriteString("\n")
	}
	fmt.Fprintf(&text, "Type: %s\n", data.HearingType)
	if data.DayLabel != "" {
		fmt.Fprintf(&text, "Note: the court calendar marks this day as %s.\n", data.DayLabel)
	}

	return &Email{
		To:       []string{to},
		Subject:  fmt.Sprintf("Hearing reminder: %s on %s", data.CaseNumber, data.HearingDate),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}
