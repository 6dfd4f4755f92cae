package mailer

import (
	"fmt"
	"html"
	"strings"

	"idealab-be/internal/service"

	"gopkg.in/gomail.v2"
)

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, senderName, frontendURL string) service.StageMailer {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *emailService) SendStageChange(toEmail, fullName string, change service.StageChangeMail) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", Subject(change))
	m.SetBody("text/html", s.stageChangeBody(fullName, change))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send stage change email to %s: %w", toEmail, err)
	}
	return nil
}

// Subject reads the outcome first so terminal results stand out in an inbox.
func Subject(change service.StageChangeMail) string {
	switch change.NewStage {
	case "rejected":
		return fmt.Sprintf("Your idea \"%s\" was not accepted", change.Title)
	case "mvp":
		return fmt.Sprintf("Your idea \"%s\" reached MVP", change.Title)
	default:
		return fmt.Sprintf("Your idea \"%s\" moved to %s", change.Title, StageLabel(change.NewStage))
	}
}

// StageLabel turns a stage code into words, "basic_validation" -> "Basic Validation".
func StageLabel(stage string) string {
	if stage == "mvp" {
		return "MVP"
	}
	words := strings.Split(stage, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *emailService) stageChangeBody(fullName string, change service.StageChangeMail) string {
	link := fmt.Sprintf("%s/ideas/%s", s.frontendURL, change.IdeaID)

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p>Your idea <strong>%s</strong> moved from <strong>%s</strong> to <strong>%s</strong>.</p>
			<p>Reviewer comment:</p>
			<blockquote style="border-left: 3px solid #ccc; margin: 0; padding-left: 10px;">%s</blockquote>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; margin-top: 16px;">View idea</a>
		</div>
	`,
		html.EscapeString(fullName),
		html.EscapeString(change.Title),
		html.EscapeString(StageLabel(change.PreviousStage)),
		html.EscapeString(StageLabel(change.NewStage)),
		html.EscapeString(change.Comment),
		link,
	)
}
