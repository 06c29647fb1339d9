// Package notifier отвечает за отправку транзакционных писем пользователям.
//
// Отправка всегда best-effort: одна попытка, без ретраев; любая ошибка
// логируется вызывающей стороной и никогда не влияет на результат запроса.
package notifier

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/otcpublishing/writing-detector/internal/lib/sl"
	"github.com/otcpublishing/writing-detector/internal/lib/smtp"
	"github.com/otcpublishing/writing-detector/internal/models"
)

// Service отправляет письма через SMTP транспорт.
type Service struct {
	transport smtp.TransportInterface
	fromName  string
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, fromName string, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		fromName:  fromName,
		log:       log,
	}
}

// SendWelcomeEmail отправляет приветственное письмо новому пользователю
// с информацией о начавшемся пробном периоде.
func (s *Service) SendWelcomeEmail(user models.User) error {
	htmlBody, textBody := welcomeEmail(user)
	return s.sendEmail(
		[]string{user.Email},
		"Welcome to AI Writing Detector - Your Free Trial Started!",
		htmlBody, textBody,
	)
}

func (s *Service) sendEmail(to []string, subject, htmlBody, textBody string) error {
	const boundary = "=_writing_detector_alt"

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.fromName, s.transport.GetSMTPUser()),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q", boundary),
		"",
		"--" + boundary,
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		textBody,
		"--" + boundary,
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
		"--" + boundary + "--",
		"",
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
