package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendPaymentReceipt(toEmail, toName, projectTitle, invoiceNumber string, amountMinor int64, currency string) error
	SendProposalNotification(toEmail, toName, projectTitle string) error
	SendProjectCompleted(toEmail, toName, projectTitle string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendPaymentReceipt sends the entrepreneur a receipt for a captured payment
func (s *EmailServiceImpl) SendPaymentReceipt(toEmail, toName, projectTitle, invoiceNumber string, amountMinor int64, currency string) error {
	// If username or password is empty, log the receipt instead (development)
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("invoice", invoiceNumber).
			Int64("amountMinor", amountMinor).
			Msg("SMTP credentials not configured - receipt email not sent.")
		return nil
	}

	subject := fmt.Sprintf("Votre reçu Tiro - %s", invoiceNumber)
	amount := fmt.Sprintf("%.2f %s", float64(amountMinor)/100, currency)

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Paiement confirmé</h2>
				<p>Bonjour %s,</p>
				<p>Nous avons bien reçu votre paiement de <strong>%s</strong> pour le projet <strong>%s</strong>.</p>
				<p>Numéro de facture : <strong>%s</strong></p>
				<p>Votre étudiant peut maintenant commencer le travail. Vous pouvez suivre l'avancement depuis votre espace Tiro.</p>
				<p>Merci,<br>L'équipe Tiro</p>
			</div>
		</body>
		</html>
	`, toName, amount, projectTitle, invoiceNumber)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendProposalNotification tells a student they have been proposed for a project
func (s *EmailServiceImpl) SendProposalNotification(toEmail, toName, projectTitle string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("project", projectTitle).
			Msg("SMTP credentials not configured - proposal email not sent.")
		return nil
	}

	subject := "Un nouveau projet vous attend sur Tiro"

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Nouvelle proposition de projet</h2>
				<p>Bonjour %s,</p>
				<p>Vous avez été proposé pour le projet <strong>%s</strong>.</p>
				<p>Connectez-vous à votre espace Tiro pour accepter ou refuser la proposition.</p>
				<p>Merci,<br>L'équipe Tiro</p>
			</div>
		</body>
		</html>
	`, toName, projectTitle)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendProjectCompleted notifies the entrepreneur that their project is closed
func (s *EmailServiceImpl) SendProjectCompleted(toEmail, toName, projectTitle string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("project", projectTitle).
			Msg("SMTP credentials not configured - completion email not sent.")
		return nil
	}

	subject := fmt.Sprintf("Projet terminé - %s", projectTitle)

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Projet terminé</h2>
				<p>Bonjour %s,</p>
				<p>Votre projet <strong>%s</strong> est maintenant terminé.</p>
				<p>N'hésitez pas à laisser un avis sur votre étudiant depuis votre espace Tiro.</p>
				<p>Merci,<br>L'équipe Tiro</p>
			</div>
		</body>
		</html>
	`, toName, projectTitle)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth(
		"",
		s.config.Username,
		s.config.Password,
		s.config.Host,
	)

	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = toEmail
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + htmlBody

	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         s.config.Host,
		}

		conn, err := tls.Dial("tcp", serverAddress, tlsConfig)
		if err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to create SMTP client")
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Quit()

		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}

		if err = client.Mail(s.config.FromEmail); err != nil {
			return fmt.Errorf("failed to set sender: %w", err)
		}
		if err = client.Rcpt(toEmail); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("failed to get data writer: %w", err)
		}
		if _, err = w.Write([]byte(message)); err != nil {
			return fmt.Errorf("failed to write email message: %w", err)
		}
		if err = w.Close(); err != nil {
			return fmt.Errorf("failed to close data writer: %w", err)
		}

		return nil
	}

	err := smtp.SendMail(
		serverAddress,
		auth,
		s.config.FromEmail,
		[]string{toEmail},
		[]byte(message),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
