// Package mail sends transactional email over SMTP.
//
// The only message this app sends is the address-verification email. The
// AuthService depends on the Mailer interface (defined in the service
// package), so tests swap in a recorder instead of a real SMTP dialer.
package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer for the given relay.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendVerificationEmail sends the "verify your address" message.
// verifyURL is the full client-side link embedding the token.
func (m *SMTPMailer) SendVerificationEmail(to, firstName, verifyURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify Your Email - WalkOnSongs")
	msg.SetBody("text/html", verificationBody(firstName, verifyURL))

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: sending verification email: %w", err)
	}
	return nil
}

// verificationBody renders the HTML body. Inline styles because email
// clients strip <style> blocks.
func verificationBody(firstName, verifyURL string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to WalkOnSongs, %s!</h2>
  <p>Thank you for registering. Please verify your email address by clicking the button below:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Verify Email Address</a>
  </div>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <p><strong>This link will expire in 24 hours.</strong></p>
  <hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;">
  <p style="color: #666; font-size: 12px;">If you didn't create an account with WalkOnSongs, you can safely ignore this email.</p>
</div>`, firstName, verifyURL, verifyURL)
}
