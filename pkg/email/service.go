package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// EmailService handles sending emails via Resend API
type EmailService struct {
	apiKey    string
	fromEmail string
}

// NewEmailService creates a new email service instance
func NewEmailService() *EmailService {
	return &EmailService{
		apiKey:    os.Getenv("RESEND_API_KEY"),
		fromEmail: os.Getenv("EMAIL_FROM_ADDRESS"),
	}
}

// IsConfigured checks if the email service is properly configured
func (s *EmailService) IsConfigured() bool {
	return s.apiKey != "" && s.fromEmail != ""
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendEmail sends an email using Resend API
func (s *EmailService) SendEmail(to, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service not configured")
	}

	payload := sendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}

	return nil
}

// SendOTP sends a verification code for registration or password reset
func (s *EmailService) SendOTP(toEmail, name, otp, purpose string) error {
	action := "verify your email address"
	subject := "Your LedgerX verification code"
	if purpose == "reset" {
		action = "reset your password"
		subject = "Your LedgerX password reset code"
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
        <div style="background: linear-gradient(135deg, #0f766e 0%%, #14b8a6 100%%); border-radius: 16px 16px 0 0; padding: 32px; text-align: center;">
            <h1 style="color: white; margin: 0; font-size: 28px;">LedgerX</h1>
        </div>
        <div style="background: white; padding: 32px; border-radius: 0 0 16px 16px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
            <p style="color: #374151; font-size: 16px; margin-bottom: 24px;">
                Hi <strong>%s</strong>,
            </p>
            <p style="color: #374151; font-size: 16px; margin-bottom: 24px;">
                Use the code below to %s:
            </p>
            <div style="text-align: center; margin: 32px 0;">
                <span style="display: inline-block; background: #f3f4f6; color: #111827; letter-spacing: 8px; padding: 16px 32px; border-radius: 12px; font-weight: bold; font-size: 28px;">%s</span>
            </div>
            <p style="color: #6b7280; font-size: 14px;">
                This code expires in 10 minutes. If you did not request it, you can safely ignore this email.
            </p>
        </div>
    </div>
</body>
</html>
`, name, action, otp)

	return s.SendEmail(toEmail, subject, htmlBody)
}

// SendPasswordResetLink sends the link-based reset flow email
func (s *EmailService) SendPasswordResetLink(toEmail, name, token, frontendURL string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
        <div style="background: linear-gradient(135deg, #0f766e 0%%, #14b8a6 100%%); border-radius: 16px 16px 0 0; padding: 32px; text-align: center;">
            <h1 style="color: white; margin: 0; font-size: 28px;">LedgerX</h1>
        </div>
        <div style="background: white; padding: 32px; border-radius: 0 0 16px 16px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
            <p style="color: #374151; font-size: 16px; margin-bottom: 24px;">
                Hi <strong>%s</strong>,
            </p>
            <p style="color: #374151; font-size: 16px; margin-bottom: 24px;">
                We received a request to reset your LedgerX password.
            </p>
            <div style="text-align: center; margin: 32px 0;">
                <a href="%s" style="display: inline-block; background: linear-gradient(135deg, #0f766e 0%%, #14b8a6 100%%); color: white; text-decoration: none; padding: 16px 32px; border-radius: 12px; font-weight: bold; font-size: 16px;">
                    Reset Password
                </a>
            </div>
            <p style="color: #6b7280; font-size: 14px;">
                This link expires in 1 hour. If you did not request a reset, ignore this email and your password stays unchanged.
            </p>
        </div>
    </div>
</body>
</html>
`, name, resetLink)

	return s.SendEmail(toEmail, "Reset your LedgerX password", htmlBody)
}

// SendWelcome greets a newly verified shopkeeper
func (s *EmailService) SendWelcome(toEmail, ownerName, shopName string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
        <div style="background: linear-gradient(135deg, #0f766e 0%%, #14b8a6 100%%); border-radius: 16px 16px 0 0; padding: 32px; text-align: center;">
            <h1 style="color: white; margin: 0; font-size: 28px;">Welcome to LedgerX!</h1>
        </div>
        <div style="background: white; padding: 32px; border-radius: 0 0 16px 16px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
            <p style="color: #374151; font-size: 16px; margin-bottom: 24px;">
                Hi <strong>%s</strong>,
            </p>
            <p style="color: #374151; font-size: 16px; margin-bottom: 24px;">
                <strong>%s</strong> is ready. Add your products and credit customers, record sales and payments, and share each customer's ledger with a QR code.
            </p>
        </div>
    </div>
</body>
</html>
`, ownerName, shopName)

	return s.SendEmail(toEmail, "Welcome to LedgerX", htmlBody)
}
