// utils/email.go
package utils

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"unityshop-backend/models"
)

// EmailService sends transactional mail through SendGrid. Mail is a
// convenience channel: callers treat failures as best-effort.
type EmailService struct {
	client *sendgrid.Client
	sender string
}

// NewEmailService returns nil when SENDGRID_API_KEY is unset, so
// deployments without mail credentials still run.
func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return nil
	}
	return &EmailService{
		client: sendgrid.NewSendClient(apiKey),
		sender: os.Getenv("EMAIL_SENDER"),
	}
}

// Send delivers one email to a single recipient.
func (es *EmailService) Send(toEmail, subject, plainText, htmlContent string) error {
	from := mail.NewEmail("Unity Shop", es.sender)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	resp, err := es.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendOrderConfirmation mails the buyer after a completed payment.
func (es *EmailService) SendOrderConfirmation(toEmail string, order models.Order) error {
	subject := "Order Confirmation - Unity Shop"
	plain := fmt.Sprintf(
		"Dear %s,\n\nThank you for your purchase! Payment of $%.2f for %s was received and your order is being prepared by %s.\n\nThank you for shopping with Unity Shop!\n",
		order.CustomerName, order.AmountPaid, order.ProductName, order.SellerName,
	)
	html := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Payment of <strong>$%.2f</strong> for <strong>%s</strong> was received and your order is being prepared by %s.<br><br>Thank you for shopping with Unity Shop!",
		order.CustomerName, order.AmountPaid, order.ProductName, order.SellerName,
	)
	return es.Send(toEmail, subject, plain, html)
}
