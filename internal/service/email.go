package service

import (
	"context"
	"fmt"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
	holdTTL   time.Duration
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string, holdTTL time.Duration) EmailService {
	return &sendGridEmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		holdTTL:   holdTTL,
	}
}

func (s *sendGridEmailService) SendReservationNotification(ctx context.Context, res *domain.Reservation, event string) error {
	subject, intro := eventCopy(event, s.holdTTL)

	plainText := fmt.Sprintf(
		"Hi %s,\n\n%s\n\nConfirmation code: %s\nPickup: %s at %s\nReturn: %s at %s\nTotal: %s\n\nThank you for choosing us.",
		res.CustomerName, intro, res.ConfirmationCode,
		res.PickupDate.Format("2006-01-02"), res.PickupBranchCode,
		res.ReturnDate.Format("2006-01-02"), res.ReturnBranchCode,
		formatCents(res.TotalPriceCents),
	)
	htmlContent := fmt.Sprintf(
		`<p>Hi %s,</p><p>%s</p>
<table>
<tr><td>Confirmation code</td><td><strong>%s</strong></td></tr>
<tr><td>Pickup</td><td>%s at %s</td></tr>
<tr><td>Return</td><td>%s at %s</td></tr>
<tr><td>Total</td><td>%s</td></tr>
</table>
<p>Thank you for choosing us.</p>`,
		res.CustomerName, intro, res.ConfirmationCode,
		res.PickupDate.Format("2006-01-02"), res.PickupBranchCode,
		res.ReturnDate.Format("2006-01-02"), res.ReturnBranchCode,
		formatCents(res.TotalPriceCents),
	)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(res.CustomerName, res.CustomerEmail)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	logger.Info("Reservation notification sent",
		"reservation_id", res.ID, "event", event, "to", res.CustomerEmail)
	return nil
}

func eventCopy(event string, holdTTL time.Duration) (subject, intro string) {
	switch event {
	case emailEventConfirmed:
		return "Your car rental reservation is confirmed",
			"Your reservation has been confirmed. We look forward to seeing you at pickup."
	case emailEventCancelled:
		return "Your car rental reservation has been cancelled",
			"Your reservation has been cancelled. If this was a mistake, you can book again at any time."
	default:
		return "We received your car rental reservation",
			fmt.Sprintf("We received your reservation. Please confirm it within %d minutes to keep your hold on the car.",
				int(holdTTL.Minutes()))
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
