package tools

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/agentic-rag/server/internal/agent/model"
	"github.com/agentic-rag/server/pkg/mail"
	logx "github.com/agentic-rag/server/pkg/logger"
)

//go:embed template/confirmation_email.txt
var confirmationEmailTemplate string

// BookingTool composes an interview confirmation message and attempts
// delivery via the mail transport. Delivery failure is part of the tool's
// normal output vocabulary: it is reported as a string carrying the
// "Failed" marker that downstream postprocessing inspects, never as an
// error. The booking record itself is persisted earlier, by the classifier.
type BookingTool struct {
	sender  mail.Sender
	from    string
	subject string
}

func NewBookingTool(sender mail.Sender, cfg model.BookingConfig) *BookingTool {
	return &BookingTool{
		sender:  sender,
		from:    cfg.FromAddress,
		subject: cfg.Subject,
	}
}

func (t *BookingTool) Book(ctx context.Context, in model.BookingAction) string {
	body := renderConfirmationEmail(in)

	if err := t.sender.Send(ctx, t.from, in.ReceiverEmail, t.subject, body); err != nil {
		logx.Error().Err(err).Str("receiver", in.ReceiverEmail).Msg("Failed to send confirmation email")
		return fmt.Sprintf("Failed to send confirmation email: %v", err)
	}

	logx.Info().Str("receiver", in.ReceiverEmail).Str("date", in.AppointmentDate).Msg("Confirmation email sent")
	return fmt.Sprintf("Confirmation email sent to %s", in.ReceiverEmail)
}

func renderConfirmationEmail(in model.BookingAction) string {
	appointmentTime := strings.TrimSpace(in.AppointmentTime)
	if appointmentTime == "" {
		appointmentTime = "a time to be confirmed"
	}
	return strings.NewReplacer(
		"{user_name}", in.UserName,
		"{appointment_date}", in.AppointmentDate,
		"{appointment_time}", appointmentTime,
	).Replace(confirmationEmailTemplate)
}
