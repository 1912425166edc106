package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"paybridge/pkg/payment"

	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailService sends order emails through Resend. With no API key it is a no-op.
type EmailService struct {
	emails     emailSender
	from       string
	adminEmail string
	log        *zap.Logger
}

func NewEmailService(apiKey, from, adminEmail string, log *zap.Logger) *EmailService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &EmailService{from: from, adminEmail: adminEmail, log: log}
	if apiKey != "" {
		s.emails = resend.NewClient(apiKey).Emails
	}
	return s
}

var (
	customerTmpl = template.Must(template.New("customer").Parse(`<h2>Thank you{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Your payment for order <strong>{{.OrderID}}</strong> was successful.</p>
<p>Amount paid: <strong>&#8377;{{.Amount}}</strong></p>
{{if .TransactionID}}<p>Transaction reference: {{.TransactionID}}</p>{{end}}
{{if .Points}}<p>You earned {{.Points}} reward points with this order.</p>{{end}}`))

	adminTmpl = template.Must(template.New("admin").Parse(`<h2>New paid order</h2>
<table>
<tr><td>Order</td><td>{{.OrderID}}</td></tr>
<tr><td>Amount</td><td>&#8377;{{.Amount}}</td></tr>
<tr><td>Status</td><td>{{.Status}}</td></tr>
<tr><td>Source</td><td>{{.Source}}</td></tr>
{{if .Email}}<tr><td>Customer</td><td>{{.Name}} &lt;{{.Email}}&gt; {{.Phone}}</td></tr>{{end}}
<tr><td>Verified at</td><td>{{.VerifiedAt}}</td></tr>
</table>`))
)

type emailView struct {
	OrderID       string
	Amount        string
	Status        string
	Source        string
	TransactionID string
	Name          string
	Email         string
	Phone         string
	VerifiedAt    string
	Points        int64
}

func newEmailView(o PaidOrder) emailView {
	v := emailView{
		OrderID:       o.OrderID,
		Amount:        FormatMinor(o.AmountMinor),
		Status:        o.Status,
		Source:        o.Source,
		TransactionID: o.TransactionID,
		Name:          o.Customer.Name,
		Email:         o.Customer.Email,
		Phone:         o.Customer.Phone,
		Points:        o.PointsEarned,
	}
	if !o.VerifiedAt.IsZero() {
		v.VerifiedAt = o.VerifiedAt.UTC().Format("2006-01-02 15:04:05 MST")
	}
	return v
}

// FormatMinor renders minor units as a major-unit amount with two decimals.
func FormatMinor(amountMinor int64) string {
	return decimal.New(amountMinor, -2).StringFixed(2)
}

func (s *EmailService) SendCustomerConfirmation(ctx context.Context, o PaidOrder) error {
	if s.emails == nil || o.Customer.Email == "" {
		return nil
	}
	return s.send(ctx, "customer_email", o.Customer.Email, fmt.Sprintf("Payment received for order %s", o.OrderID), customerTmpl, newEmailView(o))
}

func (s *EmailService) SendAdminNotification(ctx context.Context, o PaidOrder) error {
	if s.emails == nil || s.adminEmail == "" {
		return nil
	}
	return s.send(ctx, "admin_email", s.adminEmail, fmt.Sprintf("New order %s: Rs %s", o.OrderID, FormatMinor(o.AmountMinor)), adminTmpl, newEmailView(o))
}

func (s *EmailService) send(ctx context.Context, op, to, subject string, tmpl *template.Template, data emailView) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	resp, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    buf.String(),
	})
	if err != nil {
		return payment.NewError(payment.KindNotification, "email."+op, "resend send failed", nil, err)
	}
	s.log.Info("email sent", zap.String("op", op), zap.String("order_id", data.OrderID), zap.String("email_id", resp.Id))
	return nil
}
