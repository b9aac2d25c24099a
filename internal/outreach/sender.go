package outreach

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/sendgrid"
)

// EmailLogger records the outcome of outreach sends. Implemented by the
// store; nil disables logging.
type EmailLogger interface {
	LogEmail(ctx context.Context, log model.EmailLog) error
}

// Sender runs the full outreach pipeline for one recipient: generate the
// copy, deliver it, record the outcome.
type Sender struct {
	generator *Generator
	mail      sendgrid.Client
	fromEmail string
	fromName  string
	logger    EmailLogger
}

// NewSender creates a Sender. logger may be nil.
func NewSender(generator *Generator, mail sendgrid.Client, fromEmail, fromName string, logger EmailLogger) *Sender {
	return &Sender{
		generator: generator,
		mail:      mail,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// Send generates a personalized email for req and delivers it. A failed
// generation aborts before any delivery attempt.
func (s *Sender) Send(ctx context.Context, req model.EmailRequest) (*model.EmailResult, error) {
	if req.Recipient == "" {
		return nil, eris.New("outreach: recipient is required")
	}

	email, err := s.generator.Generate(ctx, req.ProfileText, req.ProductGoal)
	if err != nil {
		s.logOutcome(ctx, req, "", false, err)
		return nil, err
	}

	result := &model.EmailResult{
		Recipient: req.Recipient,
		Subject:   email.Subject,
		BodyHTML:  email.BodyHTML,
	}

	if err := s.mail.Send(ctx, sendgrid.Message{
		FromEmail: s.fromEmail,
		FromName:  s.fromName,
		ToEmail:   req.Recipient,
		ToName:    req.RecipientName,
		Subject:   email.Subject,
		HTMLBody:  email.BodyHTML,
	}); err != nil {
		s.logOutcome(ctx, req, email.Subject, false, err)
		return result, eris.Wrap(err, "outreach: deliver email")
	}

	result.Sent = true
	s.logOutcome(ctx, req, email.Subject, true, nil)

	zap.L().Info("outreach email sent",
		zap.String("recipient", req.Recipient),
		zap.String("company", req.CompanyName),
		zap.String("subject", email.Subject),
	)

	return result, nil
}

// Preview generates the email copy without delivering it.
func (s *Sender) Preview(ctx context.Context, req model.EmailRequest) (*model.EmailResult, error) {
	email, err := s.generator.Generate(ctx, req.ProfileText, req.ProductGoal)
	if err != nil {
		return nil, err
	}
	return &model.EmailResult{
		Recipient: req.Recipient,
		Subject:   email.Subject,
		BodyHTML:  email.BodyHTML,
	}, nil
}

func (s *Sender) logOutcome(ctx context.Context, req model.EmailRequest, subject string, sent bool, cause error) {
	if s.logger == nil {
		return
	}

	log := model.EmailLog{
		Recipient: req.Recipient,
		Company:   req.CompanyName,
		Subject:   subject,
		Sent:      sent,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		log.Error = cause.Error()
	}

	if err := s.logger.LogEmail(ctx, log); err != nil {
		zap.L().Warn("failed to record email log", zap.Error(err))
	}
}
