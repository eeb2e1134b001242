// Package campaign implements the sequential bulk-send loop: render a
// message per contact, attempt delivery, isolate each contact's failure,
// pace sends with a fixed delay and accumulate an ordered result.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theidealshukla/ColdMailBot-api/mailer"
	"github.com/theidealshukla/ColdMailBot-api/models"
	"github.com/theidealshukla/ColdMailBot-api/template"
)

// Campaign describes one send request after validation.
type Campaign struct {
	ID             string
	Contacts       []models.Contact
	Template       models.Template
	SenderEmail    string
	AttachmentPath string
	Transport      mailer.Transport
	Sink           Sink // nil means buffered mode, no incremental events
}

// Option customizes a Runner, mainly for tests.
type Option func(*Runner)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSleeper replaces the inter-send wait.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// Runner drives campaigns. It holds no per-campaign state, so one Runner
// serves concurrent requests.
type Runner struct {
	logger zerolog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRunner(logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one campaign. Sends are strictly sequential in input order; a
// single contact's delivery failure is recorded and never aborts the loop.
// A transport verification failure aborts the whole campaign with zero sends
// attempted. Context cancellation finalizes whatever partial result exists
// and returns it alongside a fatal error.
func (r *Runner) Run(ctx context.Context, c Campaign) (*models.CampaignResult, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	logger := r.logger.With().Str("campaign_id", c.ID).Int("total", len(c.Contacts)).Logger()

	if err := c.Transport.Verify(ctx); err != nil {
		logger.Warn().Err(err).Msg("transport verification failed")
		return nil, err
	}

	result := &models.CampaignResult{
		ID:               c.ID,
		Total:            len(c.Contacts),
		FailedRecipients: []string{},
		Outcomes:         make([]models.SendOutcome, 0, len(c.Contacts)),
		StartedAt:        r.now(),
	}

	r.emit(logger, c.Sink, Event{
		Type:       EventConnected,
		CampaignID: c.ID,
		Total:      result.Total,
	})

	delay := time.Duration(c.Template.DelaySeconds) * time.Second

	for i, contact := range c.Contacts {
		if err := ctx.Err(); err != nil {
			return r.finalize(logger, c, result, err)
		}

		vars := template.Vars{
			HRName:      contact.Name,
			Company:     contact.Company,
			SenderName:  c.Template.SenderName,
			SenderEmail: c.SenderEmail,
		}
		subject := template.Render(c.Template.Subject, vars)
		body := template.Render(c.Template.Body, vars)

		// Emitted before the attempt so consumers see "about to attempt".
		r.emit(logger, c.Sink, Event{
			Type:       EventProgress,
			CampaignID: c.ID,
			Contact:    &contact,
			Position:   i + 1,
			Total:      result.Total,
			Success:    result.Success,
			Fail:       result.Fail,
		})

		msg := &mailer.Message{
			From:           fromHeader(c.Template.SenderName, c.SenderEmail),
			To:             contact.Email,
			Subject:        subject,
			Text:           body,
			HTML:           mailer.HTMLVariant(body),
			AttachmentPath: c.AttachmentPath,
		}

		if err := c.Transport.Send(ctx, msg); err != nil {
			result.Fail++
			result.FailedRecipients = append(result.FailedRecipients, contact.Email)
			result.Outcomes = append(result.Outcomes, models.SendOutcome{
				Name:      contact.Name,
				Email:     contact.Email,
				Company:   contact.Company,
				Status:    models.StatusFailed,
				Error:     err.Error(),
				Timestamp: r.now(),
			})
			logger.Warn().Err(err).Str("recipient", contact.Email).Int("position", i+1).Msg("delivery failed")
			r.emit(logger, c.Sink, Event{
				Type:       EventError,
				CampaignID: c.ID,
				Contact:    &contact,
				Position:   i + 1,
				Total:      result.Total,
				Success:    result.Success,
				Fail:       result.Fail,
				Error:      err.Error(),
			})
		} else {
			result.Success++
			result.Outcomes = append(result.Outcomes, models.SendOutcome{
				Name:      contact.Name,
				Email:     contact.Email,
				Company:   contact.Company,
				Status:    models.StatusSent,
				Timestamp: r.now(),
			})
			logger.Debug().Str("recipient", contact.Email).Int("position", i+1).Msg("delivered")
		}

		// Backpressure against provider rate limits; no wait after the last
		// contact.
		if i < len(c.Contacts)-1 && delay > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				return r.finalize(logger, c, result, err)
			}
		}
	}

	result.FinishedAt = r.now()
	logger.Info().Int("success", result.Success).Int("fail", result.Fail).Msg("campaign finished")

	r.emit(logger, c.Sink, Event{
		Type:             EventComplete,
		CampaignID:       c.ID,
		Total:            result.Total,
		Success:          result.Success,
		Fail:             result.Fail,
		FailedRecipients: result.FailedRecipients,
	})

	return result, nil
}

// finalize closes out a cancelled campaign: the partial result keeps every
// outcome recorded so far and the caller receives a fatal error.
func (r *Runner) finalize(logger zerolog.Logger, c Campaign, result *models.CampaignResult, cause error) (*models.CampaignResult, error) {
	result.FinishedAt = r.now()
	err := models.WrapFatal(fmt.Errorf("campaign interrupted: %w", cause))
	logger.Warn().Err(cause).Int("success", result.Success).Int("fail", result.Fail).Msg("campaign interrupted")
	return result, err
}

func (r *Runner) emit(logger zerolog.Logger, sink Sink, event Event) {
	if sink == nil {
		return
	}
	if err := sink.Emit(event); err != nil {
		logger.Warn().Err(err).Str("event", string(event.Type)).Msg("progress sink write failed")
	}
}

func fromHeader(senderName, senderEmail string) string {
	if senderName == "" {
		return senderEmail
	}
	return fmt.Sprintf("%s <%s>", senderName, senderEmail)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
