package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jmylchreest/leadchat-api/internal/clock"
)

// ObjectPutter is the part of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// FieldSealer encrypts a single field bound to a label.
type FieldSealer interface {
	Seal(plaintext, label string) (string, error)
}

// EscalationRecord is the archived form of an escalated lead. The email is
// sealed with the session ID as label.
type EscalationRecord struct {
	SessionID      string              `json:"sessionId"`
	EscalatedAt    time.Time           `json:"escalatedAt"`
	Subject        string              `json:"subject,omitempty"`
	EmailSealed    string              `json:"emailSealed,omitempty"`
	Company        string              `json:"company,omitempty"`
	Industry       string              `json:"industry,omitempty"`
	CompanySize    string              `json:"companySize,omitempty"`
	Needs          []string            `json:"needs,omitempty"`
	Timeline       string              `json:"timeline,omitempty"`
	Budget         string              `json:"budget,omitempty"`
	ContactPref    string              `json:"contactPreference,omitempty"`
	Qualification  QualificationResult `json:"qualification"`
	TriggeringText string              `json:"triggeringMessage,omitempty"`
}

// Archive writes escalated leads to object storage for the sales team.
type Archive struct {
	client ObjectPutter
	bucket string
	sealer FieldSealer
	clock  clock.Clock
	logger *slog.Logger
}

// NewArchive creates an archive. A nil client or empty bucket yields a
// disabled archive whose Store is a no-op.
func NewArchive(client ObjectPutter, bucket string, sealer FieldSealer, c clock.Clock, logger *slog.Logger) *Archive {
	if c == nil {
		c = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{client: client, bucket: bucket, sealer: sealer, clock: c, logger: logger}
}

// IsEnabled reports whether records are actually written.
func (a *Archive) IsEnabled() bool {
	return a != nil && a.client != nil && a.bucket != ""
}

// Key returns the object key for a session escalated at t.
func Key(sessionID string, t time.Time) string {
	return fmt.Sprintf("leads/%04d/%02d/%s.json", t.Year(), int(t.Month()), sessionID)
}

// Store writes an escalation record. subject is the authenticated identity
// if any; message is the message that triggered escalation.
func (a *Archive) Store(ctx context.Context, sessionID, subject string, lead LeadInfo, message string) error {
	if !a.IsEnabled() {
		return nil
	}

	now := a.clock.Now().UTC()
	rec := EscalationRecord{
		SessionID:      sessionID,
		EscalatedAt:    now,
		Subject:        subject,
		Company:        lead.Company,
		Industry:       lead.Industry,
		CompanySize:    lead.CompanySize,
		Needs:          lead.Needs,
		Timeline:       lead.Timeline,
		Budget:         lead.Budget,
		ContactPref:    lead.ContactPreference,
		Qualification:  Qualify(lead),
		TriggeringText: message,
	}

	if lead.Email != "" {
		if a.sealer == nil {
			return fmt.Errorf("refusing to archive email without an encryption key")
		}
		sealed, err := a.sealer.Seal(lead.Email, sessionID)
		if err != nil {
			return fmt.Errorf("failed to seal email: %w", err)
		}
		rec.EmailSealed = sealed
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation record: %w", err)
	}

	key := Key(sessionID, now)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload escalation record: %w", err)
	}

	a.logger.Info("lead escalation archived",
		"session_id", sessionID,
		"key", key,
		"score", rec.Qualification.Score,
		"category", rec.Qualification.Category,
	)
	return nil
}
