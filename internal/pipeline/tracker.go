// Package pipeline runs a validated click through classification, campaign
// filtering, recording and destination composition.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/clientctx"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/fraud"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/redirect"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/telemetry"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Ledger stores recorded clicks.
type Ledger interface {
	Append(record domain.ClickRecord) error
	Len() int
}

// CampaignResolver returns the campaign configuration for an ID. It must not block.
type CampaignResolver interface {
	Lookup(id int) domain.Campaign
}

// EventSink receives every recorded click. Implementations must not block.
type EventSink interface {
	Enqueue(record domain.ClickRecord)
}

// Result is the outcome of tracking one click.
type Result struct {
	Record      domain.ClickRecord
	Destination string
}

// Tracker wires the screening stages together. All stages are in-memory;
// Track never performs network I/O.
type Tracker struct {
	classifier *fraud.Classifier
	filters    *fraud.FilterEngine
	scorer     *fraud.Scorer
	campaigns  CampaignResolver
	ledger     Ledger
	events     EventSink
	telemetry  *telemetry.Provider
	now        func() time.Time
	newID      func() string
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithEventSink publishes every recorded click to sink.
func WithEventSink(sink EventSink) Option {
	return func(t *Tracker) { t.events = sink }
}

// WithTelemetry records metrics and spans on p.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(t *Tracker) { t.telemetry = p }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// NewTracker creates a Tracker.
func NewTracker(
	classifier *fraud.Classifier,
	filters *fraud.FilterEngine,
	scorer *fraud.Scorer,
	campaigns CampaignResolver,
	ledger Ledger,
	opts ...Option,
) *Tracker {
	t := &Tracker{
		classifier: classifier,
		filters:    filters,
		scorer:     scorer,
		campaigns:  campaigns,
		ledger:     ledger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track classifies, records and routes one click. rawQuery is the inbound
// query string, merged into the chosen destination.
func (t *Tracker) Track(
	ctx context.Context,
	params validation.ClickParams,
	client clientctx.Context,
	rawQuery string,
) (Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	var span trace.Span
	if t.telemetry != nil {
		ctx, span = t.telemetry.StartSpan(ctx, "pipeline.track", spanAttributes(params)...)
		defer span.End()
	}

	input := fraud.Input{IP: client.IP, UserAgent: client.UserAgent, Referrer: client.Referrer}
	verdict := t.classifier.Classify(input, params.ForceBot)

	cmp := t.campaigns.Lookup(params.CampaignID)
	verdict = t.filters.Apply(verdict, input, cmp.Filters)
	verdict.Score = t.scorer.Score(verdict.Valid)

	record := buildRecord(t.newID(), t.now().Unix(), params, client, verdict)

	// Routing failures must not leave a record behind.
	destination, err := t.destination(record, cmp, rawQuery)
	if err != nil {
		return Result{}, err
	}

	if err := t.ledger.Append(record); err != nil {
		return Result{}, fmt.Errorf("record click: %w", err)
	}

	if t.events != nil {
		t.events.Enqueue(record)
	}
	if t.telemetry != nil {
		span.SetAttributes(
			attribute.String("click.id", record.ID),
			attribute.Bool("click.valid", verdict.Valid),
			attribute.String("click.reason", verdict.Reason),
		)
		t.telemetry.RecordClick(ctx, verdict.Valid, verdict.Reason, time.Since(start))
		t.telemetry.SetLedgerSize(t.ledger.Len())
	}

	if verdict.Valid {
		log.Debug("Click accepted",
			logger.String("click_id", record.ID),
			logger.Int("campaign_id", record.CampaignID),
		)
	} else {
		log.Info("Click rejected",
			logger.String("click_id", record.ID),
			logger.Int("campaign_id", record.CampaignID),
			logger.String("reason", verdict.Reason),
			logger.String("client_ip", record.ClientIP),
		)
	}

	return Result{Record: record, Destination: destination}, nil
}

// destination sets click_id=<record id> on both campaign URLs, then merges
// the inbound query, minus control parameters, into the one matching the verdict.
func (t *Tracker) destination(record domain.ClickRecord, cmp domain.Campaign, rawQuery string) (string, error) {
	tag := "click_id=" + url.QueryEscape(record.ID)

	white, err := redirect.Merge(cmp.WhiteURL, tag)
	if err != nil {
		return "", fmt.Errorf("campaign %d white url: %w", cmp.ID, err)
	}
	black, err := redirect.Merge(cmp.BlackURL, tag)
	if err != nil {
		return "", fmt.Errorf("campaign %d black url: %w", cmp.ID, err)
	}

	to, err := redirect.Compose(record.Valid(), black, white, redirect.Strip(rawQuery, validation.ControlParams...))
	if err != nil {
		return "", fmt.Errorf("compose destination: %w", err)
	}
	return to, nil
}

func buildRecord(
	id string,
	ts int64,
	params validation.ClickParams,
	client clientctx.Context,
	verdict domain.Verdict,
) domain.ClickRecord {
	record := domain.ClickRecord{
		ID:              id,
		CampaignID:      params.CampaignID,
		ClientIP:        client.IP,
		UserAgent:       client.UserAgent,
		Referrer:        client.Referrer,
		IsValid:         domain.IsValidFlag(verdict.Valid),
		Timestamp:       ts,
		Sub1:            params.Sub1,
		Sub2:            params.Sub2,
		Sub3:            params.Sub3,
		Sub4:            params.Sub4,
		Sub5:            params.Sub5,
		ClickID:         params.ClickID,
		AffSub:          params.AffSub,
		AffSub2:         params.AffSub2,
		AffSub3:         params.AffSub3,
		AffSub4:         params.AffSub4,
		AffSub5:         params.AffSub5,
		FraudScore:      verdict.Score,
		LandingPageID:   params.LandingPageID,
		CampaignOfferID: params.CampaignOfferID,
		TrafficSourceID: params.TrafficSourceID,
	}
	if !verdict.Valid {
		reason := verdict.Reason
		record.FraudReason = &reason
	}
	return record
}

// spanAttributes describes a click on its trace span.
func spanAttributes(params validation.ClickParams) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("click.campaign_id", params.CampaignID),
		attribute.Bool("click.force_bot", params.ForceBot),
	}
}
