package tracker

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/creditarchitect/dispatch-app/dispatch/catalog"
	"github.com/creditarchitect/dispatch-app/dispatch/constants"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
	"github.com/creditarchitect/dispatch-app/log"
)

// StatusFetcher is the slice of the mail client the tracker needs for
// delivery checks.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, providerID string) (models.DeliveryStatus, error)
}

// Tracker owns the dispute lifecycle: recording confirmed dispatches,
// deadline arithmetic, and status transitions. Deadlines are fixed at record
// time; days-remaining views are derived fresh on every query.
type Tracker struct {
	store *Store

	// now is replaceable in tests.
	now func() time.Time
}

func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// RecordDispatch appends a tracking record for a letter the provider has
// confirmed accepting. The catalog lookup runs before any store access so an
// unknown letter type never mutates the store.
func (t *Tracker) RecordDispatch(result models.SendResult, letterType, target, recipientName string, items []models.DisputeItem, notes string) (models.DisputeRecord, error) {
	info, err := catalog.Lookup(letterType)
	if err != nil {
		return models.DisputeRecord{}, err
	}

	sentAt := t.now().UTC()
	record := models.DisputeRecord{
		LetterID:         result.ProviderID,
		TrackingNumber:   result.TrackingNumber,
		Carrier:          result.Carrier,
		ExpectedDelivery: result.ExpectedDeliveryDate,
		LetterType:       letterType,
		LetterName:       info.Name,
		LegalBasis:       info.LegalBasis,
		Target:           target,
		RecipientName:    recipientName,
		SentAt:           sentAt,
		ResponseDeadline: sentAt.AddDate(0, 0, constants.ResponseWindowDays),
		EscalationDate:   sentAt.AddDate(0, 0, constants.EscalationWindowDays),
		Status:           models.StatusSent,
		ItemsDisputed:    items,
		Notes:            notes,
		PreviewURL:       result.PreviewURL,
		CostCents:        result.CostCents,
		IsTest:           result.IsTest,
	}

	if err := t.store.Append(record); err != nil {
		return models.DisputeRecord{}, err
	}

	log.Tracker.WithFields(map[string]interface{}{
		"letter_id":         record.LetterID,
		"letter_type":       record.LetterType,
		"target":            record.Target,
		"response_deadline": record.ResponseDeadline.Format(time.RFC3339),
	}).Info("dispute recorded")

	return record, nil
}

// Get returns the stored record for one letter ID.
func (t *Tracker) Get(letterID string) (models.DisputeRecord, error) {
	return t.store.Get(letterID)
}

// All returns every stored record in insertion order.
func (t *Tracker) All() ([]models.DisputeRecord, error) {
	return t.store.All()
}

// ListPending returns disputes still awaiting a response (status sent or
// delivered), each annotated with days remaining until the response deadline,
// ordered most-urgent first. An empty store is an empty result, not an error.
func (t *Tracker) ListPending() ([]models.PendingDispute, error) {
	records, err := t.store.All()
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	pending := []models.PendingDispute{}
	for _, record := range records {
		if record.Status != models.StatusSent && record.Status != models.StatusDelivered {
			continue
		}
		days := daysUntil(now, record.ResponseDeadline)
		pending = append(pending, models.PendingDispute{
			DisputeRecord: record,
			DaysRemaining: days,
			Overdue:       days < 0,
		})
	}

	// Stable keeps insertion order among equal deadlines.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].DaysRemaining < pending[j].DaysRemaining
	})
	return pending, nil
}

// ListOverdue returns the pending disputes whose response deadline has
// passed.
func (t *Tracker) ListOverdue() ([]models.PendingDispute, error) {
	pending, err := t.ListPending()
	if err != nil {
		return nil, err
	}
	overdue := []models.PendingDispute{}
	for _, p := range pending {
		if p.Overdue {
			overdue = append(overdue, p)
		}
	}
	return overdue, nil
}

// UpdateStatus sets a dispute's status and stamps updated_at. Status is an
// open enum; anything non-empty is accepted so operator tooling can record
// states the system does not generate itself. Notes are overwritten only when
// non-empty.
func (t *Tracker) UpdateStatus(letterID, status, notes string) (models.DisputeRecord, error) {
	if strings.TrimSpace(status) == "" {
		return models.DisputeRecord{}, &customErrors.MissingRequiredFieldError{Field: "status"}
	}

	updatedAt := t.now().UTC()
	record, err := t.store.Update(letterID, func(r *models.DisputeRecord) {
		r.Status = status
		r.UpdatedAt = &updatedAt
		if notes != "" {
			r.Notes = notes
		}
	})
	if err != nil {
		return models.DisputeRecord{}, err
	}

	log.Tracker.WithFields(map[string]interface{}{
		"letter_id": letterID,
		"status":    status,
	}).Info("dispute status updated")
	return record, nil
}

// CheckDeliveryStatus returns the provider's live view of a letter. It never
// mutates the store; repeated calls are idempotent.
func (t *Tracker) CheckDeliveryStatus(ctx context.Context, fetcher StatusFetcher, letterID string) (models.DeliveryStatus, error) {
	if _, err := t.store.Get(letterID); err != nil {
		return models.DeliveryStatus{}, err
	}
	return fetcher.FetchStatus(ctx, letterID)
}

// Reconcile fetches provider tracking events for a letter and, when a
// delivery event exists and the record is still in the sent state, promotes
// it to delivered. Any other status is left alone. Invoked explicitly by an
// operator, never on a timer.
func (t *Tracker) Reconcile(ctx context.Context, fetcher StatusFetcher, letterID string) (models.DisputeRecord, bool, error) {
	record, err := t.store.Get(letterID)
	if err != nil {
		return models.DisputeRecord{}, false, err
	}

	status, err := fetcher.FetchStatus(ctx, letterID)
	if err != nil {
		return models.DisputeRecord{}, false, err
	}

	if record.Status != models.StatusSent || !hasDeliveryEvent(status.TrackingEvents) {
		return record, false, nil
	}

	updatedAt := t.now().UTC()
	record, err = t.store.Update(letterID, func(r *models.DisputeRecord) {
		if r.Status != models.StatusSent {
			return
		}
		r.Status = models.StatusDelivered
		r.UpdatedAt = &updatedAt
		if status.TrackingNumber != "" {
			r.TrackingNumber = status.TrackingNumber
		}
	})
	if err != nil {
		return models.DisputeRecord{}, false, err
	}

	log.Tracker.WithField("letter_id", letterID).Info("dispute reconciled to delivered")
	return record, true, nil
}

func hasDeliveryEvent(events []models.TrackingEvent) bool {
	for _, ev := range events {
		if strings.EqualFold(ev.Name, "delivered") {
			return true
		}
	}
	return false
}

// daysUntil matches whole-day floor semantics: 10 days out is 10, one hour
// past the deadline is already -1, and exactly 240 hours past is -10.
func daysUntil(now, deadline time.Time) int {
	return int(math.Floor(deadline.Sub(now).Hours() / 24))
}
