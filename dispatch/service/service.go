package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/creditarchitect/dispatch-app/dispatch/catalog"
	"github.com/creditarchitect/dispatch-app/dispatch/client"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/letters"
	"github.com/creditarchitect/dispatch-app/dispatch/metrics"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
	"github.com/creditarchitect/dispatch-app/dispatch/tracker"
	"github.com/creditarchitect/dispatch-app/dispatch/utils"
	"github.com/creditarchitect/dispatch-app/log"
)

// SendRequest carries everything needed to compose and dispatch one dispute
// letter. Target names a bureau key unless CustomRecipient is set.
type SendRequest struct {
	Sender          models.Sender
	LetterType      string
	Target          string
	CustomRecipient *models.Address
	Items           []models.DisputeItem
	Extra           letters.Context
	Notes           string
}

// DisputeMailer runs the full dispatch pipeline: resolve, compose, verify,
// send, record. A letter is only ever recorded after the provider confirms
// accepting it.
type DisputeMailer struct {
	Client  client.MailClient
	Tracker *tracker.Tracker
}

func NewDisputeMailer(mailClient client.MailClient, t *tracker.Tracker) *DisputeMailer {
	return &DisputeMailer{Client: mailClient, Tracker: t}
}

// SendDispute composes and mails one certified letter, then records it.
// Address verification is advisory: an undeliverable result or a
// verification call failure logs a warning and the dispatch proceeds. A send
// failure propagates and leaves the tracker untouched.
func (m *DisputeMailer) SendDispute(ctx context.Context, req SendRequest) (models.DisputeRecord, error) {
	ctx, close := metrics.NewParent(ctx, "SendDispute")
	defer close()

	info, err := catalog.Lookup(req.LetterType)
	if err != nil {
		return models.DisputeRecord{}, err
	}

	recipient, err := m.resolveRecipient(req)
	if err != nil {
		return models.DisputeRecord{}, err
	}

	composeClose := metrics.NewChild(ctx, "ComposeLetter")
	letterHTML, err := letters.Generate(req.LetterType, req.Sender, recipient, req.Items, req.Extra)
	composeClose()
	if err != nil {
		return models.DisputeRecord{}, err
	}

	verifyClose := metrics.NewChild(ctx, "VerifyAddresses")
	m.verifyAdvisory(ctx, "sender", req.Sender.Address)
	m.verifyAdvisory(ctx, "recipient", recipient)
	verifyClose()

	sendClose := metrics.NewChild(ctx, "SendLetter")
	result, err := m.Client.SendLetter(ctx, req.Sender.Address, recipient, letterHTML, client.SendOptions{
		Description:   fmt.Sprintf("%s - %s", info.Name, recipient.Name),
		Certified:     true,
		ReturnReceipt: true,
		Color:         utils.GetEnvBool("LOB_COLOR_PRINTING", false),
	})
	sendClose()
	if err != nil {
		return models.DisputeRecord{}, errors.Wrap(err, "sending dispute letter")
	}

	recordClose := metrics.NewChild(ctx, "RecordDispatch")
	record, err := m.Tracker.RecordDispatch(result, req.LetterType, req.Target, recipient.Name, req.Items, req.Notes)
	recordClose()
	if err != nil {
		// The letter is already in the mail; losing the tracking record is
		// the one failure the operator must hear about immediately.
		log.Mail.WithField("letter_id", result.ProviderID).
			Errorf("letter dispatched but tracking record failed: %s", err)
		return models.DisputeRecord{}, errors.Wrapf(err, "letter %s dispatched but not recorded", result.ProviderID)
	}

	return record, nil
}

// BureauResult pairs one bureau with the outcome of its dispatch.
type BureauResult struct {
	Bureau string
	Record models.DisputeRecord
}

// SendToAllBureaus dispatches the same dispute to Equifax, Experian and
// TransUnion in canonical order. The first failure stops the loop; results
// already dispatched are returned so the operator knows which bureaus were
// reached.
func (m *DisputeMailer) SendToAllBureaus(ctx context.Context, req SendRequest) ([]BureauResult, error) {
	results := []BureauResult{}
	for _, bureau := range catalog.Bureaus() {
		bureauReq := req
		bureauReq.Target = bureau
		bureauReq.CustomRecipient = nil

		record, err := m.SendDispute(ctx, bureauReq)
		if err != nil {
			return results, errors.Wrapf(err, "sending to %s (%d of %d bureaus dispatched)",
				bureau, len(results), len(catalog.Bureaus()))
		}
		results = append(results, BureauResult{Bureau: bureau, Record: record})
	}
	return results, nil
}

func (m *DisputeMailer) resolveRecipient(req SendRequest) (models.Address, error) {
	if req.CustomRecipient != nil {
		if req.CustomRecipient.Name == "" {
			return models.Address{}, &customErrors.MissingRequiredFieldError{Field: "recipient name"}
		}
		return *req.CustomRecipient, nil
	}
	return catalog.BureauAddress(req.Target)
}

func (m *DisputeMailer) verifyAdvisory(ctx context.Context, role string, addr models.Address) {
	result, err := m.Client.VerifyAddress(ctx, addr)
	if err != nil {
		log.Mail.WithField("role", role).Warnf("address verification unavailable: %s", err)
		return
	}
	if !result.Deliverable() {
		log.Mail.WithFields(map[string]interface{}{
			"role":           role,
			"deliverability": result.Deliverability,
		}).Warn("address may be undeliverable; dispatch continues")
	}
}
