package dispatchcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/creditarchitect/dispatch-app/dispatch/catalog"
	"github.com/creditarchitect/dispatch-app/dispatch/client"
	"github.com/creditarchitect/dispatch-app/dispatch/constants"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/health"
	"github.com/creditarchitect/dispatch-app/dispatch/letters"
	"github.com/creditarchitect/dispatch-app/dispatch/metrics"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
	"github.com/creditarchitect/dispatch-app/dispatch/service"
	"github.com/creditarchitect/dispatch-app/dispatch/tracker"
	"github.com/creditarchitect/dispatch-app/dispatch/web"
)

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = constants.Name
	app.Usage = constants.Usage
	app.Version = constants.Version

	var letterType, target, clientName, addressLine1, addressLine2, city, state, zip string
	var ssn4, dob, email, phone, notes string
	var recipientName, recipientAddress, recipientCity, recipientState, recipientZip string
	var letterID, newStatus, apiAddr string
	var accounts, accountNums, reasons, details, extras cli.StringSlice

	senderFlags := []cli.Flag{
		cli.StringFlag{Name: "type", Usage: "Letter type key (see the types command)", Destination: &letterType},
		cli.StringFlag{Name: "name", Usage: "Client full name", Destination: &clientName},
		cli.StringFlag{Name: "address", Usage: "Client street address", Destination: &addressLine1},
		cli.StringFlag{Name: "address2", Usage: "Client street address, second line", Destination: &addressLine2},
		cli.StringFlag{Name: "city", Usage: "Client city", Destination: &city},
		cli.StringFlag{Name: "state", Usage: "Client state", Destination: &state},
		cli.StringFlag{Name: "zip", Usage: "Client ZIP code", Destination: &zip},
		cli.StringFlag{Name: "ssn4", Usage: "Last four digits of the client SSN", Destination: &ssn4},
		cli.StringFlag{Name: "dob", Usage: "Client date of birth", Destination: &dob},
		cli.StringFlag{Name: "email", Usage: "Client email", Destination: &email},
		cli.StringFlag{Name: "phone", Usage: "Client phone", Destination: &phone},
		cli.StringSliceFlag{Name: "account", Usage: "Disputed account name (repeatable)", Value: &accounts},
		cli.StringSliceFlag{Name: "account-num", Usage: "Last four digits of the disputed account (repeatable, pairs with --account)", Value: &accountNums},
		cli.StringSliceFlag{Name: "reason", Usage: "Dispute reason (repeatable, pairs with --account)", Value: &reasons},
		cli.StringSliceFlag{Name: "details", Usage: "Dispute details (repeatable, pairs with --account)", Value: &details},
		cli.StringSliceFlag{Name: "extra", Usage: "Letter-specific value as key=value (repeatable)", Value: &extras},
		cli.StringFlag{Name: "notes", Usage: "Free-form note stored on the tracking record", Destination: &notes},
	}

	buildSendRequest := func() (service.SendRequest, error) {
		required := []struct{ name, value string }{
			{"type", letterType},
			{"name", clientName},
			{"address", addressLine1},
			{"city", city},
			{"state", state},
			{"zip", zip},
		}
		for _, f := range required {
			if strings.TrimSpace(f.value) == "" {
				return service.SendRequest{}, fmt.Errorf("--%s is required", f.name)
			}
		}
		if len(accounts) == 0 {
			return service.SendRequest{}, fmt.Errorf("at least one --account is required")
		}
		if _, err := catalog.Lookup(letterType); err != nil {
			return service.SendRequest{}, err
		}

		items := make([]models.DisputeItem, len(accounts))
		for i, account := range accounts {
			items[i] = models.DisputeItem{AccountName: account}
			if i < len(accountNums) {
				items[i].AccountNumberLast4 = accountNums[i]
			}
			if i < len(reasons) {
				items[i].Reason = reasons[i]
			}
			if i < len(details) {
				items[i].Details = details[i]
			}
		}

		extra, err := parseExtras(extras)
		if err != nil {
			return service.SendRequest{}, err
		}

		req := service.SendRequest{
			Sender: models.Sender{
				Address: models.Address{
					Name: clientName, Line1: addressLine1, Line2: addressLine2,
					City: city, State: state, Zip: zip,
				},
				SSNLast4: ssn4, DOB: dob, Email: email, Phone: phone,
			},
			LetterType: letterType,
			Items:      items,
			Extra:      extra,
			Notes:      notes,
		}
		return req, nil
	}

	newMailer := func() (*service.DisputeMailer, error) {
		mailClient, err := client.NewLobClient(client.NewConfig())
		if err != nil {
			return nil, err
		}
		return service.NewDisputeMailer(mailClient, newTracker()), nil
	}

	app.Commands = []cli.Command{
		{
			Name:     "send",
			Category: "Dispatch",
			Usage:    "Compose and send one certified dispute letter",
			Flags: append(senderFlags,
				cli.StringFlag{Name: "target", Usage: "Recipient: equifax, experian, transunion, or a custom name with --recipient-* flags", Destination: &target},
				cli.StringFlag{Name: "recipient-name", Usage: "Custom recipient name", Destination: &recipientName},
				cli.StringFlag{Name: "recipient-address", Usage: "Custom recipient street address", Destination: &recipientAddress},
				cli.StringFlag{Name: "recipient-city", Usage: "Custom recipient city", Destination: &recipientCity},
				cli.StringFlag{Name: "recipient-state", Usage: "Custom recipient state", Destination: &recipientState},
				cli.StringFlag{Name: "recipient-zip", Usage: "Custom recipient ZIP code", Destination: &recipientZip},
			),
			Action: func(c *cli.Context) error {
				req, err := buildSendRequest()
				if err != nil {
					return err
				}
				if strings.TrimSpace(target) == "" {
					return fmt.Errorf("--target is required")
				}
				req.Target = target
				if recipientName != "" {
					req.CustomRecipient = &models.Address{
						Name: recipientName, Line1: recipientAddress,
						City: recipientCity, State: recipientState, Zip: recipientZip,
					}
				} else if !catalog.IsBureau(target) {
					return &customErrors.UnknownTargetError{Target: target, ValidTargets: catalog.Bureaus()}
				}

				mailer, err := newMailer()
				if err != nil {
					return err
				}

				timer := metrics.GetTimer()
				defer timer.Close()
				ctx := metrics.NewContext(context.Background(), timer)

				record, err := mailer.SendDispute(ctx, req)
				if err != nil {
					return err
				}
				printRecord(app, record)
				return nil
			},
		},
		{
			Name:     "send-all",
			Category: "Dispatch",
			Usage:    "Send the same dispute to all three credit bureaus",
			Flags:    senderFlags,
			Action: func(c *cli.Context) error {
				req, err := buildSendRequest()
				if err != nil {
					return err
				}

				mailer, err := newMailer()
				if err != nil {
					return err
				}

				timer := metrics.GetTimer()
				defer timer.Close()
				ctx := metrics.NewContext(context.Background(), timer)

				results, mailErr := mailer.SendToAllBureaus(ctx, req)
				for _, result := range results {
					printRecord(app, result.Record)
				}
				if mailErr != nil {
					return mailErr
				}
				fmt.Fprintf(app.Writer, "Dispatched to all %d bureaus\n", len(results))
				return nil
			},
		},
		{
			Name:     "pending",
			Category: "Tracking",
			Usage:    "List disputes still awaiting a response, most urgent first",
			Action: func(c *cli.Context) error {
				pending, err := newTracker().ListPending()
				if err != nil {
					return err
				}
				printPendingTable(app, pending)
				return nil
			},
		},
		{
			Name:     "overdue",
			Category: "Tracking",
			Usage:    "List disputes whose 30-day response deadline has passed",
			Action: func(c *cli.Context) error {
				overdue, err := newTracker().ListOverdue()
				if err != nil {
					return err
				}
				printPendingTable(app, overdue)
				return nil
			},
		},
		{
			Name:     "status",
			Category: "Tracking",
			Usage:    "Fetch live delivery tracking for a sent letter",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "letter-id", Usage: "Provider letter ID", Destination: &letterID},
			},
			Action: func(c *cli.Context) error {
				if letterID == "" {
					return fmt.Errorf("--letter-id is required")
				}
				mailClient, err := client.NewLobClient(client.NewConfig())
				if err != nil {
					return err
				}
				status, err := newTracker().CheckDeliveryStatus(context.Background(), mailClient, letterID)
				if err != nil {
					return err
				}
				return printJSON(app, status)
			},
		},
		{
			Name:     "reconcile",
			Category: "Tracking",
			Usage:    "Promote a sent dispute to delivered when tracking shows delivery",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "letter-id", Usage: "Provider letter ID", Destination: &letterID},
			},
			Action: func(c *cli.Context) error {
				if letterID == "" {
					return fmt.Errorf("--letter-id is required")
				}
				mailClient, err := client.NewLobClient(client.NewConfig())
				if err != nil {
					return err
				}
				record, changed, err := newTracker().Reconcile(context.Background(), mailClient, letterID)
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintf(app.Writer, "Letter %s marked delivered\n", record.LetterID)
				} else {
					fmt.Fprintf(app.Writer, "Letter %s unchanged (status %s)\n", record.LetterID, record.Status)
				}
				return nil
			},
		},
		{
			Name:     "update-status",
			Category: "Tracking",
			Usage:    "Record a status change for a dispute (resolved, escalated, ...)",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "letter-id", Usage: "Provider letter ID", Destination: &letterID},
				cli.StringFlag{Name: "status", Usage: "New status value", Destination: &newStatus},
				cli.StringFlag{Name: "notes", Usage: "Replacement notes (omit to keep existing)", Destination: &notes},
			},
			Action: func(c *cli.Context) error {
				if letterID == "" {
					return fmt.Errorf("--letter-id is required")
				}
				if newStatus == "" {
					return fmt.Errorf("--status is required")
				}
				record, err := newTracker().UpdateStatus(letterID, newStatus, notes)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Letter %s is now %s\n", record.LetterID, record.Status)
				return nil
			},
		},
		{
			Name:     "types",
			Category: "Reference",
			Usage:    "List available letter types",
			Action: func(c *cli.Context) error {
				w := tabwriter.NewWriter(app.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tNAME\tTARGET\tLEGAL BASIS")
				for _, key := range catalog.ValidTypes() {
					info, err := catalog.Lookup(key)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, info.Name, info.TargetType, info.LegalBasis)
				}
				return w.Flush()
			},
		},
		{
			Name:  "start-api",
			Usage: "Start the dispute tracking API",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "addr", Usage: "Listen address", Value: ":3000", Destination: &apiAddr},
			},
			Action: func(c *cli.Context) error {
				mailClient, err := client.NewLobClient(client.NewConfig())
				if err != nil {
					return err
				}
				store := tracker.NewStore("")
				api := &web.API{
					Tracker: tracker.NewTracker(store),
					Client:  mailClient,
					Checker: &health.Checker{Store: store, Gateway: mailClient},
				}

				fmt.Fprintf(app.Writer, "Starting dispatch API on %s\n", apiAddr)
				srv := web.NewServer(apiAddr, web.NewRouter(api))
				if err := srv.ListenAndServe(); err != nil {
					log.Fatal(err)
				}
				return nil
			},
		},
	}
	return app
}

func newTracker() *tracker.Tracker {
	return tracker.NewTracker(tracker.NewStore(""))
}

func parseExtras(values []string) (letters.Context, error) {
	if len(values) == 0 {
		return nil, nil
	}
	extra := letters.Context{}
	for _, kv := range values {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("--extra must be key=value, got %q", kv)
		}
		if parts[0] == "violations" {
			extra[parts[0]] = strings.Split(parts[1], ";")
			continue
		}
		extra[parts[0]] = parts[1]
	}
	return extra, nil
}

func printRecord(app *cli.App, record models.DisputeRecord) {
	fmt.Fprintf(app.Writer, "Letter %s (%s) sent to %s\n", record.LetterID, record.LetterName, record.RecipientName)
	if record.TrackingNumber != "" {
		fmt.Fprintf(app.Writer, "  Tracking: %s (%s)\n", record.TrackingNumber, record.Carrier)
	}
	fmt.Fprintf(app.Writer, "  Respond by: %s  Escalate after: %s\n",
		record.ResponseDeadline.Format("2006-01-02"), record.EscalationDate.Format("2006-01-02"))
	if record.IsTest {
		fmt.Fprintln(app.Writer, "  (test mode: no physical mail sent)")
	}
}

func printPendingTable(app *cli.App, pending []models.PendingDispute) {
	if len(pending) == 0 {
		fmt.Fprintln(app.Writer, "No disputes awaiting a response")
		return
	}
	w := tabwriter.NewWriter(app.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LETTER ID\tTYPE\tRECIPIENT\tSTATUS\tDEADLINE\tDAYS LEFT")
	for _, p := range pending {
		days := fmt.Sprintf("%d", p.DaysRemaining)
		if p.Overdue {
			days = fmt.Sprintf("OVERDUE (%d)", p.DaysRemaining)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.LetterID, p.LetterType, p.RecipientName, p.Status,
			p.ResponseDeadline.Format("2006-01-02"), days)
	}
	w.Flush()
}

func printJSON(app *cli.App, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Writer, "%s\n", data)
	return nil
}
