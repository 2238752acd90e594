package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pborman/uuid"

	"github.com/creditarchitect/dispatch-app/conf"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
	"github.com/creditarchitect/dispatch-app/dispatch/utils"
	"github.com/creditarchitect/dispatch-app/log"
)

// MailClient is the contract the rest of the system depends on for the
// physical mail provider.
type MailClient interface {
	VerifyAddress(ctx context.Context, addr models.Address) (models.VerificationResult, error)
	SendLetter(ctx context.Context, from, to models.Address, letterHTML string, opts SendOptions) (models.SendResult, error)
	FetchStatus(ctx context.Context, providerID string) (models.DeliveryStatus, error)
}

// SendOptions controls how the provider prints and mails a letter.
type SendOptions struct {
	Description   string
	Certified     bool
	ReturnReceipt bool
	Color         bool
}

// Config carries the environment-provided gateway settings. It is built once
// at process start and immutable thereafter.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// TestMode is true when the credential is a sandbox key; the provider
	// accepts mail but nothing is physically sent and tracking data may be
	// absent.
	TestMode bool

	retryMax int
}

func NewConfig() Config {
	key := conf.GetEnv("LOB_API_KEY")
	base := conf.GetEnv("LOB_BASE_URL")
	if base == "" {
		base = "https://api.lob.com/v1"
	}
	return Config{
		APIKey:   key,
		BaseURL:  strings.TrimSuffix(base, "/"),
		Timeout:  time.Duration(utils.GetEnvInt("LOB_TIMEOUT_MS", 5000)) * time.Millisecond,
		TestMode: strings.HasPrefix(key, "test_"),
		retryMax: utils.GetEnvInt("LOB_RETRY_MAX", 2),
	}
}

// LobClient talks to the Lob print-and-mail API. Letter sends use a plain
// client (never retried); the advisory read-only endpoints use a retrying
// client since they are idempotent.
type LobClient struct {
	cfg          Config
	sendClient   *http.Client
	statusClient *http.Client
}

func NewLobClient(cfg Config) (*LobClient, error) {
	if cfg.APIKey == "" {
		return nil, &customErrors.ConfigError{
			Msg: "LOB_API_KEY not set; get one at dashboard.lob.com and set the env var",
		}
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.retryMax
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &LobClient{
		cfg:          cfg,
		sendClient:   &http.Client{Timeout: cfg.Timeout},
		statusClient: rc.StandardClient(),
	}, nil
}

// TestMode reports whether the configured credential is a sandbox key.
func (c *LobClient) TestMode() bool {
	return c.cfg.TestMode
}

// VerifyAddress checks a US address via the provider's verification API.
// Verification is advisory: callers should log failures, not abort on them.
func (c *LobClient) VerifyAddress(ctx context.Context, addr models.Address) (models.VerificationResult, error) {
	payload, err := json.Marshal(map[string]string{
		"primary_line": addr.Line1,
		"city":         addr.City,
		"state":        addr.State,
		"zip_code":     addr.Zip,
	})
	if err != nil {
		return models.VerificationResult{}, err
	}

	body, err := c.do(ctx, c.statusClient, http.MethodPost, "/us_verifications", "application/json", strings.NewReader(string(payload)))
	if err != nil {
		return models.VerificationResult{}, err
	}

	var result models.VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return models.VerificationResult{}, err
	}
	return result, nil
}

type lobLetterResponse struct {
	ID                   string `json:"id"`
	TrackingNumber       string `json:"tracking_number"`
	Carrier              string `json:"carrier"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	SendDate             string `json:"send_date"`
	MailType             string `json:"mail_type"`
	ExtraService         string `json:"extra_service"`
	Price                string `json:"price"`
	URL                  string `json:"url"`
	TrackingEvents       []struct {
		Name     string     `json:"name"`
		Location string     `json:"location"`
		Time     *time.Time `json:"time"`
	} `json:"tracking_events"`
}

// SendLetter submits a letter for printing and certified mailing. A non-2xx
// provider response fails with a GatewayError; the caller must not create any
// dispute record in that case.
func (c *LobClient) SendLetter(ctx context.Context, from, to models.Address, letterHTML string, opts SendOptions) (models.SendResult, error) {
	data := url.Values{}
	data.Set("description", opts.Description)
	data.Set("to[name]", to.Name)
	data.Set("to[address_line1]", to.Line1)
	data.Set("to[address_city]", to.City)
	data.Set("to[address_state]", to.State)
	data.Set("to[address_zip]", to.Zip)
	data.Set("from[name]", from.Name)
	data.Set("from[address_line1]", from.Line1)
	data.Set("from[address_city]", from.City)
	data.Set("from[address_state]", from.State)
	data.Set("from[address_zip]", from.Zip)
	data.Set("file", letterHTML)
	data.Set("color", strconv.FormatBool(opts.Color))
	data.Set("mail_type", "usps_first_class")
	data.Set("address_placement", "top_first_page")

	if opts.Certified && opts.ReturnReceipt {
		data.Set("extra_service", "certified_return_receipt")
	} else if opts.Certified {
		data.Set("extra_service", "certified")
	}

	// Letter creation is not idempotent; it is never retried.
	body, err := c.do(ctx, c.sendClient, http.MethodPost, "/letters", "application/x-www-form-urlencoded", strings.NewReader(data.Encode()))
	if err != nil {
		return models.SendResult{}, err
	}

	var letter lobLetterResponse
	if err := json.Unmarshal(body, &letter); err != nil {
		return models.SendResult{}, err
	}

	return models.SendResult{
		ProviderID:           letter.ID,
		TrackingNumber:       letter.TrackingNumber,
		Carrier:              letter.Carrier,
		ExpectedDeliveryDate: letter.ExpectedDeliveryDate,
		CostCents:            priceToCents(letter.Price),
		PreviewURL:           letter.URL,
		IsTest:               c.cfg.TestMode,
	}, nil
}

// FetchStatus returns the provider's current view of a sent letter. Empty
// tracking data is a valid response, not an error.
func (c *LobClient) FetchStatus(ctx context.Context, providerID string) (models.DeliveryStatus, error) {
	body, err := c.do(ctx, c.statusClient, http.MethodGet, "/letters/"+url.PathEscape(providerID), "", nil)
	if err != nil {
		return models.DeliveryStatus{}, err
	}

	var letter lobLetterResponse
	if err := json.Unmarshal(body, &letter); err != nil {
		return models.DeliveryStatus{}, err
	}

	status := models.DeliveryStatus{
		ID:               letter.ID,
		TrackingNumber:   letter.TrackingNumber,
		Carrier:          letter.Carrier,
		ExpectedDelivery: letter.ExpectedDeliveryDate,
		SendDate:         letter.SendDate,
		MailType:         letter.MailType,
		ExtraService:     letter.ExtraService,
		TrackingEvents:   []models.TrackingEvent{},
	}
	for _, ev := range letter.TrackingEvents {
		status.TrackingEvents = append(status.TrackingEvents, models.TrackingEvent{
			Name:     ev.Name,
			Location: ev.Location,
			Time:     ev.Time,
		})
	}
	return status, nil
}

// Ping makes a minimal authenticated request to confirm the provider is
// reachable with the configured credential.
func (c *LobClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, c.statusClient, http.MethodGet, "/letters?limit=1", "", nil)
	return err
}

func (c *LobClient) do(ctx context.Context, httpClient *http.Client, method, path, contentType string, body io.Reader) ([]byte, error) {
	reqID := uuid.NewRandom()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.APIKey, "")
	req.Header.Set("Lob-Request-Id", reqID.String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := httpClient.Do(req)
	logRequest(req, resp, reqID.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &customErrors.GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

func priceToCents(price string) int {
	if price == "" {
		return 0
	}
	f, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(f * 100))
}

func logRequest(req *http.Request, resp *http.Response, reqID string) {
	fields := map[string]interface{}{
		"lob_request_id": reqID,
		"method":         req.Method,
		"uri":            req.URL.Path,
	}
	log.Mail.WithFields(fields).Infoln("Lob request")

	if resp != nil {
		log.Mail.WithFields(map[string]interface{}{
			"lob_request_id": reqID,
			"resp_code":      resp.StatusCode,
			"content_length": fmt.Sprint(resp.ContentLength),
		}).Infoln("Lob response")
	}
}
