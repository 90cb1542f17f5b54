package fleet

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	transactionsPath = "/v3/parks/driver-profiles/transactions"
	driversPath      = "/v1/parks/driver-profiles/list"

	categoryID  = "partner_service_manual_4"
	description = "PAYNET"
	currency    = "UZS"
)

// UpstreamError covers any failure of the wallet API call: transport errors,
// timeouts and non-2xx responses. No local state is mutated when it is
// returned, so the whole operation is safely retriable by the caller.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fleet api: %v", e.Err)
	}
	return fmt.Sprintf("fleet api: status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type Driver struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
}

type Config struct {
	BaseURL     string
	ParkID      string
	ClientID    string
	APIKey      string
	Timeout     time.Duration
	InsecureTLS bool
}

// Client talks to the fleet wallet API. It is the only component that
// performs outbound money movement.
type Client struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		log:    log,
	}
}

type topupRequest struct {
	ParkID       string    `json:"park_id"`
	ContractorID string    `json:"contractor_profile_id"`
	Amount       string    `json:"amount"`
	CurrencyCode string    `json:"currency_code"`
	Data         topupData `json:"data"`
}

type topupData struct {
	Kind        string `json:"kind"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	EventAt     string `json:"event_at"`
	FeeAmount   string `json:"fee_amount"`
}

// Topup credits amount to the driver's wallet. The idempotency token travels
// as X-Idempotency-Token so resent deliveries of the same logical top-up are
// deduplicated by the fleet side, independent of our own ledger. The fee is
// reported as zero: the commission has already been taken out of amount and
// must stay invisible upstream.
func (c *Client) Topup(ctx context.Context, driverID string, amount decimal.Decimal, idempotencyToken string) error {
	body := topupRequest{
		ParkID:       c.cfg.ParkID,
		ContractorID: driverID,
		Amount:       amount.StringFixed(2),
		CurrencyCode: currency,
		Data: topupData{
			Kind:        "topup",
			CategoryID:  categoryID,
			Description: description,
			EventAt:     time.Now().UTC().Format(time.RFC3339),
			FeeAmount:   "0.00",
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return &UpstreamError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+transactionsPath, bytes.NewReader(raw))
	if err != nil {
		return &UpstreamError{Err: err}
	}
	c.setHeaders(req)
	req.Header.Set("X-Idempotency-Token", idempotencyToken)

	res, err := c.client.Do(req)
	if err != nil {
		c.log.Error("topup request failed", "driver_id", driverID, "err", err)
		return &UpstreamError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.log.Error("topup rejected", "driver_id", driverID, "status", res.StatusCode)
		return &UpstreamError{StatusCode: res.StatusCode}
	}
	return nil
}

type listDriversRequest struct {
	Query  driversQuery `json:"query"`
	Limit  int          `json:"limit"`
	Fields *listFields  `json:"fields,omitempty"`
}

type driversQuery struct {
	Park          parkQuery          `json:"park"`
	DriverProfile driverProfileQuery `json:"driver_profile"`
}

type parkQuery struct {
	ID string `json:"id"`
}

type driverProfileQuery struct {
	WorkStatus []string `json:"work_status"`
}

type listFields struct {
	DriverProfile []string `json:"driver_profile"`
}

type listDriversResponse struct {
	DriverProfiles []struct {
		DriverProfile struct {
			ID        string   `json:"id"`
			FirstName string   `json:"first_name"`
			LastName  string   `json:"last_name"`
			Phones    []string `json:"phones"`
		} `json:"driver_profile"`
	} `json:"driver_profiles"`
}

// ListDrivers fetches the park roster filtered by work status.
func (c *Client) ListDrivers(ctx context.Context, workStatuses []string, limit int) ([]Driver, error) {
	body := listDriversRequest{
		Query: driversQuery{
			Park:          parkQuery{ID: c.cfg.ParkID},
			DriverProfile: driverProfileQuery{WorkStatus: workStatuses},
		},
		Limit: limit,
		Fields: &listFields{
			DriverProfile: []string{"id", "first_name", "last_name", "phones"},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+driversPath, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("list drivers: status %d: %s", res.StatusCode, b)
	}

	var parsed listDriversResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("list drivers: decode: %w", err)
	}

	out := make([]Driver, 0, len(parsed.DriverProfiles))
	for _, p := range parsed.DriverProfiles {
		d := Driver{
			ID:        p.DriverProfile.ID,
			FirstName: p.DriverProfile.FirstName,
			LastName:  p.DriverProfile.LastName,
		}
		if len(p.DriverProfile.Phones) > 0 {
			d.Phone = p.DriverProfile.Phones[0]
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", c.cfg.ClientID)
	req.Header.Set("X-API-Key", c.cfg.APIKey)
}
