package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
)

// minorUnitsPerUnit converts currency units to the provider's minor units.
var minorUnitsPerUnit = decimal.NewFromInt(100)

// surchargeRate mirrors the order surcharge so the per-unit price shown by
// the provider already carries the 2% baked in, keeping the displayed total
// equal to the stored order total.
var surchargeRate = decimal.New(2, -2)

// ClientConfig configures the hosted-checkout HTTP client.
type ClientConfig struct {
	// BaseURL of the provider API, e.g. https://api.provider.example.
	BaseURL string
	// SecretKey authenticates outbound calls (Bearer token).
	SecretKey string
	// Timeout bounds a single open-session call. Defaults to 10s.
	Timeout time.Duration
	// HTTPClient overrides the transport; defaults to http.DefaultClient.
	HTTPClient *http.Client
}

var _ Gateway = (*Client)(nil)

// Client implements Gateway against a hosted-checkout provider API. The
// open-session call is a single form-encoded POST; no local state is
// written by the client itself, so a timeout leaves nothing partial.
type Client struct {
	baseURL   string
	secretKey string
	timeout   time.Duration
	http      *http.Client
}

// NewClient creates a checkout Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		timeout:   timeout,
		http:      hc,
	}
}

// OpenSession opens a hosted checkout session for the order. Each order
// line becomes one provider line item with the display price rule
// floor(unitPrice * 1.02) converted to minor units. The {order_id,
// owner_id} metadata is the only correlation handle the webhook path gets.
func (c *Client) OpenSession(ctx context.Context, o *order.Order, products []product.Product, urls ReturnURLs) (*CheckoutSession, error) {
	form := make(url.Values)
	form.Set("mode", "payment")
	form.Set("success_url", urls.Success)
	form.Set("cancel_url", urls.Cancel)
	form.Set("metadata[order_id]", o.ID)
	form.Set("metadata[owner_id]", o.OwnerID)

	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i, l := range o.Lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[name]", names[l.ProductID])
		form.Set(prefix+"[unit_amount]", strconv.FormatInt(displayUnitMinor(l.UnitPrice), 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(l.Quantity))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ProviderError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "open session", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Op:  "open session",
			Err: errors.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var body struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Op: "decode session response", Err: err}
	}
	if body.ID == "" || body.URL == "" {
		return nil, &ProviderError{
			Op:  "decode session response",
			Err: errors.New("missing session id or url"),
		}
	}

	return &CheckoutSession{ID: body.ID, URL: body.URL}, nil
}

// displayUnitMinor re-expresses a unit price with the surcharge baked in,
// floored to whole currency units, then converted to minor units.
func displayUnitMinor(unitPrice decimal.Decimal) int64 {
	withSurcharge := unitPrice.Add(unitPrice.Mul(surchargeRate))
	return withSurcharge.Floor().Mul(minorUnitsPerUnit).IntPart()
}
