package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/upbot/types"
)

const upbitBaseURL = "https://api.upbit.com"

// Upbit is a REST client for the Upbit spot exchange. Public endpoints
// (candles, orderbook) need no credentials; accounts and orders are
// authenticated with a signed JWT per request.
type Upbit struct {
	http      *http.Client
	baseURL   string
	accessKey string
	secretKey string
}

// NewUpbit creates a client. Empty keys are fine for market-data-only use.
func NewUpbit(accessKey, secretKey string) *Upbit {
	return &Upbit{
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   upbitBaseURL,
		accessKey: accessKey,
		secretKey: secretKey,
	}
}

type upbitCandle struct {
	OpeningPrice float64 `json:"opening_price"`
	HighPrice    float64 `json:"high_price"`
	LowPrice     float64 `json:"low_price"`
	TradePrice   float64 `json:"trade_price"`
	AccVolume    float64 `json:"candle_acc_trade_volume"`
	TimestampMs  int64   `json:"timestamp"`
}

func (u *Upbit) Candles(ctx context.Context, ticker string, interval types.Interval, count int) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("market", ticker)
	q.Set("count", strconv.Itoa(count))
	path := fmt.Sprintf("/v1/candles/minutes/%d", int(interval))

	var raw []upbitCandle
	if err := u.get(ctx, path, q, &raw); err != nil {
		return nil, err
	}
	// Upbit returns newest-first; the engine wants most-recent-last.
	candles := make([]types.Candle, len(raw))
	for i, c := range raw {
		candles[len(raw)-1-i] = types.Candle{
			Open:      c.OpeningPrice,
			High:      c.HighPrice,
			Low:       c.LowPrice,
			Close:     c.TradePrice,
			Volume:    c.AccVolume,
			Timestamp: time.UnixMilli(c.TimestampMs),
		}
	}
	return candles, nil
}

func (u *Upbit) BestAsk(ctx context.Context, ticker string) (float64, error) {
	q := url.Values{}
	q.Set("markets", ticker)

	var raw []struct {
		Units []struct {
			AskPrice float64 `json:"ask_price"`
		} `json:"orderbook_units"`
	}
	if err := u.get(ctx, "/v1/orderbook", q, &raw); err != nil {
		return 0, err
	}
	if len(raw) == 0 || len(raw[0].Units) == 0 {
		return 0, fmt.Errorf("%w: empty orderbook for %s", ErrDataUnavailable, ticker)
	}
	return raw[0].Units[0].AskPrice, nil
}

func (u *Upbit) Snapshot(ctx context.Context) (map[string]types.Position, error) {
	var raw []struct {
		Currency    string `json:"currency"`
		Balance     string `json:"balance"`
		AvgBuyPrice string `json:"avg_buy_price"`
	}
	if err := u.getSigned(ctx, "/v1/accounts", nil, &raw); err != nil {
		return nil, err
	}
	snap := make(map[string]types.Position, len(raw))
	for _, b := range raw {
		bal, err := strconv.ParseFloat(b.Balance, 64)
		if err != nil {
			continue
		}
		avg, _ := strconv.ParseFloat(b.AvgBuyPrice, 64)
		snap[b.Currency] = types.Position{Balance: bal, AvgBuyPrice: avg}
	}
	return snap, nil
}

func (u *Upbit) MarketBuy(ctx context.Context, ticker string, notional float64) (types.OrderReceipt, error) {
	params := url.Values{}
	params.Set("market", ticker)
	params.Set("side", "bid")
	params.Set("ord_type", "price")
	params.Set("price", strconv.FormatFloat(notional, 'f', -1, 64))
	return u.submitOrder(ctx, ticker, types.Buy, params)
}

func (u *Upbit) MarketSell(ctx context.Context, ticker string, qty float64) (types.OrderReceipt, error) {
	params := url.Values{}
	params.Set("market", ticker)
	params.Set("side", "ask")
	params.Set("ord_type", "market")
	params.Set("volume", strconv.FormatFloat(qty, 'f', -1, 64))
	return u.submitOrder(ctx, ticker, types.Sell, params)
}

func (u *Upbit) submitOrder(ctx context.Context, ticker string, side types.Side, params url.Values) (types.OrderReceipt, error) {
	body := params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.baseURL+"/v1/orders", strings.NewReader(body))
	if err != nil {
		return types.OrderReceipt{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+u.signJWT(body))

	var raw struct {
		UUID      string    `json:"uuid"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := u.do(req, &raw, true); err != nil {
		return types.OrderReceipt{}, err
	}
	return types.OrderReceipt{
		UUID:      raw.UUID,
		Ticker:    ticker,
		Side:      side,
		CreatedAt: raw.CreatedAt,
	}, nil
}

func (u *Upbit) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		u.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return u.do(req, out, false)
}

func (u *Upbit) getSigned(ctx context.Context, path string, q url.Values, out any) error {
	target := u.baseURL + path
	query := ""
	if len(q) > 0 {
		query = q.Encode()
		target += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+u.signJWT(query))
	return u.do(req, out, false)
}

func (u *Upbit) do(req *http.Request, out any, order bool) error {
	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuth, strings.TrimSpace(string(body)))
	case order && resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: status %d: %s", ErrOrderRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return fmt.Errorf("%w: status %d", ErrDataUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrDataUnavailable, err)
	}
	return nil
}

// signJWT builds the per-request token Upbit expects: HS256 over a payload
// carrying the access key, a uuid nonce and, when the request has
// parameters, a SHA512 hash of the encoded query string.
func (u *Upbit) signJWT(query string) string {
	payload := map[string]string{
		"access_key": u.accessKey,
		"nonce":      uuid.NewString(),
	}
	if query != "" {
		sum := sha512.Sum512([]byte(query))
		payload["query_hash"] = hex.EncodeToString(sum[:])
		payload["query_hash_alg"] = "SHA512"
	}

	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, _ := json.Marshal(payload)
	signingInput := header + "." + enc.EncodeToString(claims)

	mac := hmac.New(sha256.New, []byte(u.secretKey))
	mac.Write([]byte(signingInput))
	return signingInput + "." + enc.EncodeToString(mac.Sum(nil))
}
