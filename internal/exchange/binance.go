package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tradepilot/internal/logger"
	symbolpkg "tradepilot/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

const maxKlineLimit = 1500

// BinanceConfig carries the credentials and transport options for the
// USDT-M futures adapter.
type BinanceConfig struct {
	APIKey       string
	SecretKey    string
	RESTBaseURL  string
	ProxyEnabled bool
	ProxyURL     string
	HTTPTimeout  time.Duration

	// TotalCapital converts between exchange notional and the fraction-of-
	// capital sizing used by the decision core.
	TotalCapital float64
}

// Binance implements Exchange against Binance USDT-M futures.
type Binance struct {
	cfg    BinanceConfig
	client *futures.Client

	precMu    sync.Mutex
	precision map[string]int32
}

func NewBinance(cfg BinanceConfig) (*Binance, error) {
	if cfg.TotalCapital <= 0 {
		return nil, fmt.Errorf("binance adapter requires total capital > 0")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.ProxyEnabled && cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Binance{cfg: cfg, client: client, precision: make(map[string]int32)}, nil
}

func (b *Binance) GetTicker(ctx context.Context, symbol string) (Ticker, error) {
	clean := symbolpkg.ToBinance(symbol)
	if clean == "" {
		return Ticker{}, fmt.Errorf("symbol is required")
	}
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(clean).Do(ctx)
	if err != nil {
		return Ticker{}, err
	}
	if len(stats) == 0 || stats[0] == nil {
		return Ticker{}, fmt.Errorf("no ticker for %s", symbol)
	}
	st := stats[0]
	return Ticker{
		Symbol:       symbol,
		Last:         parseFloat(st.LastPrice),
		High24h:      parseFloat(st.HighPrice),
		Low24h:       parseFloat(st.LowPrice),
		Volume24h:    parseFloat(st.Volume),
		ChangePct24h: parseFloat(st.PriceChangePercent),
	}, nil
}

func (b *Binance) GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	clean := symbolpkg.ToBinance(symbol)
	if clean == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := b.client.NewKlinesService().Symbol(clean).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

func (b *Binance) GetBalance(ctx context.Context) (float64, error) {
	balances, err := b.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, bal := range balances {
		if bal == nil {
			continue
		}
		if strings.EqualFold(bal.Asset, "USDT") {
			return parseFloat(bal.AvailableBalance), nil
		}
	}
	return 0, nil
}

func (b *Binance) GetPosition(ctx context.Context, symbol string) (PortfolioSnapshot, error) {
	clean := symbolpkg.ToBinance(symbol)
	snap := PortfolioSnapshot{Symbol: symbol, Side: SideFlat}
	risks, err := b.client.NewGetPositionRiskService().Symbol(clean).Do(ctx)
	if err != nil {
		return snap, err
	}
	balance, err := b.GetBalance(ctx)
	if err != nil {
		logger.Warnf("binance: balance fetch failed: %v", err)
	}
	snap.AvailableBalance = balance
	for _, r := range risks {
		if r == nil || !strings.EqualFold(r.Symbol, clean) {
			continue
		}
		amt := parseDecimal(r.PositionAmt)
		if amt.IsZero() {
			continue
		}
		mark := parseFloat(r.MarkPrice)
		notional := amt.Abs().InexactFloat64() * mark
		snap.Size = notional / b.cfg.TotalCapital
		snap.EntryPrice = parseFloat(r.EntryPrice)
		snap.UnrealizedPnL = parseFloat(r.UnRealizedProfit)
		if amt.IsNegative() {
			snap.Side = SideShort
		} else {
			snap.Side = SideLong
		}
		return snap, nil
	}
	return snap, nil
}

func (b *Binance) OpenPosition(ctx context.Context, symbol string, side Side, size float64, leverage int) error {
	return b.placeEntry(ctx, symbol, side, size, leverage)
}

func (b *Binance) IncreasePosition(ctx context.Context, symbol string, side Side, delta float64, leverage int) error {
	return b.placeEntry(ctx, symbol, side, delta, leverage)
}

func (b *Binance) placeEntry(ctx context.Context, symbol string, side Side, size float64, leverage int) error {
	if size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	clean := symbolpkg.ToBinance(symbol)
	if _, err := b.client.NewChangeLeverageService().Symbol(clean).Leverage(leverage).Do(ctx); err != nil {
		return fmt.Errorf("set leverage failed: %w", err)
	}
	ticker, err := b.GetTicker(ctx, symbol)
	if err != nil {
		return fmt.Errorf("ticker fetch failed: %w", err)
	}
	if ticker.Last <= 0 {
		return fmt.Errorf("invalid mark price for %s", symbol)
	}
	qty, err := b.quantity(ctx, clean, size, ticker.Last)
	if err != nil {
		return err
	}
	orderSide := futures.SideTypeBuy
	if side == SideShort {
		orderSide = futures.SideTypeSell
	}
	_, err = b.client.NewCreateOrderService().
		Symbol(clean).
		Side(orderSide).
		Type(futures.OrderTypeMarket).
		Quantity(qty).
		Do(ctx)
	return err
}

func (b *Binance) ClosePosition(ctx context.Context, symbol string) error {
	clean := symbolpkg.ToBinance(symbol)
	risks, err := b.client.NewGetPositionRiskService().Symbol(clean).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range risks {
		if r == nil || !strings.EqualFold(r.Symbol, clean) {
			continue
		}
		amt := parseDecimal(r.PositionAmt)
		if amt.IsZero() {
			continue
		}
		orderSide := futures.SideTypeSell
		if amt.IsNegative() {
			orderSide = futures.SideTypeBuy
		}
		_, err := b.client.NewCreateOrderService().
			Symbol(clean).
			Side(orderSide).
			Type(futures.OrderTypeMarket).
			Quantity(amt.Abs().String()).
			ReduceOnly(true).
			Do(ctx)
		return err
	}
	return nil
}

func (b *Binance) SetStopLoss(ctx context.Context, symbol string, price float64) error {
	return b.placeProtective(ctx, symbol, futures.OrderTypeStopMarket, price)
}

func (b *Binance) SetTakeProfit(ctx context.Context, symbol string, price float64) error {
	return b.placeProtective(ctx, symbol, futures.OrderTypeTakeProfitMarket, price)
}

func (b *Binance) placeProtective(ctx context.Context, symbol string, orderType futures.OrderType, price float64) error {
	if price <= 0 {
		return fmt.Errorf("price must be > 0")
	}
	clean := symbolpkg.ToBinance(symbol)
	risks, err := b.client.NewGetPositionRiskService().Symbol(clean).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range risks {
		if r == nil || !strings.EqualFold(r.Symbol, clean) {
			continue
		}
		amt := parseDecimal(r.PositionAmt)
		if amt.IsZero() {
			continue
		}
		// protective orders close against the held side
		orderSide := futures.SideTypeSell
		if amt.IsNegative() {
			orderSide = futures.SideTypeBuy
		}
		_, err := b.client.NewCreateOrderService().
			Symbol(clean).
			Side(orderSide).
			Type(orderType).
			StopPrice(decimal.NewFromFloat(price).String()).
			ClosePosition(true).
			Do(ctx)
		return err
	}
	return fmt.Errorf("no open position for %s", symbol)
}

// quantity converts a fraction-of-capital size into a contract quantity
// string rounded down to the symbol's quantity precision.
func (b *Binance) quantity(ctx context.Context, cleanSymbol string, size, price float64) (string, error) {
	notional := decimal.NewFromFloat(b.cfg.TotalCapital).Mul(decimal.NewFromFloat(size))
	qty := notional.Div(decimal.NewFromFloat(price))
	prec, err := b.quantityPrecision(ctx, cleanSymbol)
	if err != nil {
		logger.Warnf("binance: precision lookup failed for %s, using 3: %v", cleanSymbol, err)
		prec = 3
	}
	qty = qty.RoundDown(prec)
	if qty.IsZero() {
		return "", fmt.Errorf("size %.4f rounds to zero quantity at price %.4f", size, price)
	}
	return qty.String(), nil
}

func (b *Binance) quantityPrecision(ctx context.Context, cleanSymbol string) (int32, error) {
	b.precMu.Lock()
	if prec, ok := b.precision[cleanSymbol]; ok {
		b.precMu.Unlock()
		return prec, nil
	}
	b.precMu.Unlock()

	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return 0, err
	}
	b.precMu.Lock()
	defer b.precMu.Unlock()
	for _, s := range info.Symbols {
		b.precision[s.Symbol] = int32(s.QuantityPrecision)
	}
	prec, ok := b.precision[cleanSymbol]
	if !ok {
		return 0, fmt.Errorf("symbol %s not in exchange info", cleanSymbol)
	}
	return prec, nil
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
