package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"tradepilot/internal/exchange"
)

// Params controls the indicator set fed to advisory backends.
type Params struct {
	RSIPeriod  int
	MAPeriod   int
	BBPeriod   int
	BBDev      float64
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

func (p Params) withDefaults() Params {
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = 14
	}
	if p.MAPeriod <= 0 {
		p.MAPeriod = 20
	}
	if p.BBPeriod <= 0 {
		p.BBPeriod = 20
	}
	if p.BBDev <= 0 {
		p.BBDev = 2
	}
	if p.MACDFast <= 0 {
		p.MACDFast = 12
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = 26
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = 9
	}
	return p
}

// Compute derives the indicator mapping consumed by the market context
// builder: rsi, macd, ma20, bb_upper, bb_middle, bb_lower, volume.
func Compute(candles []exchange.Candle, params Params) (map[string]float64, error) {
	p := params.withDefaults()
	need := p.MACDSlow + p.MACDSignal
	if p.RSIPeriod+1 > need {
		need = p.RSIPeriod + 1
	}
	if p.BBPeriod > need {
		need = p.BBPeriod
	}
	if len(candles) < need {
		return nil, fmt.Errorf("need at least %d candles, got %d", need, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	out := make(map[string]float64, 7)
	out["rsi"] = lastValid(talib.Rsi(closes, p.RSIPeriod))

	macd, _, _ := talib.Macd(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	out["macd"] = lastValid(macd)

	out["ma20"] = lastValid(talib.Sma(closes, p.MAPeriod))

	upper, middle, lower := talib.BBands(closes, p.BBPeriod, p.BBDev, p.BBDev, talib.SMA)
	out["bb_upper"] = lastValid(upper)
	out["bb_middle"] = lastValid(middle)
	out["bb_lower"] = lastValid(lower)

	out["volume"] = candles[len(candles)-1].Volume
	return out, nil
}

// lastValid walks back past NaN padding emitted by talib warm-up windows.
func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}
