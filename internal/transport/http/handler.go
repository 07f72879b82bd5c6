package adminhttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradepilot/internal/exchange"
	"tradepilot/internal/notifier"
	"tradepilot/internal/store/decisionlog"
	"tradepilot/internal/store/tradestore"

	"github.com/gin-gonic/gin"
)

// BackendRegistry is the slice of the advisory registry the API needs.
type BackendRegistry interface {
	Names() []string
	ActiveName() string
	SetActive(name string) bool
}

type DecisionLister interface {
	ListDecisions(ctx context.Context, q decisionlog.Query) ([]decisionlog.Record, error)
}

type TradeLister interface {
	ListTrades(ctx context.Context, symbol string, limit int) ([]tradestore.TradeRecord, error)
}

type PositionReader interface {
	GetPosition(ctx context.Context, symbol string) (exchange.PortfolioSnapshot, error)
}

// EventNotifier pushes events triggered through the admin API.
type EventNotifier interface {
	Notify(kind notifier.EventKind, msg notifier.StructuredMessage)
}

type handler struct {
	registry  BackendRegistry
	decisions DecisionLister
	trades    TradeLister
	positions PositionReader
	notifier  EventNotifier
	symbols   []string
}

func (h *handler) register(g *gin.RouterGroup) {
	g.GET("/backends", h.listBackends)
	g.POST("/backends/active", h.setActiveBackend)
	g.GET("/decisions", h.listDecisions)
	g.GET("/trades", h.listTrades)
	g.GET("/positions", h.listPositions)
}

func (h *handler) listBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"backends": h.registry.Names(),
		"active":   h.registry.ActiveName(),
	})
}

func (h *handler) setActiveBackend(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	previous := h.registry.ActiveName()
	if !h.registry.SetActive(req.Name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown backend: " + req.Name})
		return
	}
	if h.notifier != nil {
		h.notifier.Notify(notifier.EventBackendSwitch, notifier.StructuredMessage{
			Icon:  "🔁",
			Title: "advisory backend switched",
			Sections: []notifier.MessageSection{
				{Title: "Backend", Lines: []string{previous + " -> " + h.registry.ActiveName()}},
			},
			Timestamp: time.Now().UTC(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"active": h.registry.ActiveName()})
}

func (h *handler) listDecisions(c *gin.Context) {
	if h.decisions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision log disabled"})
		return
	}
	q := decisionlog.Query{
		Symbol: c.Query("symbol"),
		Source: c.Query("source"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	records, err := h.decisions.ListDecisions(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": records})
}

func (h *handler) listTrades(c *gin.Context) {
	if h.trades == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade store disabled"})
		return
	}
	records, err := h.trades.ListTrades(c.Request.Context(), c.Query("symbol"), intQuery(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": records})
}

func (h *handler) listPositions(c *gin.Context) {
	if h.positions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "exchange disabled"})
		return
	}
	out := make([]exchange.PortfolioSnapshot, 0, len(h.symbols))
	for _, sym := range h.symbols {
		pos, err := h.positions.GetPosition(c.Request.Context(), sym)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "symbol": sym})
			return
		}
		out = append(out, pos)
	}
	c.JSON(http.StatusOK, gin.H{"positions": out})
}

func intQuery(c *gin.Context, key string) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
