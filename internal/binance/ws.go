package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"orderflow-lab/internal/domain"
)

// DefaultStreamEndpoint is the Binance spot market stream endpoint.
const DefaultStreamEndpoint = "wss://stream.binance.com:9443"

// StreamConfig configures trade stream behavior.
type StreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// TradeStream consumes the live <symbol>@trade WebSocket stream.
type TradeStream struct {
	endpoint string
	config   StreamConfig
	logger   *log.Logger
}

// NewTradeStream creates a trade stream client. A nil config uses defaults.
func NewTradeStream(endpoint string, config *StreamConfig, logger *log.Logger) *TradeStream {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	if endpoint == "" {
		endpoint = DefaultStreamEndpoint
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TradeStream{endpoint: endpoint, config: cfg, logger: logger}
}

// streamTradeEvent mirrors one message of the <symbol>@trade stream.
type streamTradeEvent struct {
	EventType    string `json:"e"` // "trade"
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

// Run consumes the trade stream for symbol, sending parsed trades to out
// until ctx is cancelled. Connection drops trigger reconnects with
// exponential backoff; messages with unparseable numerics are dropped.
// The out channel is not closed by Run.
func (s *TradeStream) Run(ctx context.Context, symbol string, out chan<- domain.Trade) error {
	streamURL := fmt.Sprintf("%s/ws/%s@trade", s.endpoint, strings.ToLower(symbol))

	delay := s.config.ReconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.consume(ctx, streamURL, out)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Printf("trade stream %s disconnected: %v (reconnecting in %v)", symbol, err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// consume runs a single connection until it fails or ctx is cancelled.
func (s *TradeStream) consume(ctx context.Context, streamURL string, out chan<- domain.Trade) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Close the connection when ctx is cancelled to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	// Ping loop keeps intermediaries from dropping the connection.
	go func() {
		ticker := time.NewTicker(s.config.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(s.config.HandshakeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var ev streamTradeEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.logger.Printf("trade stream: drop unparseable message: %v", err)
			continue
		}
		if ev.EventType != "trade" {
			continue
		}

		trade, ok := parseStreamTrade(ev)
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- trade:
		}
	}
}

// parseStreamTrade converts a stream message into a domain trade.
func parseStreamTrade(ev streamTradeEvent) (domain.Trade, bool) {
	price, err := decimal.NewFromString(ev.Price)
	if err != nil {
		return domain.Trade{}, false
	}
	qty, err := decimal.NewFromString(ev.Qty)
	if err != nil {
		return domain.Trade{}, false
	}

	return domain.Trade{
		Price:        price.InexactFloat64(),
		Quantity:     qty.InexactFloat64(),
		Timestamp:    ev.TradeTime,
		IsBuyerMaker: ev.IsBuyerMaker,
	}, true
}
