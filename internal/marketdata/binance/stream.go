package binance

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rpdbot/internal/model"
)

const defaultStreamURL = "wss://stream.binance.com:9443/ws"

// Stream maintains a rolling candle series for one symbol+interval from the
// Binance kline WebSocket, seeded from the REST API. Candles() then serves a
// snapshot without touching the network, so polling stays cheap even on short
// cadences.
type Stream struct {
	rest     *Client
	wsURL    string
	symbol   string
	interval string
	depth    int // max candles retained

	// Optional hook, called each time a reconnection happens.
	OnReconnect func()

	mu     sync.RWMutex
	series model.Series
	seeded bool
}

// NewStream creates a streaming source for one symbol+interval. depth bounds
// the retained history; wsURL empty uses the public endpoint.
func NewStream(rest *Client, wsURL, symbol, interval string, depth int) *Stream {
	if wsURL == "" {
		wsURL = defaultStreamURL
	}
	if depth <= 0 {
		depth = 200
	}
	return &Stream{
		rest:     rest,
		wsURL:    wsURL,
		symbol:   symbol,
		interval: interval,
		depth:    depth,
	}
}

func (s *Stream) Name() string { return "binance-ws" }

// Candles serves the in-memory snapshot. symbol and interval must match the
// stream's own; limit trims from the oldest end.
func (s *Stream) Candles(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	if symbol != s.symbol || interval != s.interval {
		return nil, fmt.Errorf("binance-ws: stream serves %s@%s, asked for %s@%s",
			s.symbol, s.interval, symbol, interval)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.seeded {
		return nil, nil // not warmed up yet, caller skips this cycle
	}
	src := s.series
	if limit > 0 && len(src) > limit {
		src = src[len(src)-limit:]
	}
	out := make(model.Series, len(src))
	copy(out, src)
	return out, nil
}

// Start seeds the series over REST and then consumes the kline stream,
// reconnecting with exponential backoff. Blocks until ctx is cancelled.
func (s *Stream) Start(ctx context.Context) error {
	if err := s.seed(ctx); err != nil {
		return err
	}

	delay := 2 * time.Second
	const maxDelay = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := s.runOnce(ctx)
		if err == nil {
			return nil // context cancelled cleanly
		}

		log.Printf("[binance-ws] %s disconnected (%v), reconnecting in %s...", s.symbol, err, delay)
		if s.OnReconnect != nil {
			s.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (s *Stream) seed(ctx context.Context) error {
	series, err := s.rest.Candles(ctx, s.symbol, s.interval, s.depth)
	if err != nil {
		return fmt.Errorf("binance-ws: seed %s: %w", s.symbol, err)
	}
	s.mu.Lock()
	s.series = series
	s.seeded = true
	s.mu.Unlock()
	log.Printf("[binance-ws] %s@%s seeded with %d candles", s.symbol, s.interval, len(series))
	return nil
}

// klineEvent is the kline stream payload. Prices are string-encoded.
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		OpenTimeMs int64  `json:"t"`
		Open       string `json:"o"`
		High       string `json:"h"`
		Low        string `json:"l"`
		Close      string `json:"c"`
		Volume     string `json:"v"`
		Closed     bool   `json:"x"`
	} `json:"k"`
}

// runOnce makes a single connection attempt and reads until disconnect or ctx cancel.
func (s *Stream) runOnce(ctx context.Context) error {
	streamName := strings.ToLower(s.symbol) + "@kline_" + s.interval
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL+"/"+streamName, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[binance-ws] connected to %s", streamName)

	// Async context watcher closes the connection when ctx is cancelled.
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		var ev klineEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ev.EventType != "kline" {
			continue
		}

		candle, err := ev.candle()
		if err != nil {
			log.Printf("[binance-ws] %s bad kline event: %v", s.symbol, err)
			continue
		}
		s.apply(candle)
	}
}

func (ev *klineEvent) candle() (model.Candle, error) {
	var fields [5]float64
	for i, raw := range [5]string{ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		fields[i] = v
	}
	return model.Candle{
		TS:     time.UnixMilli(ev.Kline.OpenTimeMs).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

// StreamSet routes Candles calls to per-symbol streams so several streamed
// assets can share the single "binance-ws" source id.
type StreamSet struct {
	streams map[string]*Stream
}

// NewStreamSet creates an empty stream set.
func NewStreamSet() *StreamSet {
	return &StreamSet{streams: make(map[string]*Stream)}
}

// Add registers a stream under its symbol+interval.
func (ss *StreamSet) Add(st *Stream) {
	ss.streams[st.symbol+"@"+st.interval] = st
}

// Streams returns the registered streams, for starting them.
func (ss *StreamSet) Streams() []*Stream {
	out := make([]*Stream, 0, len(ss.streams))
	for _, st := range ss.streams {
		out = append(out, st)
	}
	return out
}

func (ss *StreamSet) Name() string { return "binance-ws" }

// Candles dispatches to the stream registered for symbol+interval.
func (ss *StreamSet) Candles(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	st, ok := ss.streams[symbol+"@"+interval]
	if !ok {
		return nil, fmt.Errorf("binance-ws: no stream registered for %s@%s", symbol, interval)
	}
	return st.Candles(ctx, symbol, interval, limit)
}

// apply upserts one candle: same open time replaces the forming tail, a newer
// one appends, and anything older is ignored (out-of-order frame).
func (s *Stream) apply(c model.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.series)
	switch {
	case n > 0 && s.series[n-1].TS.Equal(c.TS):
		s.series[n-1] = c
	case n == 0 || s.series[n-1].TS.Before(c.TS):
		s.series = append(s.series, c)
		if len(s.series) > s.depth {
			s.series = s.series[len(s.series)-s.depth:]
		}
	}
}
