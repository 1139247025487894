package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/scene"
)

// Session is one websocket connection with its own view of the shared scene.
type Session struct {
	ID          string
	ConnectedAt time.Time

	conn    *websocket.Conn
	view    *scene.View
	config  Config
	metrics *Metrics
	limiter *rate.Limiter
	logger  log.Log

	send      chan Response
	done      chan struct{}
	closeOnce sync.Once
}

type requestHandler func(ctx context.Context, session *Session, req *Request) (*Response, error)

func newSession(id string, conn *websocket.Conn, view *scene.View, config Config, metrics *Metrics, logger log.Log) *Session {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestRate), max(1, config.RequestBurst))
	}
	return &Session{
		ID:          id,
		ConnectedAt: time.Now(),
		conn:        conn,
		view:        view,
		config:      config,
		metrics:     metrics,
		limiter:     limiter,
		logger:      logger.With(log.String("session_id", id)),
		send:        make(chan Response, config.SendBuffer),
		done:        make(chan struct{}),
	}
}

func (s *Session) View() *scene.View { return s.view }

// Send queues a response without blocking.
func (s *Session) Send(resp Response) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- resp:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return errors.New("send queue full")
	}
}

// Close ends both loops; it is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// run serves the session until the client goes away or Close is called.
func (s *Session) run(handle requestHandler) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	s.readLoop(handle)
	s.Close()
	wg.Wait()
}

func (s *Session) readLoop(handle requestHandler) {
	s.conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Failed to receive message", log.Error(err))
			}
			return
		}

		if !s.limiter.Allow() {
			s.metrics.RateLimited.Inc()
			_ = s.Send(errorResponse(ErrRateLimited))
			continue
		}

		var req Request
		if err = json.Unmarshal(data, &req); err != nil {
			_ = s.Send(errorResponse(ErrInvalidMessage))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.config.MessageTimeout)
		resp, err := handle(ctx, s, &req)
		cancel()

		if err != nil {
			s.logger.Debug("Request failed", log.String("action", req.Action), log.Error(err))
			_ = s.Send(errorResponse(err))
			continue
		}
		if resp != nil {
			if err = s.Send(*resp); err != nil {
				s.metrics.Dropped.Inc()
				s.logger.Warn("Dropped response", log.String("action", req.Action), log.Error(err))
			}
		}
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case resp := <-s.send:
			if s.config.WriteTimeout > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			}
			if err := s.conn.WriteJSON(resp); err != nil {
				s.logger.Warn("Failed to send message", log.String("type", resp.Type), log.Error(err))
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func errorResponse(err error) Response {
	return Response{Type: TypeError, Error: err.Error()}
}
