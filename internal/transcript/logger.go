// Package transcript provides NDJSON logging of interview conversations.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event types recorded in the transcript log.
const (
	EventQuestion   = "question"
	EventAnswer     = "answer"
	EventFollowup   = "followup"
	EventConclusion = "conclusion"
	EventError      = "error"
)

// Event is one logged line of an interview transcript.
type Event struct {
	Timestamp   string         `json:"ts"`
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id,omitempty"`
	InterviewID string         `json:"interview_id,omitempty"`
	EventType   string         `json:"event_type"`
	Role        string         `json:"role,omitempty"`
	Content     string         `json:"content,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Logger records interview transcript events. Implementations must be safe
// for concurrent use and must never block the interview turn path.
type Logger interface {
	Log(ev Event)
	Close() error
}

// Noop discards all events.
type Noop struct{}

// Log implements Logger.
func (Noop) Log(Event) {}

// Close implements Logger.
func (Noop) Close() error { return nil }

// Config controls transcript logging.
type Config struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// fileLogger writes one NDJSON file per session under Dir, plus an optional
// global file with every event. Writes go through a bounded queue serviced
// by a single goroutine; events are dropped, not blocked on, when the queue
// is full.
type fileLogger struct {
	cfg     Config
	logger  *slog.Logger
	queue   chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	dropped int64
	mu      sync.Mutex // guards dropped and closed
	closed  bool
}

// NewLogger creates a transcript logger. When the config disables logging a
// Noop logger is returned.
func NewLogger(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled && !cfg.GlobalEnabled {
		return Noop{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	if cfg.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating transcript log dir: %w", err)
		}
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o750); err != nil {
			return nil, fmt.Errorf("creating global transcript log dir: %w", err)
		}
	}

	l := &fileLogger{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Log enqueues an event, stamping the timestamp if absent. Events are
// dropped when the queue is full.
func (l *fileLogger) Log(ev Event) {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	select {
	case l.queue <- ev:
	default:
		l.mu.Lock()
		l.dropped++
		n := l.dropped
		l.mu.Unlock()
		if n%100 == 1 {
			l.logger.Warn("transcript log queue full, dropping events", "dropped_total", n)
		}
	}
}

// Close drains the queue and stops the writer goroutine.
func (l *fileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
	return nil
}

func (l *fileLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case ev := <-l.queue:
			l.write(ev)
		case <-l.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case ev := <-l.queue:
					l.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (l *fileLogger) write(ev Event) {
	line, err := json.Marshal(ev)
	if err != nil {
		l.logger.Warn("failed to marshal transcript event", "error", err)
		return
	}
	line = append(line, '\n')

	if l.cfg.Enabled && ev.SessionID != "" {
		path := filepath.Join(l.cfg.Dir, ev.SessionID+".ndjson")
		if err := appendLine(path, line); err != nil {
			l.logger.Warn("failed to write transcript event", "error", err, "path", path)
		}
	}
	if l.cfg.GlobalEnabled {
		if err := appendLine(l.cfg.GlobalPath, line); err != nil {
			l.logger.Warn("failed to write global transcript event", "error", err)
		}
	}
}

func appendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
