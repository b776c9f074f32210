package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
	StatusError  = "ERROR"
)

// Entry represents one audited workflow operation.
type Entry struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Operation   string            `json:"operation"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Subscriber receives audit entries via a channel.
type Subscriber struct {
	C  chan Entry
	id string
}

// Logger is an async audit logger that keeps log writes off the signing path.
type Logger struct {
	entries chan Entry
	out     io.Writer

	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	store       []Entry
	closed      bool

	done chan struct{}
}

// NewLogger creates a logger with the given buffer size. Entries are written
// as JSON lines to out when it is non-nil.
func NewLogger(bufferSize int, out io.Writer) *Logger {
	l := &Logger{
		entries:     make(chan Entry, bufferSize),
		out:         out,
		subscribers: make(map[string]*Subscriber),
		done:        make(chan struct{}),
	}
	go l.processLoop()
	return l
}

// Log queues an entry. It never blocks: a full buffer drops the entry.
// Logging on a nil or closed Logger is a no-op.
func (l *Logger) Log(operation, fingerprint, status string, metadata map[string]string) {
	if l == nil {
		return
	}
	entry := Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Operation:   operation,
		Fingerprint: fingerprint,
		Status:      status,
		Metadata:    metadata,
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.entries <- entry:
	default:
		slog.Warn("audit log buffer full, dropping entry", "operation", operation)
	}
}

// Subscribe creates a new subscriber that receives entries via a buffered
// channel. On a closed Logger the channel is already closed.
func (l *Logger) Subscribe() *Subscriber {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub := &Subscriber{
		C:  make(chan Entry, 64),
		id: uuid.NewString(),
	}
	if l.closed {
		close(sub.C)
		return sub
	}
	l.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (l *Logger) Unsubscribe(sub *Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subscribers[sub.id]; !ok {
		return
	}
	delete(l.subscribers, sub.id)
	close(sub.C)
}

// Query returns stored entries newest first. Empty filters match everything.
func (l *Logger) Query(fingerprint, operation string, start, end time.Time, limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []Entry
	for i := len(l.store) - 1; i >= 0; i-- {
		e := l.store[i]
		if fingerprint != "" && e.Fingerprint != fingerprint {
			continue
		}
		if operation != "" && e.Operation != operation {
			continue
		}
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && e.Timestamp.After(end) {
			continue
		}
		results = append(results, e)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Close drains queued entries, stops the processing loop and closes all
// subscriber channels.
func (l *Logger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.entries)
	l.mu.Unlock()

	<-l.done

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, sub := range l.subscribers {
		delete(l.subscribers, id)
		close(sub.C)
	}
}

func (l *Logger) processLoop() {
	defer close(l.done)

	for entry := range l.entries {
		l.mu.Lock()
		l.store = append(l.store, entry)
		l.mu.Unlock()

		if l.out != nil {
			data, err := json.Marshal(entry)
			if err != nil {
				slog.Error("audit marshal", "error", err)
				continue
			}
			fmt.Fprintf(l.out, "%s\n", data)
		}

		// Fan-out to subscribers (non-blocking)
		l.mu.RLock()
		for _, sub := range l.subscribers {
			select {
			case sub.C <- entry:
			default:
			}
		}
		l.mu.RUnlock()
	}
}
