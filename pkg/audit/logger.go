// Package audit writes structured JSON audit records for governance
// lifecycle events. The writer is injectable; the default sink is stdout
// with an AUDIT: prefix for filtering.
package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/orchestrator"
)

// Record is one audit line.
type Record struct {
	ID         string                 `json:"id"`
	Event      string                 `json:"event"`
	ProposalID string                 `json:"proposal_id"`
	Phase      string                 `json:"phase"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Logger records governance events as JSON lines.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to the given writer.
func NewLoggerWithWriter(w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{writer: w}
}

// OnEvent implements orchestrator.Observer.
func (l *Logger) OnEvent(e orchestrator.Event) {
	record := Record{
		ID:         uuid.New().String(),
		Event:      string(e.Type),
		ProposalID: e.ProposalID,
		Phase:      e.Phase,
		Timestamp:  e.Timestamp,
		Data:       e.Data,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(record)
	if err != nil {
		return
	}
	_, _ = l.writer.Write(append(append([]byte("AUDIT: "), line...), '\n'))
}
