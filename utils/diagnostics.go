package utils

import (
	"fmt"
	"log"
	"sync"
)

type NoticeKind uint8

const (
	MidsideNodesIgnored NoticeKind = iota
	ZeroThicknessShellSkipped
	FilterFailOpen
	UnsupportedElementSkipped
)

func (k NoticeKind) String() string {
	return [...]string{"MidsideNodesIgnored", "ZeroThicknessShellSkipped",
		"FilterFailOpen", "UnsupportedElementSkipped"}[k]
}

// Notice is one entry of the warning stream. ElementID is zero when the
// notice is not tied to a single element.
type Notice struct {
	Kind      NoticeKind
	Message   string
	ElementID int
	RMin      float64
	Count     int
	Err       error
}

func (n Notice) String() string {
	return fmt.Sprintf("WARNING [%s]: %s", n.Kind, n.Message)
}

// Diagnostics receives non-fatal notices produced while computing geometry
// and filtering.
type Diagnostics interface {
	Notify(n Notice)
}

// LogDiagnostics writes every notice to a standard library logger.
type LogDiagnostics struct {
	Logger *log.Logger
}

func NewLogDiagnostics(l *log.Logger) *LogDiagnostics {
	if l == nil {
		l = log.Default()
	}
	return &LogDiagnostics{Logger: l}
}

func (ld *LogDiagnostics) Notify(n Notice) {
	ld.Logger.Print(n.String())
}

// RecordingDiagnostics keeps notices in memory, optionally forwarding them.
type RecordingDiagnostics struct {
	mu      sync.Mutex
	notices []Notice
	Forward Diagnostics
}

func (rd *RecordingDiagnostics) Notify(n Notice) {
	rd.mu.Lock()
	rd.notices = append(rd.notices, n)
	rd.mu.Unlock()
	if rd.Forward != nil {
		rd.Forward.Notify(n)
	}
}

func (rd *RecordingDiagnostics) Notices() (notices []Notice) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	notices = make([]Notice, len(rd.notices))
	copy(notices, rd.notices)
	return
}

func (rd *RecordingDiagnostics) Count(kind NoticeKind) (count int) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	for _, n := range rd.notices {
		if n.Kind == kind {
			count++
		}
	}
	return
}

// OrDefault returns d, or a LogDiagnostics on the standard logger if d is nil.
func OrDefault(d Diagnostics) Diagnostics {
	if d == nil {
		return NewLogDiagnostics(nil)
	}
	return d
}
