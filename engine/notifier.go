package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// NoticeLevel mirrors the toast levels of the original UI.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is one user-visible transient message.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// Notifier receives user-visible notices from the engine.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// NoticeLog keeps the most recent notices for the gateway to expose and logs
// each one. It is the standard Notifier implementation.
type NoticeLog struct {
	log  *zap.SugaredLogger
	keep int

	mu      sync.Mutex
	notices []Notice
}

// NewNoticeLog creates a notifier retaining the last keep notices.
func NewNoticeLog(log *zap.SugaredLogger, keep int) *NoticeLog {
	if keep <= 0 {
		keep = 50
	}
	return &NoticeLog{log: log, keep: keep}
}

// Notify records and logs one notice.
func (n *NoticeLog) Notify(level NoticeLevel, message string) {
	if n.log != nil {
		switch level {
		case NoticeError:
			n.log.Warnw("notice", "level", level, "message", message)
		default:
			n.log.Infow("notice", "level", level, "message", message)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Level: level, Message: message, At: time.Now()})
	if len(n.notices) > n.keep {
		n.notices = n.notices[len(n.notices)-n.keep:]
	}
}

// Recent returns the retained notices, oldest first.
func (n *NoticeLog) Recent() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}
