package log

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
)

// NewMockEntry returns an entry on a null logger at trace level whose
// messages are captured by the returned hook.
func NewMockEntry() (*logrus.Entry, *MockLoggerHook) {
	logger, _ := test.NewNullLogger()
	logger.Level = logrus.TraceLevel

	entry := logrus.NewEntry(logger)
	hook := MockLoggerHook{}

	logger.AddHook(&hook)

	hook.On("Fire", mock.Anything).Return(nil)

	return entry, &hook
}

type MockLoggerHook struct {
	mock.Mock

	Messages     []string
	LoggedLevels []logrus.Level
	mu           sync.Mutex
}

// Levels implements `logrus.Hook`.
func (h *MockLoggerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements `logrus.Hook`.
func (h *MockLoggerHook) Fire(entry *logrus.Entry) error {
	_ = h.Called(entry.Level)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.Messages = append(h.Messages, entry.Message)
	h.LoggedLevels = append(h.LoggedLevels, entry.Level)

	return nil
}

// ContainsMessage reports whether any captured message contains substr.
func (h *MockLoggerHook) ContainsMessage(substr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.Messages {
		if strings.Contains(m, substr) {
			return true
		}
	}

	return false
}

// CountAt returns the number of captured entries logged at level.
func (h *MockLoggerHook) CountAt(level logrus.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0

	for _, l := range h.LoggedLevels {
		if l == level {
			n++
		}
	}

	return n
}

// Reset clears all captured entries.
func (h *MockLoggerHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Messages = nil
	h.LoggedLevels = nil
}
