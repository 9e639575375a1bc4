package output

import (
	"errors"
	"image"

	"github.com/weather-bot/meow/internal/logger"
)

var ErrNoHandlers = errors.New("no output handlers")

type Handler interface {
	Output(img image.Image) error
	Close() error
	GetType() string
}

// Manager fans a finished card out to every handler. It fails only when
// no handler succeeds.
type Manager struct {
	handlers []Handler
}

func NewManager(handlers ...Handler) *Manager {
	return &Manager{handlers: handlers}
}

func (m *Manager) AddHandler(h Handler) {
	m.handlers = append(m.handlers, h)
}

func (m *Manager) Output(img image.Image) error {
	if len(m.handlers) == 0 {
		return ErrNoHandlers
	}

	var lastErr error
	hasSuccess := false
	for _, h := range m.handlers {
		if err := h.Output(img); err != nil {
			logger.WarnModule("output", "%s failed: %v", h.GetType(), err)
			lastErr = err
		} else {
			hasSuccess = true
		}
	}

	if !hasSuccess {
		return lastErr
	}
	return nil
}

func (m *Manager) Close() error {
	var errs []error
	for _, h := range m.handlers {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
