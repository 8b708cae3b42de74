// Package diag accumulates soft diagnostics raised during hierarchy building
// and export. Diagnostics never fail a run; they are collected as ordered,
// level-tagged messages exposed alongside the successful output.
package diag

import (
	"fmt"
	"log/slog"
)

// Level tags the severity of a diagnostic message.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Message is one accumulated diagnostic.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Collector gathers diagnostics and mirrors them to the logger.
type Collector struct {
	log  *slog.Logger
	msgs []Message
}

// NewCollector creates a collector mirroring messages to the given logger.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{log: logger}
}

// Warnf records a warning-level diagnostic.
func (c *Collector) Warnf(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.msgs = append(c.msgs, Message{Level: LevelWarn, Text: text})
	c.log.Warn(text)
}

// Infof records an info-level diagnostic.
func (c *Collector) Infof(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.msgs = append(c.msgs, Message{Level: LevelInfo, Text: text})
	c.log.Info(text)
}

// Messages returns the accumulated diagnostics in emission order.
func (c *Collector) Messages() []Message {
	return c.msgs
}
