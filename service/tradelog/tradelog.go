// Package tradelog is the append-only record of detected buys: one line per
// buy, written before any mirror swap is attempted so the record survives
// downstream failures.
package tradelog

import (
	"fmt"
	"os"
	"sync"
)

// Sink records detected buys. Implementations must be safe for concurrent
// use; webhook deliveries can overlap.
type Sink interface {
	RecordBuy(wallet, signature string) error
	Close() error
}

// FileSink appends one line per detected buy to a log file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewFileSink opens (creating if necessary) the trade log at path for
// appending.
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log %s: %w", path, err)
	}
	return &FileSink{file: file, path: path}, nil
}

// RecordBuy appends a buy line. The format matches the historical
// wallet-monitor log so existing grep-based tooling keeps working.
func (s *FileSink) RecordBuy(wallet, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("Buy detected: Wallet %s made a purchase - Tx: %s\n", wallet, signature)
	if _, err := s.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to write trade log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
