// Package gcsimport moves SMS exports and expense reports between Google
// Cloud Storage and the ingestion pipeline.
package gcsimport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
)

// maxLineBytes caps a single JSON line. Long bank messages stay well under it.
const maxLineBytes = 1 << 20

// DecodeMessages parses a JSON-lines export. Each non-blank line must be an
// object with "sender", "body" and optional RFC3339 "received_at".
func DecodeMessages(data []byte) ([]pipeline.Message, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var msgs []pipeline.Message
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg pipeline.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("DecodeMessages: line %d: %w", lineNo, err)
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("DecodeMessages: scanning: %w", err)
	}

	return msgs, nil
}
