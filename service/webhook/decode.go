package webhook

import (
	"encoding/json"
	"fmt"
)

// DecodeError reports a malformed webhook payload. Decoding is
// all-or-nothing: one bad entry fails the whole batch.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode webhook batch: %v", e.cause)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// DecodeBatch parses raw webhook bytes into a Batch. It is a pure function:
// no logging, no side effects. Unknown fields are ignored and missing
// optional fields take their zero defaults, but an event without a
// transaction body is malformed and fails the batch.
func DecodeBatch(raw []byte) (Batch, error) {
	var batch Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, &DecodeError{cause: err}
	}

	for i := range batch {
		if batch[i].Transaction == nil {
			return nil, &DecodeError{cause: fmt.Errorf("event %d: missing required transaction", i)}
		}
	}

	return batch, nil
}
