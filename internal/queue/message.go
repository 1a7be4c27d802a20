package queue

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidMessage = errors.New("invalid job message")

// JobFile is an uploaded document referenced by its object key.
type JobFile struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// ExtractJobMsg asks the worker to extract Files with Task and merge the
// results into GraphTag.
type ExtractJobMsg struct {
	CorrelationID string    `json:"correlation_id"`
	GraphTag      string    `json:"graph_tag"`
	Task          string    `json:"task"`
	Files         []JobFile `json:"files"`
}

// DeleteJobMsg asks the worker to delete GraphTag and the uploads below
// Prefix.
type DeleteJobMsg struct {
	CorrelationID string `json:"correlation_id"`
	GraphTag      string `json:"graph_tag"`
	Prefix        string `json:"prefix,omitempty"`
}

func decodeExtract(body []byte) (*ExtractJobMsg, error) {
	msg := new(ExtractJobMsg)
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.GraphTag == "" || msg.Task == "" || len(msg.Files) == 0 {
		return nil, fmt.Errorf("%w: extract job needs graph_tag, task and files", ErrInvalidMessage)
	}
	for i, f := range msg.Files {
		if f.Key == "" {
			return nil, fmt.Errorf("%w: file %d has no key", ErrInvalidMessage, i)
		}
	}
	return msg, nil
}

func decodeDelete(body []byte) (*DeleteJobMsg, error) {
	msg := new(DeleteJobMsg)
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.GraphTag == "" {
		return nil, fmt.Errorf("%w: delete job needs graph_tag", ErrInvalidMessage)
	}
	return msg, nil
}
