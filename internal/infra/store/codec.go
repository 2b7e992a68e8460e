package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"chatbot-feedback/internal/domain"
	"chatbot-feedback/internal/domain/model"
)

// encode serializes the whole conversation list in the slot wire format:
// [{"id":..,"messages":[{"text":..,"sender":..}],"feedback":{..}|null}]
func encode(convs []*model.Conversation) ([]byte, error) {
	if convs == nil {
		convs = []*model.Conversation{}
	}
	for _, c := range convs {
		if c.Messages == nil {
			c.Messages = []model.Message{}
		}
	}
	return json.Marshal(convs)
}

// decode parses slot content. Anything that is not a list of well-formed
// conversations with unique ids is reported as domain.ErrCorruptStorage.
func decode(data []byte) ([]*model.Conversation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var convs []*model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptStorage, err)
	}
	seen := make(map[int64]struct{}, len(convs))
	for i, c := range convs {
		if c == nil {
			return nil, fmt.Errorf("%w: entry %d is null", domain.ErrCorruptStorage, i)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", domain.ErrCorruptStorage, i, err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrCorruptStorage, c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Messages == nil {
			c.Messages = []model.Message{}
		}
	}
	return convs, nil
}
