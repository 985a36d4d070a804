package store

import (
	"fmt"

	"github.com/roach88/remap/internal/event"
)

// marshalEvent converts an event to compressed canonical JSON for storage.
// The hash is taken over the uncompressed canonical form.
func (s *Store) marshalEvent(ev *event.Event) (blob []byte, hash string, err error) {
	canonical, err := event.MarshalCanonicalEvent(ev)
	if err != nil {
		return nil, "", fmt.Errorf("marshal event: %w", err)
	}
	hash, err = event.Hash(ev)
	if err != nil {
		return nil, "", err
	}
	return s.encoder.EncodeAll(canonical, nil), hash, nil
}

// unmarshalEvent decompresses and parses a stored event.
func (s *Store) unmarshalEvent(blob []byte) (*event.Event, error) {
	data, err := s.decompress(blob)
	if err != nil {
		return nil, err
	}
	return parseEvent(data)
}

func parseEvent(data []byte) (*event.Event, error) {
	ev, err := event.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}

// decompress returns the canonical JSON held in a stored payload.
func (s *Store) decompress(blob []byte) ([]byte, error) {
	data, err := s.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return data, nil
}
