package checkpoint

import (
	"encoding/json"
	"fmt"

	domainCheckpoint "github.com/colbyziyuwang/tianshou/internal/domain/checkpoint"
)

// Serializer converts component state to and from bytes.
type Serializer interface {
	// Marshal serializes state to bytes.
	Marshal(state interface{}) ([]byte, error)

	// Unmarshal deserializes bytes into target.
	Unmarshal(data []byte, target interface{}) error
}

// JSONSerializer implements Serializer using JSON.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Marshal serializes state to JSON bytes.
func (s *JSONSerializer) Marshal(state interface{}) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainCheckpoint.ErrSerializationFailed, err)
	}
	return data, nil
}

// Unmarshal deserializes JSON bytes into target.
func (s *JSONSerializer) Unmarshal(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", domainCheckpoint.ErrDeserializationFailed, err)
	}
	return nil
}
