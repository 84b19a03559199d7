package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrJSONMarshalFailed   = errors.New("failed to marshal station result")
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal station result")
	ErrInvalidResult       = errors.New("invalid station result")
)

// EncodeStationResult validates r and encodes it as JSON.
func EncodeStationResult(r StationResult) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONMarshalFailed, err)
	}
	return data, nil
}

// ParseStationResult decodes a JSON station result.
// It returns ErrJSONUnmarshalFailed (wrapping the original error) if unmarshalling fails.
func ParseStationResult(data []byte) (StationResult, error) {
	var r StationResult
	if err := json.Unmarshal(data, &r); err != nil {
		return StationResult{}, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return r, nil
}
