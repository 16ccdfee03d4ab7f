package crm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wolfman30/lead-relay/internal/locations"
	"github.com/wolfman30/lead-relay/internal/tenantconfig"
)

var (
	// ErrMissingToken is returned when no bearer credential is configured.
	ErrMissingToken = errors.New("crm: missing api token")

	// ErrForwardFailed is returned once every forward variant has failed.
	ErrForwardFailed = errors.New("crm: lead forward failed")
)

// StatusError is a non-2xx response from the CRM.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("crm: status %d: %s", e.StatusCode, e.Body)
}

// configEnvelope tolerates lists at the top level or nested under "data".
// A top-level value that is not an array defers to the nested one.
type configEnvelope struct {
	Locations json.RawMessage `json:"locations"`
	Sources   json.RawMessage `json:"sources"`
	Data      *struct {
		Locations json.RawMessage `json:"locations"`
		Sources   json.RawMessage `json:"sources"`
	} `json:"data"`
}

type locationDTO struct {
	ID   opaqueID `json:"id"`
	Name string   `json:"name"`
}

// opaqueID keeps numeric identifiers as their literal digits.
type opaqueID string

func (o *opaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = opaqueID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("crm: location id: %w", err)
	}
	*o = opaqueID(n.String())
	return nil
}

// sourceDTO accepts a bare string or an object with a name.
type sourceDTO string

func (s *sourceDTO) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = sourceDTO(str)
		return nil
	}
	var obj struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("crm: source: %w", err)
	}
	if obj.Name != "" {
		*s = sourceDTO(obj.Name)
	} else {
		*s = sourceDTO(obj.Value)
	}
	return nil
}

func (e configEnvelope) snapshot() (tenantconfig.Snapshot, error) {
	locRaw, srcRaw := e.Locations, e.Sources
	if !isArray(locRaw) && e.Data != nil {
		locRaw = e.Data.Locations
	}
	if !isArray(srcRaw) && e.Data != nil {
		srcRaw = e.Data.Sources
	}

	var (
		locs []locationDTO
		srcs []sourceDTO
	)
	if isArray(locRaw) {
		if err := json.Unmarshal(locRaw, &locs); err != nil {
			return tenantconfig.Snapshot{}, fmt.Errorf("crm: decode locations: %w", err)
		}
	}
	if isArray(srcRaw) {
		if err := json.Unmarshal(srcRaw, &srcs); err != nil {
			return tenantconfig.Snapshot{}, fmt.Errorf("crm: decode sources: %w", err)
		}
	}

	snap := tenantconfig.Snapshot{
		Locations: make([]locations.Location, 0, len(locs)),
		Sources:   make([]string, 0, len(srcs)),
	}
	for _, l := range locs {
		if l.ID == "" {
			continue
		}
		snap.Locations = append(snap.Locations, locations.Location{ID: string(l.ID), Name: l.Name})
	}
	for _, s := range srcs {
		if s != "" {
			snap.Sources = append(snap.Sources, string(s))
		}
	}
	return snap, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
