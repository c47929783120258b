package api

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/identity"
	"github.com/ssargent/canvaslog/pkg/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	APIKey         string // Required on write routes; empty disables writes
	LogPath        string // Canvas log served by the read routes
	MaxPayloadSize int
	Gatherer       prometheus.Gatherer // Source for /metrics; nil uses the default registry
}

// LogAppender appends records to the canvas log
type LogAppender interface {
	Append(rec canvas.Record) (int64, error)
}

// IdentityTable registers and resolves identities
type IdentityTable interface {
	Register(id canvas.Identifier, unique bool) (canvas.MetaIDIndex, error)
	Lookup(index canvas.MetaIDIndex) (canvas.Identifier, error)
}

// RecordView is the JSON form of one log entry
type RecordView struct {
	Offset int64         `json:"offset"`
	Type   string        `json:"type"`
	Tag    uint16        `json:"tag"`
	Size   uint32        `json:"size"`
	Silent bool          `json:"silent,omitempty"`
	Record canvas.Record `json:"record,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// NewRecordView renders entry, attaching err when the codec rejected it
func NewRecordView(entry store.Entry, err error) RecordView {
	view := RecordView{
		Offset: entry.Offset,
		Type:   entry.Tag.String(),
		Tag:    uint16(entry.Tag),
		Size:   entry.Size,
		Silent: entry.Tag.IsSilent(),
		Record: entry.Record,
	}
	if err != nil {
		view.Error = err.Error()
	}
	return view
}

// RecordsPage is the response of the record listing
type RecordsPage struct {
	Records    []RecordView `json:"records"`
	NextOffset int64        `json:"next_offset"`
	End        bool         `json:"end"`
	Corrupt    bool         `json:"corrupt,omitempty"`
}

// Placement kinds accepted by PlacementRequest
const (
	PlacementInsert     = "insert"
	PlacementInsertFill = "insert_fill"
	PlacementRemove     = "remove"
	PlacementRemoveFill = "remove_fill"
)

// PlacementRequest is the body of a placement append
type PlacementRequest struct {
	Kind  string `json:"kind"`
	Time  uint64 `json:"time"`
	Pos   uint64 `json:"pos"`
	End   uint64 `json:"end"` // Fill kinds only; Pos is the start
	Col   uint32 `json:"col"`
	Quiet bool   `json:"quiet"`
}

// Record converts the request to the record it describes
func (p PlacementRequest) Record() (canvas.Record, error) {
	var rec canvas.Record
	switch p.Kind {
	case PlacementInsert:
		rec = canvas.PlacementInsert{Time: p.Time, Pos: p.Pos, Col: p.Col}
	case PlacementInsertFill:
		rec = canvas.PlacementInsertFill{Time: p.Time, Pos: canvas.Bounds{Start: p.Pos, End: p.End}, Col: p.Col}
	case PlacementRemove:
		rec = canvas.PlacementRemove{Time: p.Time, Pos: p.Pos}
	case PlacementRemoveFill:
		rec = canvas.PlacementRemoveFill{Time: p.Time, Pos: canvas.Bounds{Start: p.Pos, End: p.End}}
	default:
		return nil, fmt.Errorf("unknown placement kind %q", p.Kind)
	}
	if p.Quiet {
		rec = canvas.Quiet(rec)
	}
	return rec, nil
}

// Identifier types accepted by IdentityRequest
const (
	IdentifierNumeric = "numeric"
	IdentifierString  = "string"
	IdentifierSecret  = "secret"
)

// IdentityRequest is the body of an identity registration. A secret with
// no value gets a fresh session secret.
type IdentityRequest struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Unique bool   `json:"unique"`
}

// Identifier converts the request to the identifier it describes
func (r IdentityRequest) Identifier() (canvas.Identifier, error) {
	switch r.Type {
	case IdentifierNumeric:
		n, err := strconv.ParseUint(r.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric identifier: %w", err)
		}
		return canvas.IdentifierNumeric(n), nil
	case IdentifierString:
		return canvas.IdentifierString(r.Value), nil
	case IdentifierSecret:
		if r.Value == "" {
			return identity.NewSessionSecret(), nil
		}
		return identity.ParseSessionID(r.Value)
	}
	return nil, fmt.Errorf("unknown identifier type %q", r.Type)
}

// IdentityView is the JSON form of a registered identity
type IdentityView struct {
	ID         string            `json:"id"`
	Index      uint32            `json:"index"`
	Unique     bool              `json:"unique"`
	Type       string            `json:"type"`
	Identifier canvas.Identifier `json:"identifier"`
	SessionID  string            `json:"session_id,omitempty"`
	Offset     *int64            `json:"offset,omitempty"`
}

// NewIdentityView renders id registered under index
func NewIdentityView(index canvas.MetaIDIndex, id canvas.Identifier) IdentityView {
	view := IdentityView{
		ID:         index.String(),
		Index:      index.Index(),
		Unique:     index.IsUnique(),
		Type:       id.Tag().String(),
		Identifier: id,
	}
	if secret, ok := id.(canvas.IdentifierSecret); ok {
		if s, err := identity.SessionID(secret); err == nil {
			view.SessionID = s
		}
	}
	return view
}
