package domain

import (
	"sort"
	"time"
)

// DataType names an artifact kind a session can hold for a destination.
type DataType string

// Artifact kinds.
const (
	DataTypeThemes  DataType = "themes"
	DataTypeNuances DataType = "nuances"
	DataTypeImages  DataType = "images"
)

// AllDataTypes returns every artifact kind.
func AllDataTypes() []DataType {
	return []DataType{DataTypeThemes, DataTypeNuances, DataTypeImages}
}

// IsValid returns true if the data type is recognised.
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeThemes, DataTypeNuances, DataTypeImages:
		return true
	default:
		return false
	}
}

// Session is a directory-bound snapshot of one processing run, as seen
// from a single destination. Sessions are immutable once written.
type Session struct {
	// ID is the session directory name (e.g. "session_20240601_120000").
	ID string `json:"session_id"`

	// Path is the session directory on disk.
	Path string `json:"session_path"`

	// Destination is the destination slug the session was inspected for.
	Destination string `json:"destination"`

	// CreatedAt is the session directory's modification time.
	CreatedAt time.Time `json:"creation_date"`

	// DataTypes lists the artifacts present for the destination.
	DataTypes []DataType `json:"data_types"`

	// QualityScores maps data type to the score embedded in its artifact.
	// Images carry no score.
	QualityScores map[DataType]float64 `json:"quality_scores"`
}

// Has reports whether the session holds an artifact of type t.
func (s Session) Has(t DataType) bool {
	for _, dt := range s.DataTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// Quality returns the embedded quality score for t, or 0 when absent.
func (s Session) Quality(t DataType) float64 {
	if s.QualityScores == nil {
		return 0
	}
	return s.QualityScores[t]
}

// SortSessionsNewestFirst orders sessions by creation time, newest first.
// Equal times fall back to the session ID, which encodes the creation
// timestamp, so the order is deterministic.
func SortSessionsNewestFirst(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].ID > sessions[j].ID
	})
}
