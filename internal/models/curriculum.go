package models

import "time"

// Track identifies an independent curriculum lane for a student.
type Track string

const (
	// TrackHifz covers new memorization.
	TrackHifz Track = "HIFZ"
	// TrackTilawah covers recitation from text.
	TrackTilawah Track = "TILAWAH"
	// TrackRevision covers review of previously memorized material.
	TrackRevision Track = "REVISION"
)

// AllTracks lists every supported track in display order.
var AllTracks = []Track{TrackHifz, TrackTilawah, TrackRevision}

// Valid returns true when the track is a supported value.
func (t Track) Valid() bool {
	switch t {
	case TrackHifz, TrackTilawah, TrackRevision:
		return true
	default:
		return false
	}
}

// CurriculumUnit is one surah of the reference table. Ordinal order
// defines the curriculum sequence; the table is read-only.
type CurriculumUnit struct {
	Ordinal   int    `db:"ordinal" json:"ordinal"`
	Name      string `db:"name" json:"name"`
	Juz       int    `db:"juz" json:"juz"`
	AyahCount int    `db:"ayah_count" json:"ayah_count"`
}

// CurriculumPoint is a comparable place in the curriculum: a surah
// ordinal plus the last completed ayah within it.
type CurriculumPoint struct {
	UnitOrdinal int `json:"unit_ordinal"`
	AyahOffset  int `json:"ayah_offset"`
}

// Less reports whether p is strictly behind o in curriculum order.
func (p CurriculumPoint) Less(o CurriculumPoint) bool {
	if p.UnitOrdinal != o.UnitOrdinal {
		return p.UnitOrdinal < o.UnitOrdinal
	}
	return p.AyahOffset < o.AyahOffset
}

// TrackPosition is a student's furthest verified point on one track.
// It only ever moves forward.
type TrackPosition struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	Track       Track     `db:"track" json:"track"`
	UnitOrdinal int       `db:"unit_ordinal" json:"unit_ordinal"`
	AyahOffset  int       `db:"ayah_offset" json:"ayah_offset"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Point returns the comparable curriculum point of the position.
func (p TrackPosition) Point() CurriculumPoint {
	return CurriculumPoint{UnitOrdinal: p.UnitOrdinal, AyahOffset: p.AyahOffset}
}

// TrackStanding is one entry of a student's position map. Position is
// nil for tracks the student has not started.
type TrackStanding struct {
	Track    Track          `json:"track"`
	Started  bool           `json:"started"`
	Position *TrackPosition `json:"position,omitempty"`
	UnitName string         `json:"unit_name,omitempty"`
}
