package storage

import (
	"time"

	"gorm.io/datatypes"
)

// BakedCurve is one curve in the library, unique per clip and curve name.
type BakedCurve struct {
	ID            uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	BakeID        string         `json:"bakeId" gorm:"size:36;index"`
	Clip          string         `json:"clip" gorm:"size:255;not null;uniqueIndex:idx_clip_curve"`
	CurveName     string         `json:"curveName" gorm:"size:255;not null;uniqueIndex:idx_clip_curve"`
	EditLabel     string         `json:"editLabel" gorm:"size:128"`
	Bone          string         `json:"bone" gorm:"size:255"`
	Axis          string         `json:"axis" gorm:"size:3"`
	SampleRate    int            `json:"sampleRate"`
	ReferenceTime float64        `json:"referenceTime"`
	StopAtEnd     bool           `json:"stopAtEnd"`
	KeyCount      int            `json:"keyCount"`
	Keys          datatypes.JSON `json:"keys"`
	// Path is the sampled bone path as a WKT LineString ZM with M = clip time.
	Path string `json:"path" gorm:"type:text"`
}

func (*BakedCurve) TableName() string {
	return "baked_curves"
}
