package model

import (
	"time"

	"gorm.io/datatypes"
)

// Gender tags a name as male or female.
const (
	GenderMale   = "m"
	GenderFemale = "f"
)

// Name is a catalog entry that users vote on.
type Name struct {
	ID     uint              `json:"id" gorm:"primaryKey"`
	Source string            `json:"source" gorm:"size:100;not null;index"`
	Name   string            `json:"name" gorm:"size:255;not null;index"`
	Gender *string           `json:"gender" gorm:"size:1;index"`
	Rank   *int              `json:"rank"`
	Count  *int              `json:"count" gorm:"index"`
	Info   datatypes.JSONMap `json:"info,omitempty"`

	// InfoCheckedAt is set once a lookup ran, even when it found nothing.
	InfoCheckedAt *time.Time `json:"-"`
}

// Weight is the popularity count used for sampling and ordering; null counts
// weigh nothing.
func (n Name) Weight() int {
	if n.Count == nil {
		return 0
	}
	return *n.Count
}

// HasInfo reports whether enrichment data has been stored. A bare
// pronunciation entry does not count.
func (n Name) HasInfo() bool {
	if len(n.Info) == 0 {
		return false
	}
	if _, ok := n.Info["ipa"]; ok && len(n.Info) == 1 {
		return false
	}
	return true
}

// NeedsInfo reports whether the enrichment job should process the name.
func (n Name) NeedsInfo() bool {
	return n.InfoCheckedAt == nil && !n.HasInfo()
}

// NameWeight is the projection the sampler works on.
type NameWeight struct {
	ID    uint
	Count int
}
