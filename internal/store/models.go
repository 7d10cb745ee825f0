// Package store provides relational persistence for assignments and their
// generated variants.
package store

import (
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// uploadsURLPrefix is the public route the display layer serves generated
// assets under.
const uploadsURLPrefix = "/uploads"

// Assignment is a lesson submitted for variant generation. Status moves
// pending -> generating -> ready or failed; ready and failed are terminal.
type Assignment struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	Title           string `gorm:"not null"`
	Subject         string `gorm:"not null"`
	TeacherID       string
	OriginalContent string `gorm:"type:text"`
	FilePath        string
	Status          string `gorm:"not null;default:pending"`
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Variants []AssignmentVariant `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}

// AssignmentVariant is one generated artifact for an assignment. ContentText
// carries the complete structured payload as JSON; it is the display layer's
// only source of truth. At most one row exists per (assignment, type).
type AssignmentVariant struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	AssignmentID string `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_variant,priority:1"`
	VariantType  string `gorm:"not null;uniqueIndex:idx_assignment_variant,priority:2"`
	Subject      string
	ContentText  string `gorm:"type:text"`
	Assets       string `gorm:"type:text"`
	Ready        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns an identifier when the caller has not.
func (a *Assignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	return nil
}

// BeforeCreate assigns an identifier when the caller has not.
func (v *AssignmentVariant) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	return nil
}

// SetAssets stores the asset name to relative path map as JSON.
func (v *AssignmentVariant) SetAssets(assets map[string]string) error {
	data, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("failed to marshal variant assets: %w", err)
	}

	v.Assets = string(data)

	return nil
}

// AssetMap decodes the stored asset map. A variant with no assets yields an
// empty map.
func (v *AssignmentVariant) AssetMap() (map[string]string, error) {
	if v.Assets == "" {
		return map[string]string{}, nil
	}

	var assets map[string]string

	err := json.Unmarshal([]byte(v.Assets), &assets)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal variant assets: %w", err)
	}

	return assets, nil
}

// AssetURLs maps every stored asset path to the relative URL the display
// layer serves it under. Callers never see filesystem paths.
func (v *AssignmentVariant) AssetURLs() (map[string]string, error) {
	assets, err := v.AssetMap()
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(assets))
	for name, relPath := range assets {
		urls[name] = AssetURL(relPath)
	}

	return urls, nil
}

// AssetURL converts an upload-root-relative path to its public URL.
func AssetURL(relPath string) string {
	return path.Join(uploadsURLPrefix, path.Clean("/"+relPath))
}
