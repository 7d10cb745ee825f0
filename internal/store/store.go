package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/lesson-service/internal/core"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrUnsupportedDriver indicates an unknown storage driver was configured.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	err = db.AutoMigrate(&Assignment{}, &AssignmentVariant{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// AssignmentRepository persists assignments and their variants.
type AssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a repository over an open database.
func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create persists a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *Assignment) error {
	err := r.db.WithContext(ctx).Create(assignment).Error
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

// Get loads an assignment and its variants.
func (r *AssignmentRepository) Get(ctx context.Context, id string) (*Assignment, error) {
	var assignment Assignment

	err := r.db.WithContext(ctx).Preload("Variants").First(&assignment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, id)
		}

		return nil, fmt.Errorf("failed to load assignment %s: %w", id, err)
	}

	return &assignment, nil
}

// List returns all assignments, newest first, without variants.
func (r *AssignmentRepository) List(ctx context.Context) ([]Assignment, error) {
	var assignments []Assignment

	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return assignments, nil
}

// UpdateStatus moves an assignment to a new lifecycle state. The error
// message is cleared unless the new state is failed.
func (r *AssignmentRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status core.AssignmentStatus,
	errorMessage string,
) error {
	if status != core.StatusFailed {
		errorMessage = ""
	}

	err := r.db.WithContext(ctx).
		Model(&Assignment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(status),
			"error_message": errorMessage,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update assignment %s status: %w", id, err)
	}

	return nil
}

// UpsertVariant inserts a variant or replaces the existing row for the same
// assignment and variant type.
func (r *AssignmentRepository) UpsertVariant(ctx context.Context, variant *AssignmentVariant) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}, {Name: "variant_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject", "content_text", "assets", "ready", "updated_at",
			}),
		}).
		Create(variant).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %s variant for assignment %s: %w",
			variant.VariantType, variant.AssignmentID, err)
	}

	return nil
}

// GetVariant loads one variant of an assignment by type.
func (r *AssignmentRepository) GetVariant(
	ctx context.Context,
	assignmentID string,
	variantType core.VariantType,
) (*AssignmentVariant, error) {
	var variant AssignmentVariant

	err := r.db.WithContext(ctx).
		First(&variant, "assignment_id = ? AND variant_type = ?", assignmentID, string(variantType)).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s variant of assignment %s",
				ErrNotFound, variantType, assignmentID)
		}

		return nil, fmt.Errorf("failed to load %s variant of assignment %s: %w",
			variantType, assignmentID, err)
	}

	return &variant, nil
}
