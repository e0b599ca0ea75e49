package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

type sqlxStaffRepository struct {
	db *sqlx.DB
}

// NewSQLXStaffRepository creates a read-only staff directory repository.
func NewSQLXStaffRepository(db *sqlx.DB) domain.StaffRepository {
	return &sqlxStaffRepository{db: db}
}

func toDomainStaffMember(m *models.StaffMember) *domain.StaffMember {
	if m == nil {
		return nil
	}
	return &domain.StaffMember{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		RoleID:       m.RoleID,
		CreatedAt:    m.CreatedAt,
	}
}

func (r *sqlxStaffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	var m models.StaffMember
	query := `SELECT id, restaurant_id, name, role_id, created_at FROM staff_members WHERE id = :1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get staff member by id: %w", err)
	}
	return toDomainStaffMember(&m), nil
}

func (r *sqlxStaffRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*domain.StaffMember, error) {
	var rows []models.StaffMember
	query := `SELECT id, restaurant_id, name, role_id, created_at FROM staff_members WHERE restaurant_id = :1 ORDER BY name`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, restaurantID); err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	staff := make([]*domain.StaffMember, 0, len(rows))
	for i := range rows {
		staff = append(staff, toDomainStaffMember(&rows[i]))
	}
	return staff, nil
}
