package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// ClassroomRepository manages persistence for classrooms and the pairwise
// proximity scores between them.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns classrooms matching the provided filters.
func (r *ClassroomRepository) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	base := "FROM classrooms r"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ExamEligible != nil {
		conditions = append(conditions, fmt.Sprintf("r.exam_eligible = $%d", len(args)+1))
		args = append(args, *filter.ExamEligible)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(r.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":     "r.name",
		"capacity": "r.capacity",
	}
	if sortBy == "" {
		sortBy = "name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "r.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT r.id, r.name, r.capacity, r.exam_eligible, r.created_at, r.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classrooms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classrooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID fetches a classroom by ID.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, name, capacity, exam_eligible, created_at, updated_at FROM classrooms WHERE id = $1`
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a new classroom record.
func (r *ClassroomRepository) Create(ctx context.Context, room *models.Classroom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	const query = `INSERT INTO classrooms (id, name, capacity, exam_eligible, created_at, updated_at)
        VALUES (:id, :name, :capacity, :exam_eligible, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// Update modifies an existing classroom.
func (r *ClassroomRepository) Update(ctx context.Context, room *models.Classroom) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classrooms SET name = :name, capacity = :capacity, exam_eligible = :exam_eligible, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}
	return nil
}

// ListProximity returns every proximity edge.
func (r *ClassroomRepository) ListProximity(ctx context.Context) ([]models.ClassroomProximity, error) {
	const query = `SELECT from_classroom_id, to_classroom_id, distance_score FROM classroom_proximity ORDER BY from_classroom_id, to_classroom_id`
	var edges []models.ClassroomProximity
	if err := r.db.SelectContext(ctx, &edges, query); err != nil {
		return nil, fmt.Errorf("list proximity: %w", err)
	}
	return edges, nil
}

// UpsertProximity records or updates a directed distance score between two
// classrooms.
func (r *ClassroomRepository) UpsertProximity(ctx context.Context, edge models.ClassroomProximity) error {
	const query = `INSERT INTO classroom_proximity (from_classroom_id, to_classroom_id, distance_score)
        VALUES ($1, $2, $3)
        ON CONFLICT (from_classroom_id, to_classroom_id) DO UPDATE SET distance_score = EXCLUDED.distance_score`
	if _, err := r.db.ExecContext(ctx, query, edge.FromClassroomID, edge.ToClassroomID, edge.DistanceScore); err != nil {
		return fmt.Errorf("upsert proximity: %w", err)
	}
	return nil
}
