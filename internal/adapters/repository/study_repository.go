package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/database"
	"github.com/unihub/core/internal/ports"
)

// Study record repositories: institutions, courses, categories, absences and
// assessments. All rows are owner-scoped and every query filters by owner.

// InstitutionRepositoryImpl implements the InstitutionRepository interface
type InstitutionRepositoryImpl struct {
	db *database.DB
}

// NewInstitutionRepository creates a new institution repository
func NewInstitutionRepository(db *database.DB) ports.InstitutionRepository {
	return &InstitutionRepositoryImpl{db: db}
}

func (r *InstitutionRepositoryImpl) Create(ctx context.Context, institution *entities.Institution) error {
	query := `
		INSERT INTO institutions (owner_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query, institution.OwnerID, institution.Name).
		Scan(&institution.ID, &institution.CreatedAt)
	if err != nil {
		return fmt.Errorf("create institution: %w", err)
	}

	return nil
}

func (r *InstitutionRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Institution, error) {
	query := `SELECT id, owner_id, name, created_at FROM institutions WHERE id = $1 AND owner_id = $2`

	var institution entities.Institution
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &institution, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrInstitutionNotFound
		}
		return nil, fmt.Errorf("get institution by id: %w", err)
	}

	return &institution, nil
}

func (r *InstitutionRepositoryImpl) Update(ctx context.Context, institution *entities.Institution) error {
	query := `UPDATE institutions SET name = $3 WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query, institution.ID, institution.OwnerID, institution.Name)
	if err != nil {
		return fmt.Errorf("update institution: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrInstitutionNotFound
	}

	return nil
}

func (r *InstitutionRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx,
		`DELETE FROM institutions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete institution: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrInstitutionNotFound
	}

	return nil
}

func (r *InstitutionRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Institution, error) {
	query := `SELECT id, owner_id, name, created_at FROM institutions WHERE owner_id = $1 ORDER BY name, id`

	var institutions []*entities.Institution
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &institutions, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}

	return institutions, nil
}

// CourseRepositoryImpl implements the CourseRepository interface
type CourseRepositoryImpl struct {
	db *database.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *database.DB) ports.CourseRepository {
	return &CourseRepositoryImpl{db: db}
}

const courseColumns = `id, owner_id, institution_id, name, professor, absence_limit, created_at`

func (r *CourseRepositoryImpl) Create(ctx context.Context, course *entities.Course) error {
	query := `
		INSERT INTO courses (owner_id, institution_id, name, professor, absence_limit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		course.OwnerID, course.InstitutionID, course.Name, course.Professor, course.AbsenceLimit,
	).Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrInstitutionNotFound
		}
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

func (r *CourseRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 AND owner_id = $2`

	var course entities.Course
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &course, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}

	return &course, nil
}

func (r *CourseRepositoryImpl) Update(ctx context.Context, course *entities.Course) error {
	query := `
		UPDATE courses
		SET institution_id = $3, name = $4, professor = $5, absence_limit = $6
		WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query,
		course.ID, course.OwnerID, course.InstitutionID, course.Name, course.Professor, course.AbsenceLimit,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx,
		`DELETE FROM courses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE owner_id = $1 ORDER BY name, id`

	var courses []*entities.Course
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &courses, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	return courses, nil
}

// CategoryRepositoryImpl implements the CategoryRepository interface
type CategoryRepositoryImpl struct {
	db *database.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) ports.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) Create(ctx context.Context, category *entities.Category) error {
	query := `
		INSERT INTO categories (owner_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		category.OwnerID, category.Name, category.Color,
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Category, error) {
	query := `SELECT id, owner_id, name, color FROM categories WHERE id = $1 AND owner_id = $2`

	var category entities.Category
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &category, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepositoryImpl) Update(ctx context.Context, category *entities.Category) error {
	query := `UPDATE categories SET name = $3, color = $4 WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query,
		category.ID, category.OwnerID, category.Name, category.Color)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrCategoryNotFound
	}

	return nil
}

func (r *CategoryRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrCategoryNotFound
	}

	return nil
}

func (r *CategoryRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Category, error) {
	query := `SELECT id, owner_id, name, color FROM categories WHERE owner_id = $1 ORDER BY name, id`

	var categories []*entities.Category
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &categories, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

// AbsenceRepositoryImpl implements the AbsenceRepository interface
type AbsenceRepositoryImpl struct {
	db *database.DB
}

// NewAbsenceRepository creates a new absence repository
func NewAbsenceRepository(db *database.DB) ports.AbsenceRepository {
	return &AbsenceRepositoryImpl{db: db}
}

const absenceColumns = `id, owner_id, course_id, date, count, justified`

func (r *AbsenceRepositoryImpl) Create(ctx context.Context, absence *entities.Absence) error {
	query := `
		INSERT INTO absences (owner_id, course_id, date, count, justified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		absence.OwnerID, absence.CourseID, absence.Date, absence.Count, absence.Justified,
	).Scan(&absence.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrCourseNotFound
		}
		return fmt.Errorf("create absence: %w", err)
	}

	return nil
}

func (r *AbsenceRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Absence, error) {
	query := `SELECT ` + absenceColumns + ` FROM absences WHERE id = $1 AND owner_id = $2`

	var absence entities.Absence
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &absence, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrAbsenceNotFound
		}
		return nil, fmt.Errorf("get absence by id: %w", err)
	}

	return &absence, nil
}

func (r *AbsenceRepositoryImpl) Update(ctx context.Context, absence *entities.Absence) error {
	query := `
		UPDATE absences
		SET date = $3, count = $4, justified = $5
		WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query,
		absence.ID, absence.OwnerID, absence.Date, absence.Count, absence.Justified)
	if err != nil {
		return fmt.Errorf("update absence: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrAbsenceNotFound
	}

	return nil
}

func (r *AbsenceRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx,
		`DELETE FROM absences WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrAbsenceNotFound
	}

	return nil
}

func (r *AbsenceRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Absence, error) {
	query := `SELECT ` + absenceColumns + ` FROM absences WHERE owner_id = $1 ORDER BY date DESC, id DESC`

	var absences []*entities.Absence
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &absences, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}

	return absences, nil
}

// AssessmentRepositoryImpl implements the AssessmentRepository interface
type AssessmentRepositoryImpl struct {
	db *database.DB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *database.DB) ports.AssessmentRepository {
	return &AssessmentRepositoryImpl{db: db}
}

const assessmentColumns = `id, owner_id, course_id, description, date, grade, max_grade, weight, created_at`

func (r *AssessmentRepositoryImpl) Create(ctx context.Context, assessment *entities.Assessment) error {
	query := `
		INSERT INTO assessments (owner_id, course_id, description, date, grade, max_grade, weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		assessment.OwnerID, assessment.CourseID, assessment.Description,
		assessment.Date, assessment.Grade, assessment.MaxGrade, assessment.Weight,
	).Scan(&assessment.ID, &assessment.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrCourseNotFound
		}
		return fmt.Errorf("create assessment: %w", err)
	}

	return nil
}

func (r *AssessmentRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1 AND owner_id = $2`

	var assessment entities.Assessment
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &assessment, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment by id: %w", err)
	}

	return &assessment, nil
}

func (r *AssessmentRepositoryImpl) Update(ctx context.Context, assessment *entities.Assessment) error {
	query := `
		UPDATE assessments
		SET description = $3, date = $4, grade = $5, max_grade = $6, weight = $7
		WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query,
		assessment.ID, assessment.OwnerID, assessment.Description,
		assessment.Date, assessment.Grade, assessment.MaxGrade, assessment.Weight,
	)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrAssessmentNotFound
	}

	return nil
}

func (r *AssessmentRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx,
		`DELETE FROM assessments WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return entities.ErrAssessmentNotFound
	}

	return nil
}

func (r *AssessmentRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE owner_id = $1 ORDER BY date DESC NULLS LAST, id DESC`

	var assessments []*entities.Assessment
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &assessments, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	return assessments, nil
}

func (r *AssessmentRepositoryImpl) Search(ctx context.Context, ownerID uuid.UUID, description string) ([]*entities.Assessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE owner_id = $1 AND description ILIKE '%' || $2 || '%'
		ORDER BY date DESC NULLS LAST, id DESC`

	var assessments []*entities.Assessment
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &assessments, query, ownerID, description)
	if err != nil {
		return nil, fmt.Errorf("search assessments: %w", err)
	}

	return assessments, nil
}
