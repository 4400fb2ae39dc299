package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// StudyService handles the academic record resources: institutions, courses,
// categories, absences and assessments. All of them are strictly owner
// scoped; cross-course references must stay inside the owner's records.
type StudyService struct {
	institutionRepo ports.InstitutionRepository
	courseRepo      ports.CourseRepository
	categoryRepo    ports.CategoryRepository
	absenceRepo     ports.AbsenceRepository
	assessmentRepo  ports.AssessmentRepository
	logger          *logger.Logger
}

// NewStudyService creates a new study service
func NewStudyService(
	institutionRepo ports.InstitutionRepository,
	courseRepo ports.CourseRepository,
	categoryRepo ports.CategoryRepository,
	absenceRepo ports.AbsenceRepository,
	assessmentRepo ports.AssessmentRepository,
	logger *logger.Logger,
) *StudyService {
	return &StudyService{
		institutionRepo: institutionRepo,
		courseRepo:      courseRepo,
		categoryRepo:    categoryRepo,
		absenceRepo:     absenceRepo,
		assessmentRepo:  assessmentRepo,
		logger:          logger,
	}
}

// Institutions

func (s *StudyService) CreateInstitution(ctx context.Context, ownerID uuid.UUID, req ports.CreateInstitutionRequest) (*entities.Institution, error) {
	institution := &entities.Institution{
		OwnerID: ownerID,
		Name:    req.Name,
	}
	if err := s.institutionRepo.Create(ctx, institution); err != nil {
		return nil, err
	}
	return institution, nil
}

func (s *StudyService) GetInstitution(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Institution, error) {
	return s.institutionRepo.GetByID(ctx, ownerID, id)
}

func (s *StudyService) ListInstitutions(ctx context.Context, ownerID uuid.UUID) ([]*entities.Institution, error) {
	return s.institutionRepo.List(ctx, ownerID)
}

func (s *StudyService) UpdateInstitution(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateInstitutionRequest) (*entities.Institution, error) {
	institution, err := s.institutionRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		institution.Name = *req.Name
	}
	if err := s.institutionRepo.Update(ctx, institution); err != nil {
		return nil, err
	}
	return institution, nil
}

// DeleteInstitution removes an institution. Courses referencing it keep
// existing with the reference cleared.
func (s *StudyService) DeleteInstitution(ctx context.Context, ownerID uuid.UUID, id int) error {
	return s.institutionRepo.Delete(ctx, ownerID, id)
}

// Courses

func (s *StudyService) CreateCourse(ctx context.Context, ownerID uuid.UUID, req ports.CreateCourseRequest) (*entities.Course, error) {
	if req.InstitutionID != nil {
		if _, err := s.institutionRepo.GetByID(ctx, ownerID, *req.InstitutionID); err != nil {
			return nil, err
		}
	}

	course := &entities.Course{
		OwnerID:       ownerID,
		InstitutionID: req.InstitutionID,
		Name:          req.Name,
		Professor:     req.Professor,
		AbsenceLimit:  req.AbsenceLimit,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *StudyService) GetCourse(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Course, error) {
	return s.courseRepo.GetByID(ctx, ownerID, id)
}

func (s *StudyService) ListCourses(ctx context.Context, ownerID uuid.UUID) ([]*entities.Course, error) {
	return s.courseRepo.List(ctx, ownerID)
}

func (s *StudyService) UpdateCourse(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateCourseRequest) (*entities.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.InstitutionID != nil {
		if _, err := s.institutionRepo.GetByID(ctx, ownerID, *req.InstitutionID); err != nil {
			return nil, err
		}
		course.InstitutionID = req.InstitutionID
	}
	if req.Professor != nil {
		course.Professor = req.Professor
	}
	if req.AbsenceLimit != nil {
		course.AbsenceLimit = req.AbsenceLimit
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes a course and cascades away its absences and
// assessments.
func (s *StudyService) DeleteCourse(ctx context.Context, ownerID uuid.UUID, id int) error {
	return s.courseRepo.Delete(ctx, ownerID, id)
}

// Categories

func (s *StudyService) CreateCategory(ctx context.Context, ownerID uuid.UUID, req ports.CreateCategoryRequest) (*entities.Category, error) {
	category := &entities.Category{
		OwnerID: ownerID,
		Name:    req.Name,
		Color:   req.Color,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *StudyService) GetCategory(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Category, error) {
	return s.categoryRepo.GetByID(ctx, ownerID, id)
}

func (s *StudyService) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]*entities.Category, error) {
	return s.categoryRepo.List(ctx, ownerID)
}

func (s *StudyService) UpdateCategory(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateCategoryRequest) (*entities.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Color != nil {
		category.Color = req.Color
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *StudyService) DeleteCategory(ctx context.Context, ownerID uuid.UUID, id int) error {
	return s.categoryRepo.Delete(ctx, ownerID, id)
}

// Absences

func (s *StudyService) CreateAbsence(ctx context.Context, ownerID uuid.UUID, req ports.CreateAbsenceRequest) (*entities.Absence, error) {
	if _, err := s.courseRepo.GetByID(ctx, ownerID, req.CourseID); err != nil {
		return nil, err
	}

	count := req.Count
	if count == 0 {
		count = 1
	}

	absence := &entities.Absence{
		OwnerID:   ownerID,
		CourseID:  req.CourseID,
		Date:      req.Date,
		Count:     count,
		Justified: req.Justified,
	}
	if err := s.absenceRepo.Create(ctx, absence); err != nil {
		return nil, err
	}
	return absence, nil
}

func (s *StudyService) GetAbsence(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Absence, error) {
	return s.absenceRepo.GetByID(ctx, ownerID, id)
}

func (s *StudyService) ListAbsences(ctx context.Context, ownerID uuid.UUID) ([]*entities.Absence, error) {
	return s.absenceRepo.List(ctx, ownerID)
}

func (s *StudyService) UpdateAbsence(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateAbsenceRequest) (*entities.Absence, error) {
	absence, err := s.absenceRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Date != nil {
		absence.Date = *req.Date
	}
	if req.Count != nil {
		absence.Count = *req.Count
	}
	if req.Justified != nil {
		absence.Justified = *req.Justified
	}
	if err := s.absenceRepo.Update(ctx, absence); err != nil {
		return nil, err
	}
	return absence, nil
}

func (s *StudyService) DeleteAbsence(ctx context.Context, ownerID uuid.UUID, id int) error {
	return s.absenceRepo.Delete(ctx, ownerID, id)
}

// Assessments

func (s *StudyService) CreateAssessment(ctx context.Context, ownerID uuid.UUID, req ports.CreateAssessmentRequest) (*entities.Assessment, error) {
	if _, err := s.courseRepo.GetByID(ctx, ownerID, req.CourseID); err != nil {
		return nil, err
	}

	assessment := &entities.Assessment{
		OwnerID:     ownerID,
		CourseID:    req.CourseID,
		Description: req.Description,
		Date:        req.Date,
		Grade:       req.Grade,
		MaxGrade:    req.MaxGrade,
		Weight:      req.Weight,
	}
	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

func (s *StudyService) GetAssessment(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Assessment, error) {
	return s.assessmentRepo.GetByID(ctx, ownerID, id)
}

func (s *StudyService) ListAssessments(ctx context.Context, ownerID uuid.UUID) ([]*entities.Assessment, error) {
	return s.assessmentRepo.List(ctx, ownerID)
}

func (s *StudyService) SearchAssessments(ctx context.Context, ownerID uuid.UUID, description string) ([]*entities.Assessment, error) {
	return s.assessmentRepo.Search(ctx, ownerID, description)
}

func (s *StudyService) UpdateAssessment(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateAssessmentRequest) (*entities.Assessment, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		assessment.Description = *req.Description
	}
	if req.Date != nil {
		assessment.Date = req.Date
	}
	if req.Grade != nil {
		assessment.Grade = req.Grade
	}
	if req.MaxGrade != nil {
		assessment.MaxGrade = req.MaxGrade
	}
	if req.Weight != nil {
		assessment.Weight = req.Weight
	}
	if err := s.assessmentRepo.Update(ctx, assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

func (s *StudyService) DeleteAssessment(ctx context.Context, ownerID uuid.UUID, id int) error {
	return s.assessmentRepo.Delete(ctx, ownerID, id)
}
