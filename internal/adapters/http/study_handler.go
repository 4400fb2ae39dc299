package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// StudyHandler handles the academic record resources: institutions, courses,
// categories, absences and assessments
type StudyHandler struct {
	studyService *services.StudyService
	logger       *logger.Logger
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(studyService *services.StudyService, logger *logger.Logger) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		logger:       logger,
	}
}

// Institutions

func (h *StudyHandler) CreateInstitution(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateInstitutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	institution, err := h.studyService.CreateInstitution(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create institution failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, institution)
}

func (h *StudyHandler) GetInstitution(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	institution, err := h.studyService.GetInstitution(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, institution)
}

func (h *StudyHandler) ListInstitutions(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	institutions, err := h.studyService.ListInstitutions(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List institutions failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, institutions)
}

func (h *StudyHandler) UpdateInstitution(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateInstitutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	institution, err := h.studyService.UpdateInstitution(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update institution failed", "error", err, "institution_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, institution)
}

func (h *StudyHandler) DeleteInstitution(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.studyService.DeleteInstitution(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete institution failed", "error", err, "institution_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Courses

func (h *StudyHandler) CreateCourse(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateCourseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	course, err := h.studyService.CreateCourse(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create course failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, course)
}

func (h *StudyHandler) GetCourse(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	course, err := h.studyService.GetCourse(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, course)
}

func (h *StudyHandler) ListCourses(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	courses, err := h.studyService.ListCourses(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List courses failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, courses)
}

func (h *StudyHandler) UpdateCourse(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateCourseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	course, err := h.studyService.UpdateCourse(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update course failed", "error", err, "course_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, course)
}

func (h *StudyHandler) DeleteCourse(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.studyService.DeleteCourse(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete course failed", "error", err, "course_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Categories

func (h *StudyHandler) CreateCategory(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	category, err := h.studyService.CreateCategory(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create category failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, category)
}

func (h *StudyHandler) GetCategory(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	category, err := h.studyService.GetCategory(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, category)
}

func (h *StudyHandler) ListCategories(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	categories, err := h.studyService.ListCategories(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List categories failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, categories)
}

func (h *StudyHandler) UpdateCategory(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	category, err := h.studyService.UpdateCategory(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update category failed", "error", err, "category_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, category)
}

func (h *StudyHandler) DeleteCategory(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.studyService.DeleteCategory(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete category failed", "error", err, "category_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Absences

func (h *StudyHandler) CreateAbsence(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateAbsenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	absence, err := h.studyService.CreateAbsence(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create absence failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, absence)
}

func (h *StudyHandler) GetAbsence(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	absence, err := h.studyService.GetAbsence(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, absence)
}

func (h *StudyHandler) ListAbsences(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	absences, err := h.studyService.ListAbsences(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List absences failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, absences)
}

func (h *StudyHandler) UpdateAbsence(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateAbsenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	absence, err := h.studyService.UpdateAbsence(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update absence failed", "error", err, "absence_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, absence)
}

func (h *StudyHandler) DeleteAbsence(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.studyService.DeleteAbsence(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete absence failed", "error", err, "absence_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Assessments

func (h *StudyHandler) CreateAssessment(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	assessment, err := h.studyService.CreateAssessment(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create assessment failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, assessment)
}

func (h *StudyHandler) GetAssessment(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	assessment, err := h.studyService.GetAssessment(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, assessment)
}

func (h *StudyHandler) ListAssessments(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	assessments, err := h.studyService.ListAssessments(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List assessments failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, assessments)
}

func (h *StudyHandler) SearchAssessments(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	assessments, err := h.studyService.SearchAssessments(c.Request().Context(), accountID, c.QueryParam("descricao"))
	if err != nil {
		h.logger.Error("Search assessments failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, assessments)
}

func (h *StudyHandler) UpdateAssessment(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	assessment, err := h.studyService.UpdateAssessment(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update assessment failed", "error", err, "assessment_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, assessment)
}

func (h *StudyHandler) DeleteAssessment(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.studyService.DeleteAssessment(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete assessment failed", "error", err, "assessment_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
