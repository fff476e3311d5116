package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest captures fields for creating courses.
type CreateCourseRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=100"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	Instructor      string  `json:"instructor" validate:"required,min=1,max=100"`
	Duration        int     `json:"duration" validate:"required,min=1"`
	EnrollmentLimit *int    `json:"enrollment_limit" validate:"omitempty,min=1"`
}

// UpdateCourseRequest is a partial patch: fields left out of the payload keep
// their stored value.
type UpdateCourseRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	Instructor      *string `json:"instructor" validate:"omitempty,min=1,max=100"`
	Duration        *int    `json:"duration" validate:"omitempty,min=1"`
	EnrollmentLimit *int    `json:"enrollment_limit" validate:"omitempty,min=1"`
}

// CourseService handles course CRUD workflows. Mutations record an audit
// entry after the primary write commits; a failed audit write is warned and
// does not roll the mutation back.
type CourseService struct {
	repo      courseRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(repo courseRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns a course by identifier.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest, actor *models.CallerIdentity) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Title:           req.Title,
		Description:     req.Description,
		Instructor:      req.Instructor,
		Duration:        req.Duration,
		EnrollmentLimit: req.EnrollmentLimit,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.record(ctx, actor, models.AuditActionCourseCreate, fmt.Sprintf("course %q created", course.Title))
	return course, nil
}

// Update applies a partial patch to an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest, actor *models.CallerIdentity) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Instructor != nil {
		course.Instructor = *req.Instructor
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.EnrollmentLimit != nil {
		course.EnrollmentLimit = req.EnrollmentLimit
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.record(ctx, actor, models.AuditActionCourseUpdate, fmt.Sprintf("course %q updated", course.Title))
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string, actor *models.CallerIdentity) error {
	course, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.record(ctx, actor, models.AuditActionCourseDelete, fmt.Sprintf("course %q deleted", course.Title))
	return nil
}

func (s *CourseService) record(ctx context.Context, actor *models.CallerIdentity, action, details string) {
	if s.audit == nil || actor == nil {
		return
	}
	if _, err := s.audit.Record(ctx, actor.UserID, action, details, actor.SourceAddr); err != nil {
		s.logger.Warn("failed to record course audit log",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
