package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/form"
	"gorm.io/gorm"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrReviewerRequired   = errors.New("reviewer is required for approval or rejection")
)

// SubmissionService wraps submission related database operations.
//
// Status transitions are intentionally permissive: the service stamps
// the timestamps a target status requires but does not enforce a
// transition table. Re-reviewing an already reviewed submission
// overwrites reviewed_by/reviewed_at, last write wins.
type SubmissionService struct {
	db *gorm.DB
}

// NewSubmissionService creates a SubmissionService instance.
func NewSubmissionService(gdb *gorm.DB) *SubmissionService {
	return &SubmissionService{db: gdb}
}

// Create persists a draft submission and its field mapping in a
// transaction. List values are flattened to ", "-joined strings.
func (s *SubmissionService) Create(publicationID uint, userEmail, projectName string, fields map[string]any) (*db.Submission, error) {
	submission := db.Submission{
		PublicationID: publicationID,
		UserEmail:     strings.ToLower(strings.TrimSpace(userEmail)),
		ProjectName:   strings.TrimSpace(projectName),
		Status:        db.SubmissionStatusDraft,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		return insertFields(tx, submission.ID, fields)
	})
	if err != nil {
		return nil, err
	}

	return &submission, nil
}

// Get fetches a submission by id.
func (s *SubmissionService) Get(id uint) (*db.Submission, error) {
	var submission db.Submission
	if err := s.db.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// Fields returns the submission's field mapping. Every value is a
// string; multiselect values come back as ", "-joined strings.
func (s *SubmissionService) Fields(id uint) (map[string]string, error) {
	var records []db.SubmissionField
	if err := s.db.Where("submission_id = ?", id).Find(&records).Error; err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(records))
	for _, record := range records {
		fields[record.FieldName] = record.FieldValue
	}
	return fields, nil
}

// UpdateFields fully replaces the submission's field mapping and bumps
// updated_at. The status is left untouched.
func (s *SubmissionService) UpdateFields(id uint, fields map[string]any) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var submission db.Submission
		if err := tx.First(&submission, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		// 全量替换：先删后插，不做字段级补丁
		if err := tx.Unscoped().
			Where("submission_id = ?", id).
			Delete(&db.SubmissionField{}).Error; err != nil {
			return err
		}

		if err := insertFields(tx, id, fields); err != nil {
			return err
		}

		return tx.Model(&db.Submission{}).
			Where("id = ?", id).
			Update("updated_at", time.Now()).Error
	})
}

// Transition moves a submission into a new status. Entering submitted
// stamps submitted_at; entering approved or rejected requires a
// reviewer and stamps reviewed_by/reviewed_at. Any other status only
// updates the status itself.
func (s *SubmissionService) Transition(id uint, status, reviewedBy string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}

	switch status {
	case db.SubmissionStatusSubmitted:
		updates["submitted_at"] = now
	case db.SubmissionStatusApproved, db.SubmissionStatusRejected:
		if strings.TrimSpace(reviewedBy) == "" {
			return ErrReviewerRequired
		}
		updates["reviewed_by"] = strings.TrimSpace(reviewedBy)
		updates["reviewed_at"] = now
	}

	result := s.db.Model(&db.Submission{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// ListByPublication returns a publication's submissions ordered by
// created time descending, optionally filtered by status.
func (s *SubmissionService) ListByPublication(publicationID uint, status string) ([]db.Submission, error) {
	query := s.db.Where("publication_id = ?", publicationID)
	if strings.TrimSpace(status) != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []db.Submission
	if err := query.Order("created_at desc").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListByUser returns every submission a user has authored, newest first.
func (s *SubmissionService) ListByUser(userEmail string) ([]db.Submission, error) {
	var submissions []db.Submission
	err := s.db.
		Where("user_email = ?", strings.ToLower(strings.TrimSpace(userEmail))).
		Order("created_at desc").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func insertFields(tx *gorm.DB, submissionID uint, fields map[string]any) error {
	for name, value := range fields {
		record := db.SubmissionField{
			SubmissionID: submissionID,
			FieldName:    name,
			FieldValue:   form.Sanitize(flattenFieldValue(value)),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

// flattenFieldValue 将多选列表压平为 ", " 连接的字符串，其余值按字符串存储。
func flattenFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
