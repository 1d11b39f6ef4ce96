package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"gorm.io/gorm"
)

// ErrSuggestionNotFound 表示建议记录不存在。
var ErrSuggestionNotFound = errors.New("ai suggestion not found")

// SuggestionService 维护 AI 润色建议的审计记录。
// 记录只增不删，除 accepted 标记外不会被修改。
type SuggestionService struct {
	db *gorm.DB
}

// NewSuggestionService creates a SuggestionService instance.
func NewSuggestionService(gdb *gorm.DB) *SuggestionService {
	return &SuggestionService{db: gdb}
}

// Save appends an audit record pairing the original field mapping with
// the suggested one.
func (s *SuggestionService) Save(submissionID uint, original, suggested map[string]string, accepted bool) (*db.AISuggestion, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return nil, fmt.Errorf("encode original content: %w", err)
	}
	suggestedJSON, err := json.Marshal(suggested)
	if err != nil {
		return nil, fmt.Errorf("encode suggested content: %w", err)
	}

	record := db.AISuggestion{
		SubmissionID:     submissionID,
		OriginalContent:  string(originalJSON),
		SuggestedContent: string(suggestedJSON),
		Accepted:         accepted,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

// ListBySubmission returns a submission's suggestion history, newest
// first.
func (s *SuggestionService) ListBySubmission(submissionID uint) ([]db.AISuggestion, error) {
	var records []db.AISuggestion
	err := s.db.
		Where("submission_id = ?", submissionID).
		Order("created_at desc, id desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkAccepted flips the accepted flag on a suggestion record.
func (s *SuggestionService) MarkAccepted(id uint, accepted bool) error {
	result := s.db.Model(&db.AISuggestion{}).Where("id = ?", id).Update("accepted", accepted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSuggestionNotFound
	}
	return nil
}

// Get fetches a suggestion record by id.
func (s *SuggestionService) Get(id uint) (*db.AISuggestion, error) {
	var record db.AISuggestion
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	return &record, nil
}

// DecodeContent 将快照 JSON 解码为 field_name → field_value 映射。
func DecodeContent(raw string) (map[string]string, error) {
	content := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("decode suggestion content: %w", err)
	}
	return content, nil
}
