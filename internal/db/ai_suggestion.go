package db

import "gorm.io/gorm"

// AISuggestion 记录一次 AI 润色建议的审计快照。
// 内容字段为 JSON 序列化后的 field_name → field_value 映射，
// 除 accepted 标记外不做任何修改，也从不删除。
type AISuggestion struct {
	gorm.Model
	SubmissionID     uint `gorm:"not null;index"`
	Submission       Submission
	OriginalContent  string `gorm:"type:text;not null"`
	SuggestedContent string `gorm:"type:text;not null"`
	Accepted         bool   `gorm:"not null;default:false"`
}

// TableName 指定自定义表名。
func (AISuggestion) TableName() string {
	return "ai_suggestions"
}
