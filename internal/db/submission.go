package db

import (
	"time"

	"gorm.io/gorm"
)

// Submission 定义了一条部门亮点投稿
type Submission struct {
	gorm.Model
	PublicationID uint `gorm:"not null;index"`
	Publication   Publication
	UserEmail     string `gorm:"size:255;not null;index"`
	ProjectName   string `gorm:"size:255;not null"`
	Status        string `gorm:"size:20;not null;default:draft"`
	SubmittedAt   *time.Time
	ReviewedBy    string `gorm:"size:255"`
	ReviewedAt    *time.Time
	Fields        []SubmissionField
}

// SubmissionField 保存投稿表单的单个键值对
type SubmissionField struct {
	gorm.Model
	SubmissionID uint   `gorm:"not null;index"`
	FieldName    string `gorm:"size:100;not null"`
	FieldValue   string `gorm:"type:text;not null"`
}

const (
	// SubmissionStatusDraft 表示仍在编辑中的草稿。
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted 表示已提交待审核。
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusApproved 表示审核通过。
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected 表示审核未通过。
	SubmissionStatusRejected = "rejected"
)
