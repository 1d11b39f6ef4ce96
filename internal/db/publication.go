package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Publication 定义了半月刊发布周期模型
type Publication struct {
	gorm.Model
	Year        int    `gorm:"not null;uniqueIndex:idx_publications_cycle"`
	Month       int    `gorm:"not null;uniqueIndex:idx_publications_cycle"`
	Period      string `gorm:"size:20;not null;uniqueIndex:idx_publications_cycle"`
	Status      string `gorm:"size:20;not null;default:open"`
	PublishedAt *time.Time
	Submissions []Submission
}

const (
	// PeriodFirstHalf 表示每月 1-15 日的周期。
	PeriodFirstHalf = "first_half"
	// PeriodSecondHalf 表示每月 16 日至月末的周期。
	PeriodSecondHalf = "second_half"
)

const (
	// PublicationStatusOpen 表示周期正在接收投稿。
	PublicationStatusOpen = "open"
	// PublicationStatusUnderReview 表示周期已关闭，等待审核完成。
	PublicationStatusUnderReview = "under_review"
	// PublicationStatusPublished 表示周期已发布。
	PublicationStatusPublished = "published"
)

// DisplayName returns the human readable cycle name, e.g.
// "First Half March 2025". Email subjects and list views rely on this
// exact format.
func (p Publication) DisplayName() string {
	periodDisplay := "First Half"
	if p.Period == PeriodSecondHalf {
		periodDisplay = "Second Half"
	}
	return fmt.Sprintf("%s %s %d", periodDisplay, time.Month(p.Month).String(), p.Year)
}

// PeriodForDate derives the (year, month, period) triple for a date.
// Day 15 still belongs to the first half.
func PeriodForDate(t time.Time) (int, int, string) {
	period := PeriodFirstHalf
	if t.Day() > 15 {
		period = PeriodSecondHalf
	}
	return t.Year(), int(t.Month()), period
}
