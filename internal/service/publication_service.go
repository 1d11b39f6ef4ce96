package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPublicationNotFound = errors.New("publication not found")
	ErrNoActivePublication = errors.New("no active publication for the current period")
	ErrPublicationNotReady = errors.New("publication is not ready to publish")
	ErrNoRecipients        = errors.New("no email recipients configured")
)

// PublicationService 管理半月刊发布周期及其状态流转。
type PublicationService struct {
	db *gorm.DB
}

// PublicationStats aggregates submission counts by status for one cycle.
type PublicationStats struct {
	Total     int64
	Draft     int64
	Submitted int64
	Approved  int64
	Rejected  int64
}

// SpotlightItem is one approved write-up as it appears in the
// publication email.
type SpotlightItem struct {
	ProjectName string
	UserEmail   string
	Fields      map[string]string
}

// PublicationSender delivers a compiled publication to a recipient list.
// Publish is gated strictly on a nil error from SendPublication.
type PublicationSender interface {
	SendPublication(ctx context.Context, pub db.Publication, items []SpotlightItem, recipients []string) error
}

// NewPublicationService creates a PublicationService instance.
func NewPublicationService(gdb *gorm.DB) *PublicationService {
	return &PublicationService{db: gdb}
}

// GenerateAnnualCycles idempotently ensures all 24 (month, period)
// cycles exist for the year. Cycles that already exist are skipped and
// the newly created ones are returned.
func (s *PublicationService) GenerateAnnualCycles(year int) ([]db.Publication, error) {
	periods := []string{db.PeriodFirstHalf, db.PeriodSecondHalf}

	var created []db.Publication
	for month := 1; month <= 12; month++ {
		for _, period := range periods {
			pub := db.Publication{
				Year:   year,
				Month:  month,
				Period: period,
				Status: db.PublicationStatusOpen,
			}

			result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pub)
			if result.Error != nil {
				return created, result.Error
			}
			if result.RowsAffected == 0 {
				// 周期已存在，跳过
				log.Printf("publication %d-%d %s already exists, skipping", year, month, period)
				continue
			}

			created = append(created, pub)
		}
	}

	return created, nil
}

// EnsureCurrentYear 若当前年份尚无任何周期则批量生成。
func (s *PublicationService) EnsureCurrentYear(now time.Time) error {
	var count int64
	if err := s.db.Model(&db.Publication{}).Where("year = ?", now.Year()).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := s.GenerateAnnualCycles(now.Year())
	return err
}

// GetActivePublication returns the open publication for the period the
// given date falls into. Day 15 still belongs to the first half.
func (s *PublicationService) GetActivePublication(now time.Time) (*db.Publication, error) {
	year, month, period := db.PeriodForDate(now)

	var pub db.Publication
	err := s.db.
		Where("year = ? AND month = ? AND period = ? AND status = ?",
			year, month, period, db.PublicationStatusOpen).
		First(&pub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePublication
		}
		return nil, err
	}

	return &pub, nil
}

// Get fetches a publication by id.
func (s *PublicationService) Get(id uint) (*db.Publication, error) {
	var pub db.Publication
	if err := s.db.First(&pub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublicationNotFound
		}
		return nil, err
	}
	return &pub, nil
}

// ListAll returns publications ordered by cycle, newest first. A zero
// year returns every year.
func (s *PublicationService) ListAll(year int) ([]db.Publication, error) {
	query := s.db.Model(&db.Publication{})
	if year > 0 {
		query = query.Where("year = ?", year)
	}

	var pubs []db.Publication
	if err := query.Order("year desc, month desc, period").Find(&pubs).Error; err != nil {
		return nil, err
	}
	return pubs, nil
}

// UpcomingPublications 返回当前月份及之后仍处于 open 状态的周期。
func (s *PublicationService) UpcomingPublications(now time.Time, limit int) ([]db.Publication, error) {
	if limit <= 0 {
		limit = 5
	}

	var pubs []db.Publication
	err := s.db.
		Where("status = ?", db.PublicationStatusOpen).
		Where("year > ? OR (year = ? AND month >= ?)", now.Year(), now.Year(), int(now.Month())).
		Order("year, month, period desc").
		Limit(limit).
		Find(&pubs).Error
	if err != nil {
		return nil, err
	}
	return pubs, nil
}

// PublishedPublications returns published cycles, newest first. A zero
// year returns every year and a non-positive limit returns all rows.
func (s *PublicationService) PublishedPublications(year, limit int) ([]db.Publication, error) {
	query := s.db.Where("status = ?", db.PublicationStatusPublished)
	if year > 0 {
		query = query.Where("year = ?", year)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var pubs []db.Publication
	if err := query.Order("year desc, month desc, period").Find(&pubs).Error; err != nil {
		return nil, err
	}
	return pubs, nil
}

// ClosePublication 将周期从 open 流转到 under_review。
func (s *PublicationService) ClosePublication(id uint) error {
	return s.updateStatus(id, db.PublicationStatusUnderReview)
}

// Publish marks a publication as published and stamps published_at.
// Callers must only invoke this after the external send succeeded; use
// PublishAndSend for the full workflow.
func (s *PublicationService) Publish(id uint) error {
	return s.updateStatus(id, db.PublicationStatusPublished)
}

// PublishAndSend compiles the approved submissions of a ready
// publication, delivers them through the sender, and only then marks
// the publication published. A failed send leaves the publication
// untouched.
func (s *PublicationService) PublishAndSend(ctx context.Context, id uint, sender PublicationSender, recipients []string) error {
	pub, err := s.Get(id)
	if err != nil {
		return err
	}

	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	ready, err := s.IsReadyToPublish(id)
	if err != nil {
		return err
	}
	if !ready {
		return ErrPublicationNotReady
	}

	items, err := s.approvedItems(id)
	if err != nil {
		return err
	}

	if err := sender.SendPublication(ctx, *pub, items, recipients); err != nil {
		return err
	}

	return s.Publish(id)
}

// ComputeStats counts the publication's submissions by status.
func (s *PublicationService) ComputeStats(id uint) (PublicationStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	err := s.db.Model(&db.Submission{}).
		Select("status, count(*) as count").
		Where("publication_id = ?", id).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return PublicationStats{}, err
	}

	var stats PublicationStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case db.SubmissionStatusDraft:
			stats.Draft = row.Count
		case db.SubmissionStatusSubmitted:
			stats.Submitted = row.Count
		case db.SubmissionStatusApproved:
			stats.Approved = row.Count
		case db.SubmissionStatusRejected:
			stats.Rejected = row.Count
		}
	}

	return stats, nil
}

// IsReadyToPublish reports whether the publication has at least one
// approved submission and nothing still pending. Rejected submissions
// do not block readiness.
func (s *PublicationService) IsReadyToPublish(id uint) (bool, error) {
	stats, err := s.ComputeStats(id)
	if err != nil {
		return false, err
	}

	if stats.Approved == 0 {
		return false, nil
	}
	if stats.Draft > 0 || stats.Submitted > 0 {
		return false, nil
	}

	return true, nil
}

// PeriodDateRange returns the inclusive date range a cycle covers.
func PeriodDateRange(year, month int, period string) (time.Time, time.Time) {
	if period == db.PeriodFirstHalf {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		end := time.Date(year, time.Month(month), 15, 23, 59, 59, 0, time.Local)
		return start, end
	}

	start := time.Date(year, time.Month(month), 16, 0, 0, 0, 0, time.Local)
	nextMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local).AddDate(0, 1, 0)
	end := nextMonth.Add(-time.Second)
	return start, end
}

// IsPeriodActive 判断某个周期的日期区间是否覆盖给定时间。
func IsPeriodActive(pub db.Publication, now time.Time) bool {
	start, end := PeriodDateRange(pub.Year, pub.Month, pub.Period)
	return !now.Before(start) && !now.After(end)
}

func (s *PublicationService) updateStatus(id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == db.PublicationStatusPublished {
		updates["published_at"] = time.Now()
	}

	result := s.db.Model(&db.Publication{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPublicationNotFound
	}
	return nil
}

func (s *PublicationService) approvedItems(id uint) ([]SpotlightItem, error) {
	var submissions []db.Submission
	err := s.db.Preload("Fields").
		Where("publication_id = ? AND status = ?", id, db.SubmissionStatusApproved).
		Order("created_at desc").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	items := make([]SpotlightItem, 0, len(submissions))
	for _, sub := range submissions {
		fields := make(map[string]string, len(sub.Fields))
		for _, field := range sub.Fields {
			fields[field.FieldName] = field.FieldValue
		}
		items = append(items, SpotlightItem{
			ProjectName: sub.ProjectName,
			UserEmail:   sub.UserEmail,
			Fields:      fields,
		})
	}

	return items, nil
}
