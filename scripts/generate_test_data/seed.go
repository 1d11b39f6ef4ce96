package main

import (
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"gorm.io/gorm"
)

type sampleSubmission struct {
	userEmail   string
	projectName string
	status      string
	fields      map[string]any
}

var sampleSubmissions = []sampleSubmission{
	{
		userEmail:   "alice@example.com",
		projectName: "Customer Portal Redesign",
		status:      db.SubmissionStatusApproved,
		fields: map[string]any{
			"title":            "A friendlier customer portal",
			"description":      "We redesigned the portal navigation and cut support tickets about login issues by a third.",
			"key_achievements": "- New navigation shipped to all tenants\n- Login-related tickets down 33%",
			"impact":           "Support load dropped and customer satisfaction scores rose two points.",
			"category":         "Customer Success",
			"tags":             []string{"Customer Experience", "Efficiency"},
			"team_members":     "Alice Chen, Dana Wolf",
		},
	},
	{
		userEmail:   "bob@example.com",
		projectName: "Billing Pipeline Automation",
		status:      db.SubmissionStatusSubmitted,
		fields: map[string]any{
			"title":            "Invoices without the manual steps",
			"description":      "The monthly invoice run is now fully automated end to end.",
			"key_achievements": "- Removed 6 hours of manual work per cycle\n- Zero missed invoices since rollout",
			"impact":           "Finance closes the month a full day earlier.",
			"category":         "Process Improvement",
			"tags":             []string{"Automation", "Cost Savings"},
			"team_members":     "Bob Rivera",
		},
	},
	{
		userEmail:   "alice@example.com",
		projectName: "Anomaly Detection Prototype",
		status:      db.SubmissionStatusDraft,
		fields: map[string]any{
			"title":            "Spotting outages before customers do",
			"description":      "An early prototype that flags unusual traffic patterns across services.",
			"key_achievements": "- Caught two incidents in staging before release",
			"impact":           "Still measuring, first signals look promising.",
			"category":         "Innovation",
			"tags":             []string{"AI/ML", "Security"},
		},
	},
}

// seedSampleSubmissions 将示例投稿写入指定周期并返回创建数量。
func seedSampleSubmissions(gdb *gorm.DB, publicationID uint) (int, error) {
	submissions := service.NewSubmissionService(gdb)

	created := 0
	for _, sample := range sampleSubmissions {
		submission, err := submissions.Create(publicationID, sample.userEmail, sample.projectName, sample.fields)
		if err != nil {
			return created, err
		}

		if sample.status != db.SubmissionStatusDraft {
			if err := submissions.Transition(submission.ID, db.SubmissionStatusSubmitted, ""); err != nil {
				return created, err
			}
		}
		if sample.status == db.SubmissionStatusApproved {
			if err := submissions.Transition(submission.ID, db.SubmissionStatusApproved, "approver@example.com"); err != nil {
				return created, err
			}
		}

		created++
	}

	return created, nil
}
