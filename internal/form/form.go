// Package form declares the configurable spotlight submission form and
// validates submitted values against it.
package form

// FieldType 描述表单字段的输入控件类型。
type FieldType string

const (
	// FieldText 单行文本。
	FieldText FieldType = "text"
	// FieldTextarea 多行文本。
	FieldTextarea FieldType = "textarea"
	// FieldSelect 单选下拉。
	FieldSelect FieldType = "select"
	// FieldMultiSelect 多选。
	FieldMultiSelect FieldType = "multiselect"
)

// FieldSpec describes one configurable form field. The order of the
// slice returned by SpotlightFields is the display order.
type FieldSpec struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
	HelpText string
}

// SpotlightFields returns the form definition for a spotlight write-up.
func SpotlightFields() []FieldSpec {
	return []FieldSpec{
		{
			Name:     "title",
			Label:    "Spotlight Title",
			Type:     FieldText,
			Required: true,
			HelpText: "A brief, attention-grabbing title (50-80 characters recommended)",
		},
		{
			Name:     "description",
			Label:    "Description",
			Type:     FieldTextarea,
			Required: true,
			HelpText: "Provide context and background (2-3 sentences)",
		},
		{
			Name:     "key_achievements",
			Label:    "Key Achievements",
			Type:     FieldTextarea,
			Required: true,
			HelpText: "Highlight the most important achievements and milestones",
		},
		{
			Name:     "impact",
			Label:    "Impact & Results",
			Type:     FieldTextarea,
			Required: true,
			HelpText: "Include metrics, outcomes, and business value delivered",
		},
		{
			Name:     "category",
			Label:    "Category",
			Type:     FieldSelect,
			Required: true,
			Options: []string{
				"Innovation",
				"Process Improvement",
				"Customer Success",
				"Team Achievement",
				"Technology Advancement",
				"Business Growth",
				"Other",
			},
			HelpText: "Select the category that best fits this spotlight",
		},
		{
			Name:  "tags",
			Label: "Tags",
			Type:  FieldMultiSelect,
			Options: []string{
				"Digital Transformation",
				"AI/ML",
				"Cloud",
				"Security",
				"Data Analytics",
				"Automation",
				"Collaboration",
				"Customer Experience",
				"Efficiency",
				"Cost Savings",
			},
			HelpText: "Select relevant tags (optional)",
		},
		{
			Name:     "team_members",
			Label:    "Team Members",
			Type:     FieldText,
			HelpText: "Recognize team members who contributed to this achievement",
		},
	}
}
