package handler

import (
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/form"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db                *gorm.DB
	users             *service.UserService
	publications      *service.PublicationService
	submissions       *service.SubmissionService
	suggestions       *service.SuggestionService
	system            *service.SystemSettingService
	suggester         service.ContentSuggester
	sender            service.PublicationSender
	defaultRecipients []string
	formSpecs         []form.FieldSpec
}

// Options 描述构造 API 所需的外部协作者。
type Options struct {
	Suggester         service.ContentSuggester
	Sender            service.PublicationSender
	DefaultRecipients []string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, opts Options) *API {
	systemService := service.NewSystemSettingService(db)

	suggester := opts.Suggester
	if suggester == nil {
		suggester = service.NewAISuggestService(systemService)
	}

	return &API{
		db:                db,
		users:             service.NewUserService(db),
		publications:      service.NewPublicationService(db),
		submissions:       service.NewSubmissionService(db),
		suggestions:       service.NewSuggestionService(db),
		system:            systemService,
		suggester:         suggester,
		sender:            opts.Sender,
		defaultRecipients: opts.DefaultRecipients,
		formSpecs:         form.SpotlightFields(),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// recipients 优先返回后台配置的收件人，否则回退到启动配置。
func (a *API) recipients() []string {
	settings, err := a.system.GetSettings()
	if err == nil && len(settings.EmailRecipients) > 0 {
		return settings.EmailRecipients
	}
	return a.defaultRecipients
}
