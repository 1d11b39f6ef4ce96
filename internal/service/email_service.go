package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	emailMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
	)
	emailSanitizer = bluemonday.UGCPolicy()
)

// ErrSMTPNotConfigured 表示缺少发信所需的 SMTP 账号配置。
var ErrSMTPNotConfigured = errors.New("smtp credentials are not configured")

type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService 通过 SMTP 投递发布邮件，实现 PublicationSender。
type EmailService struct {
	host     string
	port     string
	from     string
	password string
	send     smtpSendFunc
}

// NewEmailService creates an EmailService instance.
func NewEmailService(host, port, from, password string) *EmailService {
	return &EmailService{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		send:     smtp.SendMail,
	}
}

// SetSendFunc 覆盖底层 SMTP 发送函数，主要用于测试。
func (s *EmailService) SetSendFunc(send smtpSendFunc) {
	if send == nil {
		s.send = smtp.SendMail
		return
	}
	s.send = send
}

// SendPublication renders the publication digest and delivers it to
// the recipient list. A non-nil error means nothing was delivered and
// the publication must stay unpublished.
func (s *EmailService) SendPublication(ctx context.Context, pub db.Publication, items []SpotlightItem, recipients []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("📰 %s - Organizational Spotlight", pub.DisplayName())

	html, err := renderPublicationEmail(pub, items)
	if err != nil {
		return fmt.Errorf("render publication email: %w", err)
	}

	text := fmt.Sprintf("%s\n\nThis issue contains %d approved spotlight(s). Please view this email in HTML format.",
		pub.DisplayName(), len(items))

	return s.deliver(recipients, subject, html, text)
}

// SendTestEmail 发送一封验证 SMTP 配置的测试邮件。
func (s *EmailService) SendTestEmail(recipient string) error {
	html := `<html><body style="font-family: Arial, sans-serif; padding: 20px;">
<h2>Test Email</h2>
<p>This is a test email from the Organizational Spotlight application.</p>
<p>If you received this email, your SMTP configuration is working correctly!</p>
</body></html>`
	text := "Test Email - If you received this, your SMTP configuration is working!"

	return s.deliver([]string{recipient}, "Test Email - Organizational Spotlight", html, text)
}

func (s *EmailService) deliver(recipients []string, subject, htmlBody, textBody string) error {
	if strings.TrimSpace(s.from) == "" || strings.TrimSpace(s.password) == "" {
		return ErrSMTPNotConfigured
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	boundary := "spotlight-" + uuid.NewString()

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Message-ID: <%s@%s>\r\n", uuid.NewString(), s.host)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	msg.WriteString("\r\n")

	// 纯文本兜底部分
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	if err := s.send(s.host+":"+s.port, auth, s.from, recipients, msg.Bytes()); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

var publicationEmailTemplate = template.Must(template.New("publication_email").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>{{.Name}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f4f4f4; margin: 0; padding: 0;">
	<div style="max-width: 640px; margin: 0 auto; padding: 24px; background-color: #ffffff;">
		<h1 style="color: #4a2e83; border-bottom: 2px solid #4a2e83; padding-bottom: 8px;">✨ {{.Name}}</h1>
		<p>Celebrating {{.Count}} spotlight{{if ne .Count 1}}s{{end}} from across the organization.</p>
		{{range .Items}}
		<div style="margin: 24px 0; padding: 16px; border: 1px solid #e0e0e0; border-radius: 6px;">
			<h2 style="color: #4a2e83; margin-top: 0;">{{.Title}}</h2>
			<p style="color: #888; margin: 4px 0;"><strong>Project:</strong> {{.ProjectName}}{{if .Category}} &middot; {{.Category}}{{end}}</p>
			<div>{{.Description}}</div>
			{{if .KeyAchievements}}<h3 style="margin-bottom: 4px;">Key Achievements</h3><div>{{.KeyAchievements}}</div>{{end}}
			{{if .Impact}}<h3 style="margin-bottom: 4px;">Impact &amp; Results</h3><div>{{.Impact}}</div>{{end}}
			{{if .TeamMembers}}<p style="color: #888;"><strong>Team:</strong> {{.TeamMembers}}</p>{{end}}
			{{if .Tags}}<p style="color: #888; font-size: 13px;">{{.Tags}}</p>{{end}}
		</div>
		{{end}}
		<hr style="border: none; border-top: 1px solid #eee; margin: 24px 0;">
		<p style="color: #999; font-size: 12px; text-align: center;">This is an automated publication. Please do not reply.</p>
	</div>
</body>
</html>
`))

type publicationEmailData struct {
	Name  string
	Count int
	Items []publicationEmailItem
}

type publicationEmailItem struct {
	ProjectName     string
	Title           string
	Category        string
	Tags            string
	TeamMembers     string
	Description     template.HTML
	KeyAchievements template.HTML
	Impact          template.HTML
}

func renderPublicationEmail(pub db.Publication, items []SpotlightItem) (string, error) {
	data := publicationEmailData{
		Name:  pub.DisplayName(),
		Count: len(items),
	}

	for _, item := range items {
		title := strings.TrimSpace(item.Fields["title"])
		if title == "" {
			title = item.ProjectName
		}

		data.Items = append(data.Items, publicationEmailItem{
			ProjectName:     item.ProjectName,
			Title:           title,
			Category:        item.Fields["category"],
			Tags:            item.Fields["tags"],
			TeamMembers:     item.Fields["team_members"],
			Description:     renderMarkdownField(item.Fields["description"]),
			KeyAchievements: renderMarkdownField(item.Fields["key_achievements"]),
			Impact:          renderMarkdownField(item.Fields["impact"]),
		})
	}

	var buf bytes.Buffer
	if err := publicationEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderMarkdownField 将长文本字段按 Markdown 渲染并净化，空值返回空 HTML。
func renderMarkdownField(value string) template.HTML {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := emailMarkdown.Convert([]byte(trimmed), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(trimmed))
	}
	return template.HTML(emailSanitizer.SanitizeBytes(buf.Bytes()))
}
