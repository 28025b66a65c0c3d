package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Template names
const (
	TemplateQuietBlockReminder = "quiet_block_reminder"
)

// Service renders templates and hands the result to a Sender
type Service struct {
	sender        Sender
	baseTemplate  *template.Template
	htmlTemplates map[string]*template.Template
	textTemplates map[string]*texttemplate.Template
}

// NewService creates email service
func NewService(sender Sender) (*Service, error) {
	base, err := template.New("base").Parse(BaseTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	s := &Service{
		sender:        sender,
		baseTemplate:  base,
		htmlTemplates: make(map[string]*template.Template),
		textTemplates: make(map[string]*texttemplate.Template),
	}

	html := map[string]string{
		TemplateQuietBlockReminder: QuietBlockReminderTemplate,
	}
	text := map[string]string{
		TemplateQuietBlockReminder: QuietBlockReminderText,
	}

	for name, content := range html {
		tmpl, err := template.New(name).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		s.htmlTemplates[name] = tmpl
	}
	for name, content := range text {
		tmpl, err := texttemplate.New(name).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("parse text template %s: %w", name, err)
		}
		s.textTemplates[name] = tmpl
	}

	return s, nil
}

// Render builds the HTML and plain text bodies for templateName
func (s *Service) Render(templateName string, data interface{}) (html string, text string, err error) {
	tmpl, ok := s.htmlTemplates[templateName]
	if !ok {
		return "", "", fmt.Errorf("template %s not found", templateName)
	}

	var contentBuf bytes.Buffer
	if err := tmpl.Execute(&contentBuf, data); err != nil {
		return "", "", err
	}

	var htmlBuf bytes.Buffer
	if err := s.baseTemplate.Execute(&htmlBuf, map[string]interface{}{
		"Content": template.HTML(contentBuf.String()),
	}); err != nil {
		return "", "", err
	}

	if textTmpl, ok := s.textTemplates[templateName]; ok {
		var textBuf bytes.Buffer
		if err := textTmpl.Execute(&textBuf, data); err != nil {
			return "", "", err
		}
		text = textBuf.String()
	}

	return htmlBuf.String(), text, nil
}

// SendTemplate renders and delivers synchronously. The returned error is the
// transport result, so callers can tell a confirmed send from a failure.
func (s *Service) SendTemplate(ctx context.Context, to, toName, templateName, subject string, data interface{}) error {
	html, text, err := s.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	return s.sender.Send(ctx, &EmailMessage{
		To:          to,
		ToName:      toName,
		Subject:     subject,
		HTMLContent: html,
		TextContent: text,
	})
}
