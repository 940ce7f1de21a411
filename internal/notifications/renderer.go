package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const layoutTemplate = "layout"

var subjects = map[MessageType]string{
	MessageTypeReminder: "Your subscription will expire in 7 days",
	MessageTypeExpired:  "Your subscription has expired",
}

// Renderer renders subscription emails from embedded HTML templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer creates a new renderer and loads all templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	names := []string{string(MessageTypeReminder), string(MessageTypeExpired), layoutTemplate}
	for _, name := range names {
		filename := fmt.Sprintf("templates/%s.html.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// Render returns the subject and the layout-wrapped HTML body.
func (r *Renderer) Render(messageType MessageType, data EmailData) (subject, body string, err error) {
	subject, ok := subjects[messageType]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownMessageType, messageType)
	}

	content, err := r.execute(string(messageType), data)
	if err != nil {
		return "", "", err
	}

	// content was produced by html/template and is already escaped
	wrapped, err := r.execute(layoutTemplate, layoutData{
		Heading:  subject,
		Content:  template.HTML(content),
		ShopName: data.ShopName,
	})
	if err != nil {
		return "", "", err
	}

	return subject, wrapped, nil
}

func (r *Renderer) execute(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
