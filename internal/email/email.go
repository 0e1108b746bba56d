package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"newsbrief/internal/core"
)

// NewsletterData contains everything the newsletter template needs.
type NewsletterData struct {
	Interests []string
	Articles  []core.Article
	Date      string
}

const newsletterTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #1e293b; }
        .header { background: #2c3e50; color: white; padding: 20px; text-align: center; }
        .article { border-bottom: 1px solid #eee; padding: 20px 0; }
        .article h3 { color: #2c3e50; margin-bottom: 10px; }
        .article h3 a { text-decoration: none; color: #2c3e50; }
        .category { background: #3498db; color: white; padding: 4px 8px; border-radius: 4px; font-size: 12px; }
        .source { color: #7f8c8d; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px; text-align: center; margin-top: 30px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Your Newsletter</h1>
        <p>Personalized tech insights for: {{join .Interests ", "}}</p>
    </div>

    <div class="content">
        {{range .Articles}}
        <div class="article">
            <span class="category">{{.Category}}</span>
            <h3><a href="{{.URL}}">{{.Title}}</a></h3>
            <p>{{summaryOrExcerpt .}}</p>
            <div class="source">Source: {{.Source}} | Published: {{publishedLabel .PublishedAt}}</div>
        </div>
        {{end}}
    </div>

    <div class="footer">
        <p>This newsletter was curated based on your interests.</p>
        <p>Generated on {{.Date}}</p>
    </div>
</body>
</html>`

// excerptLength caps how much raw article content appears when no summary is
// available.
const excerptLength = 300

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"summaryOrExcerpt": func(a core.Article) string {
		if a.Summary != "" {
			return a.Summary
		}
		if len(a.Content) > excerptLength {
			return core.Truncate(a.Content, excerptLength) + "..."
		}
		return a.Content
	},
	"publishedLabel": func(t time.Time) string {
		if t.IsZero() {
			return "Recently"
		}
		return t.Format("2006-01-02")
	},
}

// RenderNewsletter renders the articles into the HTML newsletter body.
func RenderNewsletter(articles []core.Article, interests []string) (string, error) {
	tmpl, err := template.New("newsletter").Funcs(templateFuncs).Parse(newsletterTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse newsletter template: %w", err)
	}

	data := NewsletterData{
		Interests: interests,
		Articles:  articles,
		Date:      time.Now().Format("January 2, 2006"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute newsletter template: %w", err)
	}
	return buf.String(), nil
}

// Subject builds the newsletter subject line for a recipient's interests.
func Subject(interests []string, date time.Time) string {
	return fmt.Sprintf("Your Newsletter: %s - %s", strings.Join(interests, ", "), date.Format("2006-01-02"))
}
