package oadigest

import (
	"context"
	"html/template"
	"strings"
)

// Message is a single outgoing digest email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers digest emails.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// DigestSubject returns the subject line of the digest for date.
func DigestSubject(date string) string {
	return date + " OA notice digest"
}

var digestTmpl = template.Must(template.New("digest").Parse(`<html>
<head>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; background-color: #f9f9f9; max-width: 1200px; margin: 0 auto; padding: 20px; }
h1 { color: #2c3e50; text-align: center; padding-bottom: 15px; border-bottom: 1px solid #eaeaea; }
.notification { background: white; border-radius: 8px; padding: 20px; margin-bottom: 20px; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1); }
.title { font-size: 17px; font-weight: 600; margin-bottom: 8px; }
.title a { color: #2c3e50; text-decoration: none; }
.unit { font-size: 14px; color: #777; margin-bottom: 10px; padding-bottom: 10px; border-bottom: 1px dashed #eaeaea; }
.summary { font-size: 14px; line-height: 1.5; }
</style>
</head>
<body>
<h1>{{.Date}} notice digest</h1>
<div class="notification-container">
{{- range .Announcements}}
<div class="notification">
<div class="title"><a href="{{.Link}}">{{.Title}}</a></div>
<div class="unit">{{.Unit}}</div>
<div class="summary">{{.Summary}}</div>
</div>
{{- end}}
</div>
</body>
</html>
`))

// RenderDigest renders the HTML body of the digest for date.
func RenderDigest(date string, announcements []*Announcement) (string, error) {
	var sb strings.Builder
	err := digestTmpl.Execute(&sb, struct {
		Date          string
		Announcements []*Announcement
	}{date, announcements})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
