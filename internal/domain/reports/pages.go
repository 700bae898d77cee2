package reports

import (
	"html/template"
	"io"
)

const layoutHTML = `{{define "layout"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 3rem auto; padding: 0 1rem; }
label { display: block; margin-top: .75rem; }
input { width: 100%; padding: .4rem; }
.error { color: #b00020; }
code { background: #f3f3f3; padding: 0 .25rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{template "content" .}}
</body>
</html>{{end}}`

const formHTML = `{{define "content"}}
<p>Enter an email address and we will send you a link to a zipped CSV of the matching events.</p>
{{if .Message}}<p class="error">{{.Message}}</p>{{end}}
<form method="post" action="/export">
<label>Email <input type="email" name="email" value="{{.Email}}" required></label>
<label>User ID (optional) <input type="text" name="userId" value="{{.Filter.UserID}}"></label>
<label>Event type (optional) <input type="text" name="eventType" value="{{.Filter.EventType}}"></label>
<label>Name (optional) <input type="text" name="name" value="{{.Filter.Name}}"></label>
<p><button type="submit">Send report</button></p>
</form>
{{end}}`

const statusHTML = `{{define "content"}}
{{if .Message}}<p class="error">{{.Message}}</p>{{end}}
{{with .Job}}
<p>Report <code>{{.ID}}</code> is <strong>{{.Status}}</strong>.</p>
{{if eq .Status "failed"}}{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{else}}<p>A link will be sent to <strong>{{.Recipient}}</strong> when it is ready.</p>{{end}}
<p>Status: <a href="/export/jobs/{{.ID}}">/export/jobs/{{.ID}}</a></p>
{{end}}
{{end}}`

var (
	formPage   = template.Must(template.Must(template.New("form").Parse(layoutHTML)).Parse(formHTML))
	statusPage = template.Must(template.Must(template.New("status").Parse(layoutHTML)).Parse(statusHTML))
)

type formView struct {
	Title   string
	Email   string
	Message string
	Filter  filterView
}

type filterView struct {
	UserID    string
	EventType string
	Name      string
}

type statusView struct {
	Title   string
	Message string
	Job     *Job
}

func renderPage(w io.Writer, t *template.Template, v any) error {
	return t.ExecuteTemplate(w, "layout", v)
}
