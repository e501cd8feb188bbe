package gemini

import (
	"bytes"
	"fmt"
	"text/template"
)

const lessonPrompt = `You are an experienced instructor writing material for the course "{{.CourseName}}".
Write the full body of the lesson "{{.LessonName}}" in markdown. Use headings, short paragraphs,
and at least one worked example.
{{- if .Instructions}}

Author notes:
{{.Instructions}}
{{- end}}

Respond with a JSON object of the form {"content": "<markdown>"} and nothing else.`

const presentationPrompt = `You are preparing a slide deck that introduces the course "{{.CourseName}}"
{{- if .Audience}} to {{.Audience}}{{end}}.
{{- if .LessonNames}}
The course covers these lessons, in order:
{{- range .LessonNames}}
- {{.}}
{{- end}}
{{- end}}

Produce between 5 and 12 slides. Respond with a JSON object of the form
{"title": "<deck title>", "slides": [{"title": "<slide title>", "bullets": ["<point>", ...]}]}
and nothing else.`

var (
	lessonTemplate       = template.Must(template.New("lesson").Parse(lessonPrompt))
	presentationTemplate = template.Must(template.New("presentation").Parse(presentationPrompt))
)

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s prompt template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
