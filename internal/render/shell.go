package render

import (
	"bytes"
	_ "embed"
	"html/template"
)

// contentAnchor marks where the rendered document is spliced into the shell.
const contentAnchor = "<!--wiki:content-->"

var (
	//go:embed assets/editor.css
	editorCSS string
	//go:embed assets/print.css
	printCSS string
)

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- range .Styles}}
<style>{{.}}</style>
{{- end}}
</head>
<body>
<main class="{{.Class}}">
{{- if .Title}}
<h1 class="document-title">{{.Title}}</h1>
{{- end}}
{{.Anchor}}
</main>
</body>
</html>
`))

type shellData struct {
	Language string
	Title    string
	Class    string
	Styles   []template.CSS
	Anchor   template.HTML
}

// renderShell executes the page template. styles are trusted CSS.
func renderShell(opts Options, styles []string) (string, error) {
	data := shellData{
		Language: opts.language(),
		Title:    opts.Title,
		Class:    "document",
		Anchor:   template.HTML(contentAnchor),
	}
	if opts.Centered {
		data.Class += " centered"
	}
	for _, css := range styles {
		if css != "" {
			data.Styles = append(data.Styles, template.CSS(css))
		}
	}
	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
