package worker

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
)

var pageTmpl = template.Must(template.New("deck").Funcs(template.FuncMap{"join": strings.Join}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Meta.Title}}</title>
{{- if .Meta.Description}}
<meta name="description" content="{{.Meta.Description}}">
{{- end}}
{{- if .Meta.Author}}
<meta name="author" content="{{.Meta.Author.Name}}">
{{- end}}
{{- if .Meta.Tags}}
<meta name="keywords" content="{{join .Meta.Tags ", "}}">
{{- end}}
</head>
<body>
<deckgo-deck{{with .Deck.Data.Attributes}}{{if .Transition}} transition="{{.Transition}}"{{end}}{{if .Style}} style="{{.Style}}"{{end}}{{end}}>
{{- range .Deck.Data.Slides}}
  <deckgo-slide data-slide-id="{{.}}"></deckgo-slide>
{{- end}}
{{- if .Deck.Data.Background}}
  <div slot="background">{{.Deck.Data.Background}}</div>
{{- end}}
{{- if .Deck.Data.Header}}
  <div slot="header">{{.Deck.Data.Header}}</div>
{{- end}}
{{- if .Deck.Data.Footer}}
  <div slot="footer">{{.Deck.Data.Footer}}</div>
{{- end}}
</deckgo-deck>
</body>
</html>
`))

type page struct {
	Deck *deck.Deck
	Meta deck.DeckMeta
}

// Render produces the static index page of a published deck.
func Render(d *deck.Deck, meta deck.DeckMeta) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, page{Deck: d, Meta: meta}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
