package handler

import "html/template"

const (
	verdictTemplate = "verdict"
	landingTemplate = "landing"
)

var pages = template.Must(template.New(verdictTemplate).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Click {{.Status}}</title></head>
<body>
<h1>Click {{.Status}}</h1>
<dl>
<dt>Click ID</dt><dd>{{.Record.ID}}</dd>
<dt>Campaign</dt><dd>{{.Record.CampaignID}}</dd>
<dt>Valid</dt><dd>{{.Record.IsValid}}</dd>
<dt>Fraud reason</dt><dd>{{if .Record.FraudReason}}{{.Record.FraudReason}}{{else}}none{{end}}</dd>
<dt>Fraud score</dt><dd>{{printf "%.4f" .Record.FraudScore}}</dd>
<dt>Destination</dt><dd><a href="{{.To}}">{{.To}}</a></dd>
</dl>
</body>
</html>
`))

func init() {
	template.Must(pages.New(landingTemplate).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>Click ID: {{.ClickID}}</p>
</body>
</html>
`))
}
