package ui

import (
	"net/url"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func signinPage(errMsg, returnTo string) Node {
	startHref := "/signin/start"
	if returnTo != "" && returnTo != "/" {
		startHref += "?return=" + url.QueryEscape(returnTo)
	}

	content := []Node{
		H1(Text("Directory Portal")),
		P(Text("Sign in with your organizational account to browse and manage directory users.")),
		A(Href(startHref), Class("btn btn-primary btn-large"), Text("Sign in")),
		P(Class("color-fg-muted text-small mt-3"), Text("You will be redirected to your identity provider.")),
	}
	if errMsg != "" {
		content = append([]Node{P(Class("error"), Text("Error: "+errMsg))}, content...)
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text("Sign in | Directory Portal")),
			Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
			Link(Rel("preconnect"), Href("https://fonts.gstatic.com"), Attr("crossorigin", "")),
			Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
		),
		Body(
			Class("login-body"),
			Main(Class("login-wrap"), Group(content)),
		),
	)
}
