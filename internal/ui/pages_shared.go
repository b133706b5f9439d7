package ui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"dirportal/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Overview", Href: "/", Key: "home", Icon: "house"},
	{Label: "My Profile", Href: "/Users/Display?userId=me", Key: "profile", Icon: "circle-user"},
	{Label: "Directory", Href: "/Users/List", Key: "directory", Icon: "users"},
	{Label: "Admin Directory", Href: "/Users/AdminList", Key: "admin", Icon: "shield"},
	{Label: "New User", Href: "/Users/Create", Key: "create", Icon: "user-plus"},
	{Label: "Settings", Href: "/Extensions", Key: "settings", Icon: "sliders-horizontal"},
	{Label: "Audit", Href: "/Audit", Key: "audit", Icon: "scroll-text"},
}

func appPage(title, active string, principal domain.ContextPrincipal, csrf func() Node, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link Link--secondary d-flex flex-items-center"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	who := principal.DisplayName
	if who == "" {
		who = principal.Principal
	}
	if who == "" {
		who = "unknown"
	}

	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Directory Portal")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
			Link(Rel("preconnect"), Href("https://fonts.gstatic.com"), Attr("crossorigin", "")),
			Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
			Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
			Script(Raw(themeInitScript)),
		),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("Directory Portal")),
						P(Class("color-fg-muted text-small mb-0"), Text("Organization users and settings")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						Div(
							H1(Class("page-title"), Text(title)),
						),
						Div(
							P(Class("color-fg-muted text-small mb-2"), Text("Signed in as "+who)),
							Div(
								Class("d-flex flex-items-center gap-2"),
								Button(Type("button"), Class("btn btn-sm"), Attr("onclick", themeToggleScript), Text("Theme")),
								Form(
									Method("post"),
									Action("/signout"),
									csrf(),
									Button(Type("submit"), Class("btn btn-sm"), Text("Sign out")),
								),
							),
						),
					),
					Div(Class("content"), Group(body)),
				),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Directory Portal")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
			Link(Rel("preconnect"), Href("https://fonts.gstatic.com"), Attr("crossorigin", "")),
			Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
		),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/"), Text("Back to overview"))),
			),
		),
	)
}

// flashBanners renders the notice/error pair carried on the query string.
func flashBanners(notice, errMsg string) Node {
	nodes := make([]Node, 0, 2)
	if notice != "" {
		nodes = append(nodes, Div(Class("flash flash-success mb-3"), Text(notice)))
	}
	if errMsg != "" {
		nodes = append(nodes, Div(Class("flash flash-error mb-3"), Text(errMsg)))
	}
	if len(nodes) == 0 {
		return nil
	}
	return Group(nodes)
}

// consentBanner points at the elevated entry for the same user. It renders
// when an organizational lookup was refused under basic scopes.
func consentBanner(ref string) Node {
	return Div(
		Class("flash mb-3"),
		P(Class("mb-1"), Text("Some details could not be loaded with your current permissions.")),
		A(Href("/Users/AdminDisplay?userId="+url.QueryEscape(ref)), Text("Request elevated access ->")),
	)
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func dangerButtonClass() string {
	return "btn btn-danger"
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func emptyStateCard(message, ctaLabel, ctaHref string) Node {
	cta := Node(nil)
	if ctaLabel != "" && ctaHref != "" {
		cta = A(Href(ctaHref), Class(primaryButtonClass()), Text(ctaLabel))
	}
	return Div(
		Class(cardClass("blankslate")),
		P(Class("color-fg-muted mb-2"), Text(message)),
		cta,
	)
}

func quickFilterCard(placeholder string) Node {
	return Div(
		Class(cardClass("toolbar")),
		data.Signals(map[string]any{"q": ""}),
		Div(
			Class("d-flex flex-items-center gap-2 flex-1"),
			Label(Class("sr-only"), Text("Quick filter")),
			Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
		),
	)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

// paginationCard renders offset-token paging for locally stored listings.
func paginationCard(basePath string, page domain.PageRequest, total int64) Node {
	nextToken := domain.NextPageToken(page.Offset(), page.Limit(), total)
	if nextToken == "" {
		return Div(Class(cardClass()), P(Class(mutedClass()), Text(fmt.Sprintf("Showing %d of %d entries.", minInt(page.Limit(), int(total)), total))))
	}
	sep := "?"
	if strings.Contains(basePath, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%smax_results=%d&page_token=%s", basePath, sep, page.Limit(), nextToken)
	return Div(
		Class(cardClass()),
		P(Class(mutedClass()), Text(fmt.Sprintf("Showing up to %d of %d entries.", page.Limit(), total))),
		A(Href(url), Text("Next page ->")),
	)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
