package ui

import (
	"net/url"
	"time"

	"dirportal/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type auditPageData struct {
	Entries []domain.AuditEntry
	Action  string
	Page    domain.PageRequest
	Total   int64
}

func auditPage(principal domain.ContextPrincipal, csrf func() Node, d auditPageData) Node {
	rows := make([]Node, 0, len(d.Entries))
	for i := range d.Entries {
		e := d.Entries[i]
		tone := "success"
		if e.Status == domain.AuditStatusError {
			tone = "danger"
		}
		rows = append(rows, Tr(
			data.Show(containsExpr(e.Actor+" "+e.Action+" "+e.Target)),
			Td(Class(mutedClass()), Text(e.CreatedAt.Format(time.RFC3339))),
			Td(Text(e.Actor)),
			Td(Text(e.Action)),
			Td(Text(valueOrDash(e.Target))),
			Td(statusLabel(e.Status, tone)),
			Td(Text(valueOrDash(e.Message))),
		))
	}

	tableNode := Node(emptyStateCard("No audit entries recorded yet.", "", ""))
	if len(rows) > 0 {
		tableNode = Div(
			Class(cardClass("table-wrap")),
			Table(
				Class("data-table"),
				THead(Tr(Th(Text("Time")), Th(Text("Actor")), Th(Text("Action")), Th(Text("Target")), Th(Text("Status")), Th(Text("Message")))),
				TBody(Group(rows)),
			),
		)
	}

	basePath := "/Audit"
	if d.Action != "" {
		basePath += "?action=" + url.QueryEscape(d.Action)
	}

	return appPage(
		"Audit",
		"audit",
		principal,
		csrf,
		Div(
			Class(cardClass("toolbar")),
			Form(
				Class("d-flex flex-items-center gap-2 flex-1"),
				Method("get"),
				Action("/Audit"),
				Label(Class("sr-only"), Text("Action filter")),
				Input(Type("search"), Class("form-control"), Name("action"), Value(d.Action), Placeholder("Filter by action, e.g. user.create")),
				Button(Type("submit"), Class("btn btn-sm"), Text("Apply")),
			),
		),
		quickFilterCard("Filter this page by actor, action, or target"),
		tableNode,
		paginationCard(basePath, d.Page, d.Total),
	)
}
