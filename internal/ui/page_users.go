package ui

import (
	"encoding/base64"
	"net/url"

	"dirportal/internal/domain"
	"dirportal/internal/service/directory"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type userDetailData struct {
	Ref         string
	Detail      directory.Detail
	Elevated    bool
	ShowConsent bool
	Notice      string
	Error       string
}

func userDetailPage(principal domain.ContextPrincipal, csrf func() Node, d userDetailData) Node {
	u := d.Detail.User

	title := u.DisplayName
	if title == "" {
		title = "User"
	}
	active := "directory"
	if d.Elevated {
		active = "admin"
	}
	if domain.IsMeRef(d.Ref) {
		active = "profile"
	}

	consent := Node(nil)
	if d.ShowConsent {
		consent = consentBanner(d.Ref)
	}

	body := []Node{
		flashBanners(d.Notice, d.Error),
		consent,
		userProfileCard(d),
		userPhoneCard(csrf, u),
		userOrgCard(principal, d),
	}
	if d.Elevated {
		body = append(body, userDangerCard(csrf, u))
	}
	return appPage(title, active, principal, csrf, Group(body))
}

func userProfileCard(d userDetailData) Node {
	u := d.Detail.User

	photo := Node(I(Class("nav-icon profile-photo"), Attr("data-lucide", "circle-user"), Attr("aria-hidden", "true")))
	if p := d.Detail.Photo; p != nil && len(p.Data) > 0 {
		contentType := p.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		photo = Img(
			Class("profile-photo"),
			Src("data:"+contentType+";base64,"+base64.StdEncoding.EncodeToString(p.Data)),
			Alt("Profile photo of "+u.DisplayName),
		)
	}

	status := statusLabel("Enabled", "success")
	if !u.AccountEnabled {
		status = statusLabel("Disabled", "danger")
	}

	return Div(
		Class(cardClass()),
		Div(
			Class("d-flex flex-items-center gap-2"),
			photo,
			Div(
				H2(Text(u.DisplayName)),
				P(Class(mutedClass()), Text(u.UserPrincipalName)),
			),
			status,
		),
		Div(
			Class("mt-3"),
			profileRow("Mail", valueOrDash(u.Mail)),
			profileRow("Mobile phone", valueOrDash(u.MobilePhone)),
			profileRow("Object id", valueOrDash(u.ID)),
		),
	)
}

func profileRow(label, value string) Node {
	return Div(Class("profile-row"), Strong(Text(label+": ")), Span(Text(value)))
}

func userPhoneCard(csrf func() Node, u domain.DirectoryUser) Node {
	return Div(
		Class(cardClass()),
		H3(Text("Update Phone")),
		P(Class(mutedClass()), Text("Submitting an empty value clears the stored number.")),
		Form(
			Class("stack-form"),
			Method("post"),
			Action("/Users/Update"),
			csrf(),
			Input(Type("hidden"), Name("userId"), Value(u.ID)),
			Label(Text("Mobile Phone")),
			Input(Name("mobilePhone"), Value(u.MobilePhone)),
			Div(Class("form-actions"), Button(Type("submit"), Class(primaryButtonClass()), Text("Save"))),
		),
	)
}

func userOrgCard(principal domain.ContextPrincipal, d userDetailData) Node {
	if principal.Consumer {
		return Div(
			Class(cardClass()),
			H3(Text("Organization")),
			P(Class(mutedClass()), Text("Organization details are not available for personal accounts.")),
		)
	}

	managerNode := Node(P(Class(mutedClass()), Text("No manager")))
	if m := d.Detail.Manager; m != nil {
		managerNode = P(A(Href(userDetailHref(d.Elevated, m.ID)), Text(m.DisplayName)))
	}

	reportsNode := Node(P(Class(mutedClass()), Text("None")))
	if len(d.Detail.Reports) > 0 {
		items := make([]Node, 0, len(d.Detail.Reports))
		for i := range d.Detail.Reports {
			rep := d.Detail.Reports[i]
			items = append(items, Li(A(Href(userDetailHref(d.Elevated, rep.ID)), Text(rep.DisplayName))))
		}
		reportsNode = Ul(Group(items))
	}

	return Div(
		Class(cardClass()),
		H3(Text("Organization")),
		Div(Class("mt-2"), Strong(Text("Manager")), managerNode),
		Div(Class("mt-2"), Strong(Text("Direct reports")), reportsNode),
	)
}

func userDangerCard(csrf func() Node, u domain.DirectoryUser) Node {
	return Div(
		Class(cardClass()),
		H3(Text("Danger Zone")),
		P(Class(mutedClass()), Text("Deleting removes the user from the directory. This cannot be undone from the portal.")),
		Form(
			Method("post"),
			Action("/Users/Delete"),
			csrf(),
			Input(Type("hidden"), Name("userId"), Value(u.ID)),
			Button(Type("submit"), Class(dangerButtonClass()), Text("Delete user")),
		),
	)
}

func userDetailHref(elevated bool, ref string) string {
	base := "/Users/Display"
	if elevated {
		base = "/Users/AdminDisplay"
	}
	return base + "?userId=" + url.QueryEscape(ref)
}

type usersListData struct {
	Users    []domain.UserRef
	NextLink string
	Elevated bool
	Notice   string
	Error    string
}

func usersListPage(principal domain.ContextPrincipal, csrf func() Node, d usersListData) Node {
	title := "Directory"
	active := "directory"
	if d.Elevated {
		title = "Admin Directory"
		active = "admin"
	}

	rows := make([]Node, 0, len(d.Users))
	for i := range d.Users {
		u := d.Users[i]
		rows = append(rows, Tr(
			data.Show(containsExpr(u.DisplayName)),
			Td(A(Href(userDetailHref(d.Elevated, u.ID)), Text(u.DisplayName))),
			Td(Class(mutedClass()), Text(u.ID)),
		))
	}

	tableNode := Node(emptyStateCard("No users on this page of the directory.", "", ""))
	if d.Elevated && len(rows) == 0 {
		tableNode = emptyStateCard("No users on this page of the directory.", "New user", "/Users/Create")
	}
	if len(rows) > 0 {
		tableNode = Div(
			Class(cardClass("table-wrap")),
			Table(Class("data-table"), THead(Tr(Th(Text("Name")), Th(Text("Id")))), TBody(Group(rows))),
		)
	}

	pagerNode := Node(Div(Class(cardClass()), P(Class(mutedClass()), Text("End of directory listing."))))
	if d.NextLink != "" {
		isAdmin := "0"
		if d.Elevated {
			isAdmin = "1"
		}
		pagerNode = Div(
			Class(cardClass()),
			A(Href("/Users/Page?pageUrl="+url.QueryEscape(d.NextLink)+"&isAdmin="+isAdmin), Text("Next page ->")),
		)
	}

	return appPage(
		title,
		active,
		principal,
		csrf,
		flashBanners(d.Notice, d.Error),
		quickFilterCard("Filter this page by display name"),
		tableNode,
		pagerNode,
	)
}

func userCreatePage(principal domain.ContextPrincipal, csrf func() Node, domains []domain.VerifiedDomain, errMsg string) Node {
	// Option values carry the "@" so userName+domainName forms the principal.
	selected := ""
	for i := range domains {
		if domains[i].Default {
			selected = "@" + domains[i].Name
		}
	}
	if selected == "" && len(domains) > 0 {
		selected = "@" + domains[0].Name
	}
	options := make([]Node, 0, len(domains))
	for i := range domains {
		options = append(options, optionSelected("@"+domains[i].Name, selected))
	}

	return appPage(
		"New User",
		"create",
		principal,
		csrf,
		flashBanners("", errMsg),
		Div(
			Class(cardClass()),
			Form(
				Class("stack-form"),
				Method("post"),
				Action("/Users/Create"),
				csrf(),
				Label(Text("Display Name")),
				Input(Name("displayName"), Required()),
				Label(Text("User Name")),
				Input(Name("userName"), Required()),
				P(Class(mutedClass()), Text("The part of the sign-in name before the @ sign.")),
				Label(Text("Domain")),
				Select(Name("domainName"), Group(options)),
				Label(Text("Temporary Password")),
				Input(Type("password"), Name("password"), Required()),
				Label(Text("Mobile Phone")),
				Input(Name("mobilePhone")),
				Div(Class("form-actions"), Button(Type("submit"), Class(primaryButtonClass()), Text("Save"))),
			),
		),
	)
}
