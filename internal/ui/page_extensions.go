package ui

import (
	"strings"

	"dirportal/internal/domain"
	"dirportal/internal/service/settings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type settingsPageData struct {
	Doc    domain.RoamingSettings
	Found  bool
	Notice string
	Error  string
}

func settingsPage(principal domain.ContextPrincipal, csrf func() Node, d settingsPageData) Node {
	body := []Node{flashBanners(d.Notice, d.Error)}
	if d.Found {
		body = append(body,
			Div(
				Class(cardClass()),
				H3(Text("Current Settings")),
				Div(
					Class("mt-2"),
					profileRow("Theme", d.Doc.Theme),
					profileRow("Color", d.Doc.Color),
					profileRow("Language", d.Doc.Language),
				),
			),
			settingsFormCard("Update Settings", "/Extensions/Update", csrf, d.Doc),
			Div(
				Class(cardClass()),
				H3(Text("Remove Settings")),
				P(Class(mutedClass()), Text("Removing deletes the stored document from your account. Removing again afterwards is harmless.")),
				Form(
					Method("post"),
					Action("/Extensions/Delete"),
					csrf(),
					Button(Type("submit"), Class(dangerButtonClass()), Text("Delete settings")),
				),
			),
		)
	} else {
		defaults := domain.RoamingSettings{
			Theme:    settings.Themes[0],
			Color:    settings.Colors[0],
			Language: settings.Languages[0],
		}
		body = append(body,
			Div(
				Class(cardClass("blankslate")),
				P(Class("color-fg-muted mb-2"), Text("No roaming settings stored for your account yet.")),
			),
			settingsFormCard("Create Settings", "/Extensions/Create", csrf, defaults),
		)
	}
	return appPage("Settings", "settings", principal, csrf, Group(body))
}

func settingsFormCard(title, action string, csrf func() Node, doc domain.RoamingSettings) Node {
	return Div(
		Class(cardClass()),
		H3(Text(title)),
		Form(
			Class("stack-form"),
			Method("post"),
			Action(action),
			csrf(),
			Label(Text("Theme")),
			settingsSelect("SelectedTheme", doc.Theme, settings.Themes),
			Label(Text("Color")),
			settingsSelect("SelectedColor", doc.Color, settings.Colors),
			Label(Text("Language")),
			settingsSelect("SelectedLanguage", doc.Language, settings.Languages),
			Div(Class("form-actions"), Button(Type("submit"), Class(primaryButtonClass()), Text("Save"))),
		),
	)
}

// settingsSelect preselects case-insensitively: stored documents keep whatever
// casing the caller originally submitted.
func settingsSelect(name, selected string, values []string) Node {
	options := make([]Node, 0, len(values))
	for _, v := range values {
		if strings.EqualFold(v, selected) {
			options = append(options, Option(Value(v), Selected(), Text(v)))
		} else {
			options = append(options, Option(Value(v), Text(v)))
		}
	}
	return Select(Name(name), Group(options))
}
