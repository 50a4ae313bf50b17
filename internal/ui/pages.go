package ui

import (
	"encoding/json"
	"sort"

	"entra-demo/internal/domain"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func basePage(title string, body ...Node) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Entra Portal")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("https://cdn.jsdelivr.net/npm/@primer/css@22.1.0/dist/primer.min.css")),
		),
		Body(
			Main(
				Class("container-md p-4"),
				Group(body),
				P(Class("color-fg-muted text-small mt-4"), Text("Entra Portal v"+appVersion)),
			),
		),
	)
}

func loginPage(authURL, resetURL string) Node {
	body := []Node{
		H1(Text("Entra Portal")),
		P(Text("Sign in with your Microsoft account to continue.")),
		A(
			Href(authURL),
			Class("btn btn-primary"),
			Text("Sign in"),
		),
	}
	if resetURL != "" {
		body = append(body, P(Class("mt-3"),
			A(Href(resetURL), Text("Forgot your password? Reset it here.")),
		))
	}
	return basePage("Sign in", body...)
}

func indexPage(user *domain.ClaimSet, profileURL string) Node {
	actions := []Node{
		A(Href("/call_downstream_api"), Class("btn btn-primary mr-2"), Text("Call Microsoft Graph")),
		A(Href("/logout"), Class("btn mr-2"), Text("Sign out")),
	}
	if profileURL != "" {
		actions = append(actions, A(Href(profileURL), Class("btn"), Text("Edit profile")))
	}

	return basePage("Home",
		H1(Text("Welcome, "+user.DisplayName())),
		P(Class("color-fg-muted"), Text("You are signed in.")),
		Div(Class("mt-3"), Group(actions)),
	)
}

func displayPage(result map[string]any) Node {
	// Stable key order so the page (and its tests) are deterministic.
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Node, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Tr(
			Th(Text(k)),
			Td(Text(formatValue(result[k]))),
		))
	}

	return basePage("API Result",
		H1(Text("Downstream API result")),
		Table(Class("width-full"), TBody(rows...)),
		P(Class("mt-3"), A(Href("/"), Text("Back to home"))),
	)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

func authErrorPage(code, description string) Node {
	return basePage("Sign-in error",
		H1(Text("Sign-in failed")),
		P(Text("The identity provider reported an error:")),
		P(Class("color-fg-danger"), Strong(Text(code))),
		P(Text(description)),
		P(A(Href("/login"), Class("btn btn-primary"), Text("Try again"))),
	)
}

func configErrorPage() Node {
	return basePage("Configuration error",
		H1(Text("Configuration error")),
		P(Text("CLIENT_ID and CLIENT_SECRET are not configured. "+
			"Set them in the environment and restart the server.")),
	)
}

func errorPage(message string) Node {
	return basePage("Error",
		H1(Text("Something went wrong")),
		P(Text(message)),
		P(A(Href("/"), Text("Back to home"))),
	)
}
