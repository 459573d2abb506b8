package hub

import (
	"fmt"
	"strings"
)

// Rendered is the displayable content of one notification.
type Rendered struct {
	Title string
	Body  string
	Link  string
}

// TemplateResolver renders notification content per type and recipient
// role. The storefront injects its own translated resolver; the
// built-in one keeps the hub usable standalone.
type TemplateResolver interface {
	Render(notificationType, role string, ctx map[string]string) (Rendered, error)
}

type templateEntry struct {
	title string
	body  string
	link  string
}

// DefaultTemplates is a table-driven TemplateResolver covering the
// notification types the storefront emits.
type DefaultTemplates struct {
	table map[string]map[string]templateEntry // type -> role -> entry
}

// NewDefaultTemplates builds the built-in resolver.
func NewDefaultTemplates() *DefaultTemplates {
	return &DefaultTemplates{
		table: map[string]map[string]templateEntry{
			"payment": {
				"user": {
					title: "Payment received",
					body:  "Hi %[1]s, we received your payment.",
					link:  "/dashboard/orders",
				},
				"admin": {
					title: "New payment",
					body:  "Payment event from %[1]s.",
					link:  "/admin/orders",
				},
			},
			"message": {
				"user": {
					title: "New support reply",
					body:  "Support replied to your conversation.",
					link:  "/dashboard/support",
				},
				"admin": {
					title: "New support message",
					body:  "%[1]s sent a support message.",
					link:  "/admin/support",
				},
			},
			"system": {
				"user": {
					title: "Account update",
					body:  "There is an update on your account.",
					link:  "/dashboard",
				},
				"admin": {
					title: "System event",
					body:  "System event concerning %[1]s.",
					link:  "/admin",
				},
			},
		},
	}
}

// Render produces title/body/link for a notification. The context is
// the flat merge of the subject user and the event data; "user_name"
// and optional "link" keys are honored.
func (t *DefaultTemplates) Render(notificationType, role string, ctx map[string]string) (Rendered, error) {
	roles, ok := t.table[notificationType]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown notification type %q", notificationType)
	}
	entry, ok := roles[role]
	if !ok {
		return Rendered{}, fmt.Errorf("notification type %q has no %q template", notificationType, role)
	}

	name := ctx["user_name"]
	if name == "" {
		name = "a customer"
	}

	// only some bodies substitute the name; formatting a verb-less
	// body would append an EXTRA artifact to the stored text.
	body := entry.body
	if strings.Contains(body, "%") {
		body = fmt.Sprintf(body, name)
	}

	rendered := Rendered{
		Title: entry.title,
		Body:  body,
		Link:  entry.link,
	}
	if link, ok := ctx["link"]; ok && link != "" {
		rendered.Link = link
	}
	return rendered, nil
}
