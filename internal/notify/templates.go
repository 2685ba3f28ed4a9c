package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// MealReminder is the payload composed for one patient and meal slot.
type MealReminder struct {
	PatientName  string
	PatientEmail string
	Diagnosis    string
	MealType     string
	MealItems    []string
	Notes        string
}

var htmlTemplates = template.Must(template.New("notify").Parse(`
{{define "meal_reminder"}}<p>Vanakkam {{.PatientName}},</p>
<p>It is time for your {{.MealType}}.</p>
{{if .MealItems}}<ul>{{range .MealItems}}<li>{{.}}</li>{{end}}</ul>{{else}}<p>Please follow the diet plan your doctor prescribed.</p>{{end}}
{{if .Notes}}<p><em>{{.Notes}}</em></p>{{end}}
<p>Siddha Savor</p>{{end}}
{{define "approval"}}<p>Hello {{.Name}},</p>
<p>Your doctor has approved your Siddha Savor registration. You can now sign in.</p>{{end}}
{{define "rejection"}}<p>Hello {{.Name}},</p>
<p>Your Siddha Savor registration was not approved.</p>
<p>Reason: {{.Reason}}</p>{{end}}
{{define "password_reset"}}<p>Hello,</p>
<p>Use the code <strong>{{.Code}}</strong> with the link below to reset your password. The link expires in {{.ExpiresIn}}.</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>{{end}}
`))

func render(name string, data interface{}) string {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func ComposeMealReminder(r MealReminder) Message {
	var text strings.Builder
	fmt.Fprintf(&text, "Vanakkam %s,\n\nIt is time for your %s.\n", r.PatientName, r.MealType)
	if len(r.MealItems) > 0 {
		text.WriteString("\n")
		for _, item := range r.MealItems {
			fmt.Fprintf(&text, "- %s\n", item)
		}
	} else {
		text.WriteString("Please follow the diet plan your doctor prescribed.\n")
	}
	if r.Notes != "" {
		fmt.Fprintf(&text, "\n%s\n", r.Notes)
	}

	return Message{
		To:      r.PatientEmail,
		ToName:  r.PatientName,
		Subject: fmt.Sprintf("Your %s reminder", r.MealType),
		Text:    text.String(),
		HTML:    render("meal_reminder", r),
	}
}

func ComposeApproval(name, email string) Message {
	data := struct{ Name string }{name}
	return Message{
		To:      email,
		ToName:  name,
		Subject: "Your registration has been approved",
		Text:    fmt.Sprintf("Hello %s,\n\nYour doctor has approved your Siddha Savor registration. You can now sign in.\n", name),
		HTML:    render("approval", data),
	}
}

func ComposeRejection(name, email, reason string) Message {
	data := struct{ Name, Reason string }{name, reason}
	return Message{
		To:      email,
		ToName:  name,
		Subject: "Your registration was not approved",
		Text:    fmt.Sprintf("Hello %s,\n\nYour Siddha Savor registration was not approved.\nReason: %s\n", name, reason),
		HTML:    render("rejection", data),
	}
}

func ComposePasswordReset(email, url, code, expiresIn string) Message {
	data := struct{ URL, Code, ExpiresIn string }{url, code, expiresIn}
	return Message{
		To:      email,
		Subject: "Reset your Siddha Savor password",
		Text:    fmt.Sprintf("Use the code %s with this link to reset your password: %s\nThe link expires in %s.\n", code, url, expiresIn),
		HTML:    render("password_reset", data),
	}
}
