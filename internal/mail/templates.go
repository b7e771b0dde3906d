package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const signature = "Peaceland Veterinary Services"

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"petOr": func(pet, fallback string) string {
		if strings.TrimSpace(pet) == "" {
			return fallback
		}
		return pet
	},
}).Parse(`{{define "booking_owner"}}<p>Hi {{.OwnerName}},</p>
<p>Thanks! We received your request for <b>{{.Service}}</b> on <b>{{.Date}}</b> at <b>{{.Time}}</b> for <b>{{petOr .PetName "your pet"}}</b>.</p>
<p>We'll confirm shortly.</p>
<p>{{.Signature}}</p>{{end}}

{{define "booking_admin"}}<p>New request from <b>{{.OwnerName}}</b> ({{.OwnerEmail}})</p>
<ul>
  <li>Service: {{.Service}}</li>
  <li>Date: {{.Date}}</li>
  <li>Time: {{.Time}}</li>
  <li>Pet: {{petOr .PetName "-"}}</li>
</ul>{{end}}

{{define "status_changed"}}<p>Hi {{.OwnerName}},</p>
<p>Your appointment has been <b>{{.Status}}</b>:</p>
<ul><li><b>Pet</b>: {{petOr .PetName "-"}}</li>
<li><b>Service</b>: {{.Service}}</li>
<li><b>Date</b>: {{.Date}}</li>
<li><b>Time</b>: {{.Time}}</li></ul>
<p>{{.Signature}}</p>{{end}}

{{define "password_reset"}}<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Click here to reset your password</a></p>
<p>This link expires in one hour. If you didn't request this, you can ignore this email.</p>{{end}}
`))

// AppointmentView is the data rendered into appointment emails.
type AppointmentView struct {
	OwnerName  string
	OwnerEmail string
	PetName    string
	Service    string
	Date       string
	Time       string
	Status     string
	Signature  string
}

// BookingAcknowledgement is sent to the owner of a new appointment request.
func BookingAcknowledgement(to string, view AppointmentView) (Message, error) {
	return render(to, "Your Peaceland Vet appointment request", "booking_owner", view,
		fmt.Sprintf("Hi %s, we received your request for %s on %s at %s. We'll confirm shortly.",
			view.OwnerName, view.Service, view.Date, view.Time))
}

// NewRequestAlert is sent to each admin recipient when an appointment is requested.
func NewRequestAlert(to string, view AppointmentView) (Message, error) {
	return render(to, "New appointment request", "booking_admin", view,
		fmt.Sprintf("New request from %s (%s): %s on %s at %s.",
			view.OwnerName, view.OwnerEmail, view.Service, view.Date, view.Time))
}

// StatusChanged tells the owner their appointment was confirmed or cancelled.
func StatusChanged(to string, view AppointmentView) (Message, error) {
	return render(to, "VetConnect: Appointment "+view.Status, "status_changed", view,
		fmt.Sprintf("Hi %s, your appointment for %s on %s at %s has been %s.",
			view.OwnerName, view.Service, view.Date, view.Time, view.Status))
}

// PasswordReset carries the reset link.
func PasswordReset(to, link string) (Message, error) {
	return render(to, "Reset your VetConnect password", "password_reset", struct{ Link string }{link},
		"Reset your password within one hour: "+link)
}

func render(to, subject, name string, data any, text string) (Message, error) {
	if view, ok := data.(AppointmentView); ok && view.Signature == "" {
		view.Signature = signature
		data = view
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{
		To:       to,
		Subject:  subject,
		HTMLBody: strings.TrimSpace(buf.String()),
		TextBody: text,
	}, nil
}
