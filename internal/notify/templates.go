package notify

import "text/template"

// Template names.
const (
	BookingConfirmed = "booking_confirmed"
	BookingCancelled = "booking_cancelled"
	ContactReceived  = "contact_received"
	RouteChanged     = "route_changed"
)

var defaultSubjects = map[string]string{
	BookingConfirmed: "Your booking is confirmed",
	BookingCancelled: "Your booking was cancelled",
	ContactReceived:  "New support request",
	RouteChanged:     "Route updated",
}

var templateSources = map[string]string{
	BookingConfirmed: `Hello,

Booking {{.reference}} from {{.origin}} to {{.destination}} on {{.travel_date}} is confirmed.
Departure: {{.departure_time}}. Passengers: {{.passengers}}. Total: {{printf "%.2f" .total}}.
`,
	BookingCancelled: `Hello,

Booking {{.reference}} from {{.origin}} to {{.destination}} on {{.travel_date}} has been cancelled.
`,
	ContactReceived: `{{.name}} <{{.email}}> wrote:

Subject: {{.subject}}

{{.message}}
`,
	RouteChanged: `Route {{.route_id}} "{{.title}}" was {{.action}}.{{if .fares_created}} {{.fares_created}} new fare(s) need pricing.{{end}}
`,
}

func parseTemplates() (*template.Template, error) {
	root := template.New("notify").Option("missingkey=zero")
	for name, src := range templateSources {
		if _, err := root.New(name).Parse(src); err != nil {
			return nil, err
		}
	}
	return root, nil
}
