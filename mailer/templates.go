package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "order_received"}}<p>Hi {{.Name}},</p>
<p>We have received your order <strong>{{.Reference}}</strong>.</p>
<table>{{range .Items}}<tr><td>{{.Title}}</td><td>{{.Quantity}} x {{printf "%.2f" .UnitPrice}}</td></tr>{{end}}</table>
<p>Total: {{printf "%.2f" .Total}}</p>
<p>Shipping to: {{.Address}}</p>{{end}}
{{define "order_delivered"}}<p>Hi {{.Name}},</p>
<p>Your order <strong>{{.Reference}}</strong> has been delivered. Thank you for shopping with us.</p>{{end}}
{{define "promo"}}<p>Hi {{.Name}},</p>
<p>New arrivals and offers are waiting for you in the store this week.</p>{{end}}
`))

func render(name string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}
	return body.String(), nil
}

func OrderReceived(o *models.Order) (Message, error) {
	html, err := render("order_received", o)
	if err != nil {
		return Message{}, err
	}
	return Message{To: o.Email, Subject: "We received your order " + o.Reference, HTML: html}, nil
}

func OrderDelivered(o *models.Order) (Message, error) {
	html, err := render("order_delivered", o)
	if err != nil {
		return Message{}, err
	}
	return Message{To: o.Email, Subject: "Your order " + o.Reference + " was delivered", HTML: html}, nil
}

func Promotion(u *models.User) (Message, error) {
	html, err := render("promo", u)
	if err != nil {
		return Message{}, err
	}
	return Message{To: u.Email, Subject: "This week's picks", HTML: html}, nil
}
