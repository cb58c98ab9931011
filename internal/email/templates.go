package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/models"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateShopNotification  = "shop_notification"
)

// OrderInfo is the view of an order the email templates render.
type OrderInfo struct {
	OrderNumber string
	OrderDate   time.Time
	Customer    models.Customer
	Items       []OrderItem
	Subtotal    string
	Shipping    string
	Total       string
}

type OrderItem struct {
	Name       string
	Option     string
	Quantity   int
	TotalPrice string
	Recipient  string
	Message    string
	Contents   []string
}

// NewOrderInfo flattens an order, including gift boxes, for rendering.
func NewOrderInfo(order *models.Order) *OrderInfo {
	info := &OrderInfo{
		OrderNumber: fmt.Sprintf("%d", order.OrderNumber),
		OrderDate:   order.CreatedAt,
		Customer:    order.Customer,
		Subtotal:    formatEUR(order.Subtotal),
		Shipping:    formatEUR(order.Shipping),
		Total:       formatEUR(order.Total),
	}
	for _, item := range order.Items {
		info.Items = append(info.Items, OrderItem{
			Name:       item.Name,
			Option:     catalog.FormatPackageOption(item.Option),
			Quantity:   item.Quantity,
			TotalPrice: formatEUR(item.LineTotal),
		})
	}
	for _, gift := range order.Gifts {
		contents := make([]string, 0, len(gift.Items))
		for _, content := range gift.Items {
			contents = append(contents, fmt.Sprintf("%dx %s", content.Quantity, content.Name))
		}
		info.Items = append(info.Items, OrderItem{
			Name:       gift.Name,
			Quantity:   gift.Quantity,
			TotalPrice: formatEUR(gift.Price.Mul(decimal.NewFromInt(int64(gift.Quantity)))),
			Recipient:  gift.RecipientName,
			Message:    gift.RecipientMessage,
			Contents:   contents,
		})
	}
	return info
}

// Renderer holds the parsed message templates.
type Renderer struct {
	templates   *template.Template
	subjects    map[string]*template.Template
	shopAddress string
}

func NewRenderer(shopAddress string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("2. 1. 2006")
		},
		"join": strings.Join,
	}

	bodies := map[string]string{
		TemplateOrderConfirmation: orderConfirmationText,
		TemplateShopNotification:  shopNotificationText,
	}
	subjects := map[string]string{
		TemplateOrderConfirmation: "Potrditev naročila št. {{.OrderNumber}} - Kmetija Maroša",
		TemplateShopNotification:  "Novo naročilo št. {{.OrderNumber}} ({{.Total}})",
	}

	tmpl := template.New("email").Funcs(funcMap)
	for name, body := range bodies {
		if _, err := tmpl.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}

	r := &Renderer{templates: tmpl, subjects: map[string]*template.Template{}, shopAddress: shopAddress}
	for name, subject := range subjects {
		parsed, err := template.New(name + "_subject").Parse(subject)
		if err != nil {
			return nil, fmt.Errorf("failed to parse subject %s: %w", name, err)
		}
		r.subjects[name] = parsed
	}
	return r, nil
}

// Render builds the message for templateName. Shop notifications go to the shop address and
// reply to the customer; confirmations go to the customer.
func (r *Renderer) Render(templateName string, data *OrderInfo) (*Email, error) {
	subjectTmpl, ok := r.subjects[templateName]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", templateName)
	}

	var body, subject bytes.Buffer
	if err := r.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}

	email := &Email{
		To:      data.Customer.Email,
		Subject: subject.String(),
		Text:    body.String(),
	}
	if templateName == TemplateShopNotification {
		email.To = r.shopAddress
		email.ReplyTo = data.Customer.Email
	}
	return email, nil
}

func formatEUR(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

const orderConfirmationText = `Pozdravljeni {{.Customer.Name}},

hvala za vaše naročilo št. {{.OrderNumber}} z dne {{formatDate .OrderDate}}. Plačilo smo prejeli.

{{range .Items}}- {{.Quantity}}x {{.Name}}{{if .Option}} ({{.Option}}){{end}}: {{.TotalPrice}}
{{if .Contents}}  Vsebina: {{join .Contents ", "}}
{{end}}{{if .Recipient}}  Za: {{.Recipient}}
{{end}}{{end}}
Vmesni seštevek: {{.Subtotal}}
Poštnina: {{.Shipping}}
Skupaj: {{.Total}}

Dostava na naslov:
{{.Customer.Name}}
{{.Customer.Address}}
{{.Customer.PostalCode}} {{.Customer.City}}

Lep pozdrav,
Kmetija Maroša
`

const shopNotificationText = `Novo plačano naročilo št. {{.OrderNumber}} ({{formatDate .OrderDate}})

Kupec: {{.Customer.Name}} <{{.Customer.Email}}>{{if .Customer.Phone}}, tel. {{.Customer.Phone}}{{end}}
Naslov: {{.Customer.Address}}, {{.Customer.PostalCode}} {{.Customer.City}}{{if .Customer.Country}}, {{.Customer.Country}}{{end}}
{{if .Customer.Notes}}Opomba: {{.Customer.Notes}}
{{end}}
{{range .Items}}- {{.Quantity}}x {{.Name}}{{if .Option}} ({{.Option}}){{end}}: {{.TotalPrice}}
{{if .Contents}}  Vsebina: {{join .Contents ", "}}
{{end}}{{if .Recipient}}  Prejemnik: {{.Recipient}}{{if .Message}}, sporočilo: "{{.Message}}"{{end}}
{{end}}{{end}}
Vmesni seštevek: {{.Subtotal}}
Poštnina: {{.Shipping}}
Skupaj: {{.Total}}
`
