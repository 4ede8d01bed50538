package mailer

import (
	"bytes"
	"html/template"
)

// TemplateData feeds every return email
type TemplateData struct {
	StoreName    string
	SupportEmail string
	CustomerName string
	ReturnNumber string
	OrderNumber  string
	Status       string

	AddressLines []string

	Items []TemplateItem

	OriginalAmount    string
	DeductionAmount   string
	RefundAmount      string
	InspectionNotes   string
	TransactionNumber string
	GatewayRefundID   string
}

type TemplateItem struct {
	ProductName    string
	Quantity       int
	Condition      string
	DeductionPct   string
	ApprovedAmount string
}

const layout = `{{define "layout"}}<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
<h2>{{.StoreName}}</h2>
<p>Hi {{.CustomerName}},</p>
{{template "body" .}}
<p style="color: #777; font-size: 12px;">Return {{.ReturnNumber}} for order {{.OrderNumber}}. Questions? Write to {{.SupportEmail}}.</p>
</div>{{end}}`

var (
	returnAddressTmpl = template.Must(template.Must(template.New("return_address").Parse(layout)).Parse(`{{define "body"}}
<p>Your return request has been accepted. Please ship the items to:</p>
<p>{{range .AddressLines}}{{.}}<br>{{end}}</p>
<p>Once shipped, add the courier name and tracking number to your return so we can follow the package.</p>
{{end}}`))

	packageReceivedTmpl = template.Must(template.Must(template.New("package_received").Parse(layout)).Parse(`{{define "body"}}
<p>We have received your returned package. Our team will inspect the items and let you know the outcome.</p>
{{end}}`))

	inspectionCompleteTmpl = template.Must(template.Must(template.New("inspection_complete").Parse(layout)).Parse(`{{define "body"}}
<p>Inspection of your return is complete. Outcome: <strong>{{.Status}}</strong>.</p>
<table style="border-collapse: collapse;">
<tr><th align="left">Item</th><th>Qty</th><th>Condition</th><th>Deduction</th><th align="right">Approved</th></tr>
{{range .Items}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{.Condition}}</td><td>{{.DeductionPct}}%</td><td align="right">₹{{.ApprovedAmount}}</td></tr>
{{end}}</table>
<p>Original amount: ₹{{.OriginalAmount}}<br>Deductions: ₹{{.DeductionAmount}}<br>Refund amount: <strong>₹{{.RefundAmount}}</strong></p>
{{if .InspectionNotes}}<p>Notes: {{.InspectionNotes}}</p>{{end}}
{{end}}`))

	refundProcessedTmpl = template.Must(template.Must(template.New("refund_processed").Parse(layout)).Parse(`{{define "body"}}
<p>Your refund of <strong>₹{{.RefundAmount}}</strong> has been processed to your original payment method.</p>
<p>Reference: {{.TransactionNumber}}{{if .GatewayRefundID}} ({{.GatewayRefundID}}){{end}}</p>
<p>Depending on your bank it can take 5-7 business days to reflect.</p>
{{end}}`))
)

func ReturnAddressEmail(data TemplateData) (string, error) {
	return render(returnAddressTmpl, data)
}

func PackageReceivedEmail(data TemplateData) (string, error) {
	return render(packageReceivedTmpl, data)
}

func InspectionCompleteEmail(data TemplateData) (string, error) {
	return render(inspectionCompleteTmpl, data)
}

func RefundProcessedEmail(data TemplateData) (string, error) {
	return render(refundProcessedTmpl, data)
}

func render(t *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
