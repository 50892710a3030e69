package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"recomendaleads/config"
)

// Embedded notification templates
var mailTemplates = map[string]string{
	"conversion": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .highlight { font-size: 18px; font-weight: bold; color: #27ae60; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Nova conversao!</h2>
    </div>
    <div class="content">
        <p>Ola {{.UserName}},</p>
        <p>O recomendado <span class="highlight">{{.ReferredName}}</span> acabou de converter.</p>
        <p>Indicado por: {{.ClientName}}</p>
    </div>
    <div class="footer">
        <p>© {{.Year}} RecomendaLeads. Todos os direitos reservados.</p>
    </div>
</body>
</html>`,
}

type conversionMail struct {
	Subject      string
	UserName     string
	ClientName   string
	ReferredName string
	Year         int
}

// SendConversionNotification emails the tenant when a referred client
// converts. Callers should treat a failure here as non-fatal.
func SendConversionNotification(to, userName, clientName, referredName string) error {
	if config.AppConfig.SMTPHost == "" {
		return nil // mail delivery not configured
	}

	tmpl, err := template.New("conversion").Parse(mailTemplates["conversion"])
	if err != nil {
		return fmt.Errorf("failed to parse mail template: %w", err)
	}

	var body bytes.Buffer
	data := conversionMail{
		Subject:      "Nova conversao de recomendado",
		UserName:     userName,
		ClientName:   clientName,
		ReferredName: referredName,
		Year:         time.Now().Year(),
	}
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render mail template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", config.AppConfig.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)
	return d.DialAndSend(m)
}
