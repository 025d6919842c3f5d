package services

import (
	"bytes"
	htmltmpl "html/template"
	texttmpl "text/template"
)

type emailContent struct {
	Subject string
	HTML    string
	Text    string
}

type otpTemplateData struct {
	Name          string
	Code          string
	ExpiryMinutes int
}

var otpHTML = htmltmpl.Must(htmltmpl.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Verify your email</h2>
    <p>Hi {{.Name}},</p>
    <p>Use the following code to verify your Aarambh account:</p>
    <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">{{.Code}}</p>
    <p>This code expires in {{.ExpiryMinutes}} minutes. If you did not request it, you can ignore this email.</p>
    <p>The Aarambh Team</p>
  </div>
</body>
</html>`))

var otpText = texttmpl.Must(texttmpl.New("otp").Parse(
	"Hi {{.Name}},\n\nYour Aarambh verification code is {{.Code}}. It expires in {{.ExpiryMinutes}} minutes.\n"))

var welcomeHTML = htmltmpl.Must(htmltmpl.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Welcome to Aarambh!</h1>
    <p>Hi {{.Name}},</p>
    <p>Thank you for joining Aarambh LMS! We're excited to have you on board.</p>
    <ul>
      <li>Explore your personalized dashboard</li>
      <li>Join discussions and connect with peers</li>
      <li>Start your first course</li>
      <li>Track your progress and achievements</li>
    </ul>
    <p>Happy learning!</p>
    <p>Best regards,<br>The Aarambh Team</p>
  </div>
</body>
</html>`))

var welcomeText = texttmpl.Must(texttmpl.New("welcome").Parse(
	"Welcome to Aarambh LMS, {{.Name}}! We're excited to have you on board. Start exploring your dashboard and begin your learning journey today!\n"))

func render(subject string, html *htmltmpl.Template, text *texttmpl.Template, data interface{}) (emailContent, error) {
	var hb, tb bytes.Buffer
	if err := html.Execute(&hb, data); err != nil {
		return emailContent{}, err
	}
	if err := text.Execute(&tb, data); err != nil {
		return emailContent{}, err
	}
	return emailContent{Subject: subject, HTML: hb.String(), Text: tb.String()}, nil
}

func otpEmail(name, code string, expiryMinutes int) (emailContent, error) {
	return render("Your Aarambh verification code", otpHTML, otpText, otpTemplateData{
		Name:          name,
		Code:          code,
		ExpiryMinutes: expiryMinutes,
	})
}

func welcomeEmail(name string) (emailContent, error) {
	return render("Welcome to Aarambh LMS!", welcomeHTML, welcomeText, struct{ Name string }{Name: name})
}
