package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/ferminotify/core/internal/models"
)

const (
	confirmSubject = "Conferma la registrazione"
	welcomeSubject = "Welcome!"
	unsubMailbox   = "unsubscribe@fn.lkev.in"
)

// Recipient is the subscriber data the composer needs.
type Recipient struct {
	ID         string
	Email      string
	Name       string
	Gender     models.Gender
	UnsubToken string
}

type templateData struct {
	Name         string
	Gender       models.Gender
	SiteURL      string
	ConfirmURL   string
	UnsubURL     string
	DashboardURL string
}

// genderSuffix picks the Italian agreement ending for the subscriber.
func genderSuffix(g models.Gender) string {
	switch g {
	case models.GenderMale:
		return "o"
	case models.GenderFemale:
		return "a"
	default:
		return "ə"
	}
}

var funcs = map[string]interface{}{
	"suffix": genderSuffix,
	"year":   func() int { return time.Now().Year() },
}

const confirmHTMLTpl = `<!doctype html>
<html lang="it">
<body style="font-family:Helvetica,Arial,sans-serif;background-color:#fff;color:#000;margin:0">
  <table border="0" cellpadding="0" cellspacing="0" width="620" style="max-width:620px;border-collapse:collapse;margin:0 auto;text-align:left">
    <tr><td style="padding:30px 7% 15px 7%">
      <a href="{{.SiteURL}}"><img src="{{.SiteURL}}/email/v3/logo-long-allmuted-trasp.png" style="width:70%;height:auto" alt="FERMI NOTIFY"></a>
    </td></tr>
    <tr><td style="padding:30px 7%;border-top:1px solid #ddd;border-bottom:1px solid #ddd;font-size:16px">
      <h2 style="margin:10px 0">Ciao {{.Name}}!</h2>
      <p style="line-height:1.3">Per completare la registrazione, conferma il tuo indirizzo email:</p>
      <p style="padding:15px 0"><a href="{{.ConfirmURL}}" target="_blank" style="font-size:14px;letter-spacing:1.2px;padding:13px 17px;font-weight:600;background-color:#004a77;border-radius:10px;color:#fff;text-decoration:none">Conferma email</a></p>
      <p style="line-height:1.3">Appena completerai la registrazione, ti arriverà una seconda email con tutte le indicazioni sull'utilizzo.</p>
      <p style="line-height:1.3">A presto!</p>
    </td></tr>
    <tr><td style="padding:15px 7% 30px 7%;font-size:13px">
      <p style="color:#8b959e">Il bottone non funziona? Conferma l'email attraverso il seguente link: <a href="{{.ConfirmURL}}" style="color:#004a77" target="_blank">{{.ConfirmURL}}</a>.</p>
      <p style="color:#8b959e">Per supporto o informazioni, consulta la <a href="{{.SiteURL}}/faq" style="color:#004a77">FAQ</a>.</p>
      <p style="margin:0;color:#8b959e"><i>Fermi Notify Team</i> &copy;{{year}}</p>
      <p style="color:#8b959e;font-size:12px">Hai ricevuto questa email perché ti sei registrat{{suffix .Gender}} a <i>Fermi Notify</i>. Se non sei stato tu, ignora questa email.</p>
    </td></tr>
  </table>
</body>
</html>`

const confirmTextTpl = `Ciao {{.Name}}! Per completare la registrazione, conferma il tuo indirizzo email: {{.ConfirmURL}}. Appena completerai la registrazione, ti arriverà una seconda email con tutte le indicazioni sull'utilizzo. A presto!`

const welcomeHTMLTpl = `<!doctype html>
<html lang="it">
<body style="font-family:Helvetica,Arial,sans-serif;background-color:#fff;color:#000;margin:0">
  <table border="0" cellpadding="0" cellspacing="0" width="620" style="max-width:620px;border-collapse:collapse;margin:0 auto;text-align:left">
    <tr><td style="padding:30px 7% 15px 7%">
      <a href="{{.SiteURL}}"><img src="{{.SiteURL}}/email/v3/logo-long-allmuted-trasp.png" style="width:70%;height:auto" alt="FERMI NOTIFY"></a>
    </td></tr>
    <tr><td style="padding:30px 7%;border-top:1px solid #ddd;border-bottom:1px solid #ddd;font-size:16px">
      <h2 style="margin:10px 0">Benvenut{{suffix .Gender}} a Fermi Notify!</h2>
      <h4 style="margin-bottom:0">Ciao {{.Name}}!</h4>
      <p style="line-height:1.3">Grazie per esserti registrat{{suffix .Gender}}, di seguito ci sono alcune indicazioni sul funzionamento di Fermi Notify.</p>
      <h4 style="margin-bottom:0">Keyword</h4>
      <p style="line-height:1.3">Nella <a href="{{.DashboardURL}}" style="color:#004a77" target="_blank">Dashboard</a> potrai inserire le tue <b>keyword</b>, necessarie per trovare le variazioni dell'orario che ti riguardano. Ti invitiamo ad aggiungere le parole che riconducono a te (il tuo cognome, la tua classe, i tuoi corsi, ecc...).<br>Presta attenzione alla <b>formattazione</b> delle keyword, dev'essere uguale a quella scritta nel calendario giornaliero (es. <i>4CIIN</i>, non "4 CIIN" o "4CIN")!</p>
      <h4 style="margin-bottom:0">Notifiche</h4>
      <p style="line-height:1.3">Vengono inviate notifiche sulle variazioni che contengono le tue keyword tramite email e/o Telegram. Puoi modificare le preferenze sulle notifiche nella <a href="{{.DashboardURL}}" style="color:#004a77" target="_blank">Dashboard</a>.</p>
      <ul style="line-height:1.3;margin-top:0">
        <li>Se c'è una variazione dell'orario, riceverai una notifica che riassume tutte le variazioni della giornata all'orario che hai scelto.</li>
        <li>Se viene pubblicata una variazione poche ore prima che si verifichi, verrai notificat{{suffix .Gender}} <b>all'istante</b>.</li>
      </ul>
      <p>Per maggiori informazioni, visita la <a href="{{.SiteURL}}/faq" style="color:#004a77" target="_blank">FAQ</a>.</p>
    </td></tr>
    <tr><td style="padding:15px 7% 30px 7%;font-size:13px">
      <p style="margin:0;color:#8b959e"><i>Fermi Notify Team</i> &copy;{{year}}</p>
      <p style="color:#8b959e;font-size:12px">Hai ricevuto questa email perché ti sei registrat{{suffix .Gender}} a Fermi Notify. Puoi disattivare le notifiche via mail <a href="{{.UnsubURL}}" style="color:#004a77" target="_blank">qui</a>.</p>
    </td></tr>
  </table>
</body>
</html>`

const welcomeTextTpl = `Ciao {{.Name}}! Benvenut{{suffix .Gender}} a Fermi Notify! Esplora la Dashboard a {{.DashboardURL}} per personalizzare le notifiche e visita {{.SiteURL}}/faq per scoprire come funziona Fermi Notify.`

var (
	confirmHTML = template.Must(template.New("confirm").Funcs(funcs).Parse(confirmHTMLTpl))
	welcomeHTML = template.Must(template.New("welcome").Funcs(funcs).Parse(welcomeHTMLTpl))
	confirmText = texttemplate.Must(texttemplate.New("confirm").Funcs(funcs).Parse(confirmTextTpl))
	welcomeText = texttemplate.Must(texttemplate.New("welcome").Funcs(funcs).Parse(welcomeTextTpl))
)

func render(html *template.Template, text *texttemplate.Template, data templateData) (string, string, error) {
	var hb, tb bytes.Buffer
	if err := html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", html.Name(), err)
	}
	if err := text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", text.Name(), err)
	}
	return hb.String(), tb.String(), nil
}

// ConfirmURL is the link a subscriber follows to redeem code.
func ConfirmURL(siteURL, code string) string {
	return strings.TrimRight(siteURL, "/") + "/user/auth/register/confirmation/" + url.PathEscape(code)
}

// UnsubscribeURL is the one-click opt-out link for r.
func UnsubscribeURL(siteURL string, r Recipient) string {
	return strings.TrimRight(siteURL, "/") + "/auth/unsubscribe?" + unsubQuery(r)
}

func unsubQuery(r Recipient) string {
	q := url.Values{}
	q.Set("id", r.ID)
	q.Set("token", r.UnsubToken)
	q.Set("email", r.Email)
	return q.Encode()
}

// listUnsubscribe builds the List-Unsubscribe header value with a mailto and an https target.
func listUnsubscribe(siteURL string, r Recipient) string {
	return fmt.Sprintf("<mailto:%s?subject=Unsubscribe&%s>, <%s>", unsubMailbox, unsubQuery(r), UnsubscribeURL(siteURL, r))
}

func (s *Sender) data(r Recipient) templateData {
	site := strings.TrimRight(s.cfg.SiteURL, "/")
	return templateData{
		Name:         r.Name,
		Gender:       r.Gender,
		SiteURL:      site,
		UnsubURL:     UnsubscribeURL(site, r),
		DashboardURL: site + "/dashboard",
	}
}

// SendConfirmation mails the registration confirmation link for code.
func (s *Sender) SendConfirmation(ctx context.Context, r Recipient, code string) error {
	data := s.data(r)
	data.ConfirmURL = ConfirmURL(data.SiteURL, code)
	html, text, err := render(confirmHTML, confirmText, data)
	if err != nil {
		return err
	}
	return s.Send(ctx, Message{
		To:      []string{r.Email},
		Subject: confirmSubject,
		HTML:    html,
		Text:    text,
		Headers: map[string]string{"List-Unsubscribe": listUnsubscribe(data.SiteURL, r)},
	})
}

// SendWelcome mails the onboarding guide after a successful confirmation.
func (s *Sender) SendWelcome(ctx context.Context, r Recipient) error {
	data := s.data(r)
	html, text, err := render(welcomeHTML, welcomeText, data)
	if err != nil {
		return err
	}
	return s.Send(ctx, Message{
		To:      []string{r.Email},
		Subject: welcomeSubject,
		HTML:    html,
		Text:    text,
		Headers: map[string]string{"List-Unsubscribe": listUnsubscribe(data.SiteURL, r)},
	})
}
