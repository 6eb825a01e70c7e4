package notify

import (
	"bytes"
	"html/template"
)

const layout = `{{define "layout"}}<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #3a7d44; padding: 24px; border-radius: 12px 12px 0 0;">
    <h1 style="color: white; margin: 0; font-size: 24px;">NutmegLocal</h1>
  </div>
  <div style="padding: 24px; border: 1px solid #e5e5e5; border-top: none; border-radius: 0 0 12px 12px;">
    {{template "body" .}}
    <p style="color: #666; font-size: 14px;">The NutmegLocal Team</p>
  </div>
</div>{{end}}`

var bodies = map[string]string{
	kindClaimReceived: `{{define "body"}}<h2>We got your claim</h2>
<p>Your claim for <strong>{{.BusinessName}}</strong> has been received. We are reviewing it now and will get back to you shortly.</p>
<p>Once approved, you will be able to:</p>
<ul>
  <li>Update your business hours and description</li>
  <li>Add photos to your listing</li>
  <li>See analytics about your listing</li>
</ul>{{end}}`,

	kindAdminNewClaim: `{{define "body"}}<h2>New business claim</h2>
<p><strong>Business:</strong> {{.BusinessName}}</p>
<p><strong>Claimant:</strong> {{.Email}}</p>
<p><strong>Proof:</strong></p>
<blockquote style="background: #f5f5f5; padding: 12px; border-left: 3px solid #3a7d44; margin: 0;">{{.Proof}}</blockquote>
<p style="margin-top: 16px;"><a href="{{.SiteURL}}/admin" style="background: #3a7d44; color: white; padding: 10px 20px; border-radius: 6px; text-decoration: none;">Review in admin</a></p>{{end}}`,

	kindClaimApproved: `{{define "body"}}<h2>Welcome aboard!</h2>
<p>Your claim for <strong>{{.BusinessName}}</strong> has been approved. You can now manage the listing from your dashboard.</p>
<p><a href="{{.SiteURL}}/dashboard" style="background: #3a7d44; color: white; padding: 10px 20px; border-radius: 6px; text-decoration: none;">Open dashboard</a></p>{{end}}`,

	kindClaimRejected: `{{define "body"}}<h2>About your claim</h2>
<p>We could not verify your claim for <strong>{{.BusinessName}}</strong>. If you believe this is a mistake, reply to this email with more proof of ownership.</p>{{end}}`,

	kindOwnershipTransferred: `{{define "body"}}<h2>Ownership update</h2>
<p>Ownership of <strong>{{.BusinessName}}</strong> was transferred to another claimant after review. Contact support if you want to dispute this.</p>{{end}}`,

	kindSignupConfirmed: `{{define "body"}}<h2>You're on the list!</h2>
<p>Thanks for signing up {{if .IsBusiness}}as a business owner{{else}}as a local{{end}}. We will let you know as soon as NutmegLocal launches in Greater Danbury.</p>
<p>In the meantime, spread the word. The more locals who join, the better the directory!</p>{{end}}`,
}

var templates = buildTemplates()

func buildTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for kind, body := range bodies {
		t := template.Must(template.New(kind).Parse(layout))
		out[kind] = template.Must(t.Parse(body))
	}
	return out
}

// templateData is the union of fields the templates reference.
type templateData struct {
	BusinessName string
	Email        string
	Proof        string
	SiteURL      string
	IsBusiness   bool
}

func render(kind string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates[kind].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
