package account

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/thegrail/grail-backend/pkg/email"
	"github.com/thegrail/grail-backend/pkg/queue"
)

// VerificationEmail is the queue payload for a verification email send.
type VerificationEmail struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

var verificationEmailTmpl = template.Must(template.New("verification").Parse(`
<table style="width: 100%; background-color: #2b4099; font-family: Arial, sans-serif; font-size: 16px;">
  <tr>
    <td align="center" valign="middle" style="padding: 40px 0;">
      <table style="width: 50%; background-color: white; border: 4px solid #89CAFF; padding: 20px; border-radius: 10px;">
        <tr>
          <td style="font-size: 20px; font-weight: bold; text-align: center; padding: 16px 0;">Hi there,</td>
        </tr>
        <tr>
          <td style="text-align: center; padding-bottom: 16px;">You are receiving this message because you recently signed up for an account.</td>
        </tr>
        <tr>
          <td style="text-align: center; padding-bottom: 16px;">Please verify that your email address is {{.Email}}, and that you entered it when signing up for The Grail.</td>
        </tr>
        <tr>
          <td style="text-align: center; padding-bottom: 16px;">
            <a href="{{.VerifyURL}}" style="display: inline-block; border-radius: 10px; background-color: #2b4099; color: white; padding: 4px 64px; text-decoration: none;">Verify email</a>
          </td>
        </tr>
        <tr>
          <td style="text-align: center;">If you did not request this email, you can safely ignore it.</td>
        </tr>
      </table>
    </td>
  </tr>
</table>
`))

// NewVerificationEmailHandler builds the queue handler that renders and sends
// verification emails. Registered on the worker at startup; send failures are
// returned so the queue's retry budget applies.
func NewVerificationEmailHandler(sender email.Sender, frontendURL string) (string, queue.HandlerFunc) {
	return queue.NewHandler(func(ctx context.Context, payload VerificationEmail) error {
		var body strings.Builder
		err := verificationEmailTmpl.Execute(&body, struct {
			Email     string
			VerifyURL string
		}{
			Email:     payload.Email,
			VerifyURL: fmt.Sprintf("%s/verify-email/%s", strings.TrimRight(frontendURL, "/"), payload.Token),
		})
		if err != nil {
			return fmt.Errorf("failed to render verification email: %w", err)
		}

		return sender.Send(ctx, email.SendParams{
			To:       payload.Email,
			Subject:  "Verify your email",
			BodyHTML: body.String(),
			Tag:      "verification",
		})
	})
}
