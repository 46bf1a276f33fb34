package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary   = "#4F46E5"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
	appURL         = "https://app.swifttasks.io"
	supportEmail   = "support@swifttasks.io"
)

// EmailLayout wraps content in the shared transactional email layout.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>SwiftTasks</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; -webkit-font-smoothing: antialiased; }
    table { border-collapse: collapse; }
    body, td, p, a, li { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 24px 0; font-size: 16px; line-height: 1.6; color: #374151; }
    .content-body h1 { color: #111827; font-size: 24px; margin: 0 0 20px 0; font-weight: 700; }
    .content-body a { color: %s; font-weight: 600; text-decoration: none; }
    .st-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; border-radius: 6px; font-weight: 600; font-size: 15px; }
    .footer-text { color: %s; font-size: 13px; line-height: 1.5; }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="width: 600px; background-color: %s; border-radius: 8px;">
          <tr>
            <td align="center" style="padding: 40px 0 24px 0;">
              <a href="%s" style="font-size: 22px; font-weight: 700; color: %s; text-decoration: none;">SwiftTasks</a>
            </td>
          </tr>
          <tr>
            <td class="content-body" style="padding: 0 48px 30px 48px;">%s</td>
          </tr>
          <tr>
            <td align="center" style="padding: 24px 48px 40px 48px;">
              <p class="footer-text" style="margin: 0 0 10px 0;">Need help? <a href="mailto:%s">%s</a></p>
              <p class="footer-text" style="margin: 0;">© %d SwiftTasks. All rights reserved.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themePrimary, themeTextMuted,
		themeBgBody, themeWhite, appURL, themePrimary, contentHTML, supportEmail, supportEmail, year)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
