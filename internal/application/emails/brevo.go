package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TeamInvite is the data rendered into an invitation email.
type TeamInvite struct {
	ToEmail     string
	InviteLink  string
	TeamName    string
	InviterName string
	ExpiresAt   time.Time
}

// Sender sends transactional emails. Nil = no-op.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendTeamInvite(ctx context.Context, invite TeamInvite) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API. Env: SENDINBLUE_API_KEY, MAIL_FROM.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@swifttasks.io"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

// send sends one email via Brevo API. Without an API key it does nothing.
func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "SwiftTasks"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: supportEmail, Name: "SwiftTasks Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome sends the welcome email after signup.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to SwiftTasks!", EmailLayout(welcomeContent(firstName)))
}

// SendTeamInvite sends the team invitation email with the join link.
func (c *BrevoClient) SendTeamInvite(ctx context.Context, invite TeamInvite) error {
	subject := fmt.Sprintf("You have been invited to join %s on SwiftTasks", invite.TeamName)
	return c.send(ctx, invite.ToEmail, subject, EmailLayout(invitationContent(invite)))
}

func welcomeContent(firstName string) string {
	return fmt.Sprintf(`
    <h1>Welcome to SwiftTasks, %s!</h1>
    <p>Your account is ready. Start a project, sketch a board, or write your first doc page.</p>
    <center>
      <a href="%s" class="st-button">Open SwiftTasks</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact our support team.
    </p>
`, EscapeHTML(firstName), appURL)
}

func invitationContent(invite TeamInvite) string {
	inviter := invite.InviterName
	if inviter == "" {
		inviter = "A teammate"
	}
	return fmt.Sprintf(`
    <h1>Join %s on SwiftTasks</h1>
    <p>%s invited you to collaborate in the <strong>%s</strong> team.</p>
    <p>Joining a team replaces your personal projects and documentation spaces with the team's shared workspace. Your todo lists are kept.</p>
    <center>
      <a href="%s" class="st-button">Accept Invitation</a>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">
      This invitation expires on %s. If you were not expecting it, you can ignore this email.
    </p>
`, EscapeHTML(invite.TeamName), EscapeHTML(inviter), EscapeHTML(invite.TeamName), invite.InviteLink,
		invite.ExpiresAt.UTC().Format("January 2, 2006"))
}
