// Package emails renders the HTML bodies of outbound mail as templ
// components. Every dynamic value is escaped with templ.EscapeString.
package emails

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// Subjects of the messages rendered here.
const (
	SubjectOTP                = "Your password reset code"
	SubjectExpertConfirmation = "We received your question"
	SubjectExpertReply        = "An expert replied to your question"
)

// Render renders a component to a string for the mail dispatcher.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", fmt.Errorf("rendering email: %w", err)
	}
	return b.String(), nil
}

// OTPEmail is the password-reset code mail. ttl is the real validity
// window so the text never disagrees with the server.
func OTPEmail(code string, ttl time.Duration) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(w, "Password reset", func(w io.Writer) error {
			_, err := fmt.Fprintf(w,
				`<p>Use the code below to reset your password.</p>`+
					`<p style="font-size:28px;font-weight:bold;letter-spacing:6px">%s</p>`+
					`<p>The code is valid for %s and can be used once. If you did not request a reset, ignore this email.</p>`,
				templ.EscapeString(code), templ.EscapeString(humanDuration(ttl)))
			return err
		})
	})
}

// ExpertConfirmation acknowledges a submitted expert form.
func ExpertConfirmation(name, topic, question string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(w, "Thank you for your question", func(w io.Writer) error {
			_, err := fmt.Fprintf(w,
				`<p>Hello %s,</p>`+
					`<p>We received your question about <strong>%s</strong> and an expert will reply soon.</p>`+
					`<blockquote style="border-left:3px solid #ccc;padding-left:12px;color:#555">%s</blockquote>`,
				templ.EscapeString(name), templ.EscapeString(topic), paragraphs(question))
			return err
		})
	})
}

// ExpertReply delivers an admin's answer to the person who asked.
func ExpertReply(name, question, reply string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(w, "Reply from our expert", func(w io.Writer) error {
			_, err := fmt.Fprintf(w,
				`<p>Hello %s,</p>`+
					`<p>You asked:</p>`+
					`<blockquote style="border-left:3px solid #ccc;padding-left:12px;color:#555">%s</blockquote>`+
					`<p>Our expert replied:</p>`+
					`<div>%s</div>`,
				templ.EscapeString(name), paragraphs(question), paragraphs(reply))
			return err
		})
	})
}

// layout wraps a body in the shared mail chrome.
func layout(w io.Writer, heading string, body func(io.Writer) error) error {
	if _, err := fmt.Fprintf(w,
		`<!doctype html><html><body style="font-family:Arial,sans-serif;color:#222;max-width:560px;margin:0 auto">`+
			`<h2>%s</h2>`, templ.EscapeString(heading)); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, `<hr><p style="font-size:12px;color:#888">Inkwell</p></body></html>`)
	return err
}

// paragraphs escapes plain text and keeps its line breaks.
func paragraphs(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = templ.EscapeString(strings.TrimRight(l, "\r"))
	}
	return strings.Join(lines, "<br>")
}

// humanDuration formats whole minutes as "5 minutes"; anything else falls
// back to time.Duration's notation.
func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
