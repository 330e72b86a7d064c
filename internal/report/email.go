package report

import (
	"fmt"
	"net/smtp"
	"strings"
)

// 中文说明：
// SMTP 邮件发送。正文为 HTML，失败由上层回退到本地报告文件。

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func (c SMTPConfig) enabled() bool {
	return c.Host != "" && c.From != "" && c.To != ""
}

func sendHTMLMail(cfg SMTPConfig, subject string, body []byte) error {
	if !cfg.enabled() {
		return fmt.Errorf("smtp not configured")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	recipients := splitRecipients(cfg.To)
	msg := buildMessage(cfg.From, recipients, subject, body)
	if err := smtp.SendMail(addr, auth, cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func splitRecipients(to string) []string {
	parts := strings.Split(to, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildMessage(from string, to []string, subject string, body []byte) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.Write(body)
	return []byte(b.String())
}
