package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// deliver sends a to all configured targets.
// Errors are logged but do not affect the caller.
func (n *Notifier) deliver(a *Alert) {
	for _, wh := range n.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = n.sendSlack(url, a)
		case "teams":
			err = n.sendTeams(url, a)
		case "http":
			err = n.sendHTTP(url, a)
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"audit_id", a.AuditID,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"audit_id", a.AuditID,
			)
		}
	}
}

func (n *Notifier) sendSlack(url string, a *Alert) error {
	text := fmt.Sprintf("*%s* %s", severityLabel(a.Severity), a.Message)
	if len(a.Failed) > 0 {
		text += "\n• " + strings.Join(a.Failed, "\n• ")
	}
	body, _ := json.Marshal(map[string]string{"text": text})
	return n.post(url, body)
}

func (n *Notifier) sendTeams(url string, a *Alert) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    "CFA audit " + a.AuditID,
		"title":      fmt.Sprintf("CFA audit failed: %s / %s", a.Part, a.Serial),
		"text":       a.Message + "<br>" + strings.Join(a.Failed, "<br>"),
	}
	body, _ := json.Marshal(payload)
	return n.post(url, body)
}

func (n *Notifier) sendHTTP(url string, a *Alert) error {
	body, _ := json.Marshal(map[string]interface{}{"alert": a})
	return n.post(url, body)
}

func (n *Notifier) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
