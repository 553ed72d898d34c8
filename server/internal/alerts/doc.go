// Package alerts notifies operators about audits that failed their part
// limits. Alerts are delivered to Teams, Slack or generic HTTP webhooks, at
// most once per part within a cooldown.
package alerts
