// internal/workers/notification/daily-digest/template.go
package dailydigest

import (
	"fmt"
	"html"
	"strings"
	"time"

	"leadfollow/internal/followup/classifier"
	"leadfollow/internal/models"
)

const (
	textBodyTemplate = `Hi {{name}},

{{totalAlerts}} prospects need your attention ({{highCount}} high, {{mediumCount}} medium, {{lowCount}} low priority).
{{overdueCount}} follow-ups are overdue and {{newCount}} new prospects are waiting for a first response.

{{items}}
`
	htmlBodyTemplate = `<p>Hi {{name}},</p>
<p><strong>{{totalAlerts}}</strong> prospects need your attention ({{highCount}} high, {{mediumCount}} medium, {{lowCount}} low priority).<br>
{{overdueCount}} follow-ups are overdue and {{newCount}} new prospects are waiting for a first response.</p>
<ul>
{{items}}</ul>
`
)

// renderTemplate substitutes {{key}} placeholders and drops any left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case int:
			value = fmt.Sprintf("%d", t)
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func summaryData(name string, summary *models.NotificationSummary) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"totalAlerts":  summary.TotalAlerts,
		"highCount":    summary.HighPriorityCount,
		"mediumCount":  summary.MediumPriorityCount,
		"lowCount":     summary.LowPriorityCount,
		"overdueCount": summary.OverdueFollowUpsCount,
		"newCount":     summary.NewProspectsCount,
	}
}

func lastContactLabel(p models.Prospect, now time.Time) string {
	if p.LastContactDate == nil {
		return "never contacted"
	}
	return "last contact " + classifier.FormatRelative(*p.LastContactDate, now)
}

func renderText(name string, summary *models.NotificationSummary, now time.Time) string {
	var items strings.Builder
	for _, a := range summary.Alerts {
		fmt.Fprintf(&items, "- [%s] %s: %s (%s)\n", a.Priority, a.Prospect.Name, a.Message, lastContactLabel(a.Prospect, now))
	}
	data := summaryData(name, summary)
	data["items"] = items.String()
	return renderTemplate(textBodyTemplate, data)
}

func renderHTML(name string, summary *models.NotificationSummary, now time.Time) string {
	var items strings.Builder
	for _, a := range summary.Alerts {
		fmt.Fprintf(&items, "<li><strong>%s</strong> <em>%s</em>: %s (%s)</li>\n",
			html.EscapeString(a.Prospect.Name),
			html.EscapeString(string(a.Priority)),
			html.EscapeString(a.Message),
			html.EscapeString(lastContactLabel(a.Prospect, now)),
		)
	}
	data := summaryData(html.EscapeString(name), summary)
	data["items"] = items.String()
	return renderTemplate(htmlBodyTemplate, data)
}
