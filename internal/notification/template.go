package notification

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Content is the rendered output for one notification event.
// Title and Message feed the in-app and SMS/WhatsApp channels;
// EmailSubject and EmailHTML feed the email channel.
type Content struct {
	Title        string
	Message      string
	EmailSubject string
	EmailHTML    string
}

// Render maps an event type and payload to human-readable content.
// Optional payload fields left empty are omitted from the output.
func Render(eventType EventType, payload Payload) *Content {
	var title, message string

	switch eventType {
	case EventRequestCreated:
		title = "Maintenance request received"
		message = fmt.Sprintf("Your request %q has been logged and is awaiting acceptance.", payload.RequestTitle)
	case EventStatusUpdated:
		title = "Request status updated"
		if payload.OldStatus != "" {
			message = fmt.Sprintf("Request %q moved from %s to %s.", payload.RequestTitle, payload.OldStatus, payload.NewStatus)
		} else {
			message = fmt.Sprintf("Request %q is now %s.", payload.RequestTitle, payload.NewStatus)
		}
	case EventVendorAssigned:
		title = "Vendor assigned"
		if payload.AssigneeName != "" {
			message = fmt.Sprintf("%s has been assigned to request %q.", payload.AssigneeName, payload.RequestTitle)
		} else {
			message = fmt.Sprintf("A vendor has been assigned to request %q.", payload.RequestTitle)
		}
	case EventSLAWarning:
		title = fmt.Sprintf("SLA deadline approaching (%s)", payload.DeadlineType)
		message = fmt.Sprintf("Request %q is approaching its %s deadline%s.",
			payload.RequestTitle, payload.DeadlineType, deadlineSuffix(payload.Deadline))
	case EventSLAViolation:
		title = fmt.Sprintf("SLA deadline missed (%s)", payload.DeadlineType)
		message = fmt.Sprintf("Request %q has passed its %s deadline%s.",
			payload.RequestTitle, payload.DeadlineType, deadlineSuffix(payload.Deadline))
	case EventRequestCompleted:
		title = "Request completed"
		message = fmt.Sprintf("Request %q has been completed.", payload.RequestTitle)
	default:
		title = "Notification"
		message = fmt.Sprintf("Update on request %q.", payload.RequestTitle)
	}

	if payload.Notes != "" {
		message += " Notes: " + payload.Notes
	}

	return &Content{
		Title:        title,
		Message:      message,
		EmailSubject: fmt.Sprintf("[PropServe] %s", title),
		EmailHTML:    buildHTMLEmail(eventType, title, message, payload),
	}
}

func deadlineSuffix(deadline *time.Time) string {
	if deadline == nil {
		return ""
	}
	return fmt.Sprintf(" (due %s)", deadline.Format(time.RFC3339))
}

// buildHTMLEmail builds the HTML email body for an event
func buildHTMLEmail(eventType EventType, title, message string, payload Payload) string {
	headerColor := severityColor(eventType.Severity())

	var rows strings.Builder
	writeRow := func(label, value string) {
		if value == "" {
			return
		}
		rows.WriteString(fmt.Sprintf(`
        <div class="metadata-item">
            <div class="metadata-label">%s</div>
            <div>%s</div>
        </div>`, label, html.EscapeString(value)))
	}

	writeRow("Request", payload.RequestTitle)
	writeRow("Status", payload.NewStatus)
	writeRow("Assignee", payload.AssigneeName)
	writeRow("Deadline type", payload.DeadlineType)
	if payload.Deadline != nil {
		writeRow("Deadline", payload.Deadline.Format(time.RFC3339))
	}

	return fmt.Sprintf(`
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 0; }
        .header { background-color: %s; color: white; padding: 20px; border-radius: 5px; }
        .content { padding: 20px; background-color: #f8f9fa; margin-top: 10px; border-radius: 5px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 20px; margin-bottom: 15px; }
        .metadata-item { flex: 1; min-width: 200px; }
        .metadata-label { font-weight: bold; color: #6c757d; }
        .message { background-color: white; padding: 15px; border-left: 4px solid %s; white-space: pre-wrap; }
        .footer { margin-top: 20px; padding: 10px; font-size: 12px; color: #6c757d; }
    </style>
</head>
<body>
    <div class="header">
        <h2 style="margin: 0;">%s</h2>
    </div>
    <div class="content">
        <div class="metadata">%s
        </div>
        <div class="message">%s</div>
    </div>
    <div class="footer">
        PropServe Maintenance Platform - Automated Notification
    </div>
</body>
</html>
`,
		headerColor,
		headerColor,
		html.EscapeString(title),
		rows.String(),
		html.EscapeString(message))
}

// severityColor returns the header color for a severity level
func severityColor(severity string) string {
	switch severity {
	case SeverityCritical:
		return "#dc3545" // Red
	case SeverityWarning:
		return "#ffc107" // Yellow
	default:
		return "#17a2b8" // Cyan
	}
}
