package notification

import (
	"strings"
	"testing"
	"time"
)

func TestRender_RequestCreated(t *testing.T) {
	content := Render(EventRequestCreated, Payload{RequestTitle: "Leaking faucet"})

	if content.Title != "Maintenance request received" {
		t.Errorf("Unexpected title: %s", content.Title)
	}
	if !strings.Contains(content.Message, `"Leaking faucet"`) {
		t.Errorf("Expected message to name the request, got: %s", content.Message)
	}
	if content.EmailSubject != "[PropServe] Maintenance request received" {
		t.Errorf("Unexpected email subject: %s", content.EmailSubject)
	}
}

func TestRender_StatusUpdated_WithAndWithoutOldStatus(t *testing.T) {
	withOld := Render(EventStatusUpdated, Payload{
		RequestTitle: "Broken boiler",
		OldStatus:    "OPEN",
		NewStatus:    "ASSIGNED",
	})
	if !strings.Contains(withOld.Message, "from OPEN to ASSIGNED") {
		t.Errorf("Expected transition in message, got: %s", withOld.Message)
	}

	withoutOld := Render(EventStatusUpdated, Payload{
		RequestTitle: "Broken boiler",
		NewStatus:    "ASSIGNED",
	})
	if strings.Contains(withoutOld.Message, "from") {
		t.Errorf("Expected no transition wording without old status, got: %s", withoutOld.Message)
	}
	if !strings.Contains(withoutOld.Message, "ASSIGNED") {
		t.Errorf("Expected new status in message, got: %s", withoutOld.Message)
	}
}

func TestRender_VendorAssigned_OmitsEmptyName(t *testing.T) {
	named := Render(EventVendorAssigned, Payload{
		RequestTitle: "Blocked drain",
		AssigneeName: "Acme Plumbing",
	})
	if !strings.Contains(named.Message, "Acme Plumbing") {
		t.Errorf("Expected assignee name in message, got: %s", named.Message)
	}

	anonymous := Render(EventVendorAssigned, Payload{RequestTitle: "Blocked drain"})
	if !strings.Contains(anonymous.Message, "A vendor has been assigned") {
		t.Errorf("Expected generic wording without a name, got: %s", anonymous.Message)
	}
}

func TestRender_SLAWarningAndViolation(t *testing.T) {
	due := time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC)

	warning := Render(EventSLAWarning, Payload{
		RequestTitle: "No hot water",
		DeadlineType: "accept",
		Deadline:     &due,
	})
	if !strings.Contains(warning.Title, "approaching") {
		t.Errorf("Unexpected warning title: %s", warning.Title)
	}
	if !strings.Contains(warning.Message, "2025-04-01T15:00:00Z") {
		t.Errorf("Expected deadline timestamp in message, got: %s", warning.Message)
	}

	violation := Render(EventSLAViolation, Payload{
		RequestTitle: "No hot water",
		DeadlineType: "complete",
	})
	if !strings.Contains(violation.Title, "missed") {
		t.Errorf("Unexpected violation title: %s", violation.Title)
	}
	// Deadline omitted from payload, so no "(due ...)" suffix
	if strings.Contains(violation.Message, "(due") {
		t.Errorf("Expected no deadline suffix, got: %s", violation.Message)
	}
}

func TestRender_NotesAppended(t *testing.T) {
	content := Render(EventRequestCompleted, Payload{
		RequestTitle: "Fence repair",
		Notes:        "Replaced two panels",
	})

	if !strings.Contains(content.Message, "Notes: Replaced two panels") {
		t.Errorf("Expected notes in message, got: %s", content.Message)
	}
}

func TestRender_UnknownEventType(t *testing.T) {
	content := Render(EventType("SOMETHING_ELSE"), Payload{RequestTitle: "Misc"})

	if content.Title != "Notification" {
		t.Errorf("Expected fallback title, got: %s", content.Title)
	}
}

func TestRender_EmailHTMLEscapesContent(t *testing.T) {
	content := Render(EventRequestCreated, Payload{RequestTitle: `<script>alert("x")</script>`})

	if strings.Contains(content.EmailHTML, "<script>") {
		t.Error("Expected HTML body to escape markup in payload fields")
	}
	if !strings.Contains(content.EmailHTML, "&lt;script&gt;") {
		t.Error("Expected escaped markup in HTML body")
	}
}

func TestRender_EmailHTMLOmitsEmptyMetadata(t *testing.T) {
	content := Render(EventRequestCreated, Payload{RequestTitle: "Window latch"})

	if strings.Contains(content.EmailHTML, "Assignee") {
		t.Error("Expected no assignee row without an assignee")
	}
	if strings.Contains(content.EmailHTML, "Deadline type") {
		t.Error("Expected no deadline row for a non-SLA event")
	}
	if !strings.Contains(content.EmailHTML, "Window latch") {
		t.Error("Expected request title row")
	}
}

func TestSeverityColor_PerSeverity(t *testing.T) {
	warning := Render(EventSLAWarning, Payload{RequestTitle: "x"})
	if !strings.Contains(warning.EmailHTML, "#ffc107") {
		t.Error("Expected warning header color")
	}

	violation := Render(EventSLAViolation, Payload{RequestTitle: "x"})
	if !strings.Contains(violation.EmailHTML, "#dc3545") {
		t.Error("Expected critical header color")
	}

	info := Render(EventRequestCreated, Payload{RequestTitle: "x"})
	if !strings.Contains(info.EmailHTML, "#17a2b8") {
		t.Error("Expected info header color")
	}
}
