package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"ResourceType", KeyResourceType, "tables", ResourceType("tables")},
		{"Region", KeyRegion, "boot", Region("boot")},
		{"State", KeyState, "routine", State("routine")},
		{"Task", KeyTask, "one_shot", Task("one_shot")},
		{"Backend", KeyBackend, "sqlite", Backend("sqlite")},
		{"ReportID", KeyReportID, "rid", ReportID("rid")},
		{"Path", KeyPath, "/v1/status", Path("/v1/status")},
		{"Method", KeyMethod, "GET", Method("GET")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := EntryID(3); v.Key != KeyEntryID {
		t.Fatalf("EntryID key mismatch: %s", v.Key)
	}
	if v := Address(0x1000); v.Key != KeyAddress || v.Value.Uint64() != 0x1000 {
		t.Fatalf("Address mismatch: %v", v)
	}
	if v := Budget(4096); v.Key != KeyBudget {
		t.Fatalf("Budget key mismatch: %s", v.Key)
	}
	if v := Status(200); v.Key != KeyStatus {
		t.Fatalf("Status key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
