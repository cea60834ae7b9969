package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/repl"
)

func TestSubscriptionsTable(t *testing.T) {
	var buf bytes.Buffer
	Subscriptions(&buf, []repl.SubscriptionStatus{{
		Subscription: postgres.Subscription{
			Name:         "test_sub",
			Enabled:      true,
			ConnInfo:     "postgres://localhost/src",
			SlotName:     "test_sub_slot",
			Publications: []string{"test_sub_publication"},
		},
		Lag:        "42",
		FlushedLSN: "0/16EDE8A0",
	}})

	out := buf.String()
	for _, want := range []string{"test_sub", "true", "test_sub_slot", "test_sub_publication", "42", "0/16EDE8A0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPublicationsTable(t *testing.T) {
	var buf bytes.Buffer
	Publications(&buf, []postgres.Publication{{Name: "test_sub_publication", AllTables: true}})
	if !strings.Contains(buf.String(), "test_sub_publication") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestSubscriptionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	Subscriptions(&buf, nil)
	if !strings.Contains(buf.String(), "No subscriptions found.") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
