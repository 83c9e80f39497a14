//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"plant-advisor/internal/domain"
)

// --- Payload Tests ---

func TestPayloadValidate(t *testing.T) {
	t.Run("disease requires a name", func(t *testing.T) {
		err := DiseasePayload("  ").Validate(WorkTypeDisease)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("chat requires a query", func(t *testing.T) {
		if err := ChatPayload("", "Potato___Late_blight").Validate(WorkTypeChat); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if err := ChatPayload("how often to water?", "").Validate(WorkTypeChat); err != nil {
			t.Fatalf("expected valid chat payload, got %v", err)
		}
	})

	t.Run("unknown work type", func(t *testing.T) {
		if err := DiseasePayload("x").Validate("bogus"); !errors.Is(err, domain.ErrUnknownWorkType) {
			t.Fatalf("expected ErrUnknownWorkType, got %v", err)
		}
	})
}

// --- Request Document Tests ---

func TestRequestDocument_Unprocessed(t *testing.T) {
	doc := &RequestDocument{
		Requests: []Request{
			{ID: "a", Disease: "Apple___Black_rot"},
			{ID: "b", Disease: "Tomato___Early_blight"},
			{ID: "b", Disease: "Tomato___Early_blight"},
			{ID: "c", Disease: "Potato___healthy"},
		},
		Processed: []Request{{ID: "a", Disease: "Apple___Black_rot"}},
	}

	got := doc.Unprocessed()
	if len(got) != 2 {
		t.Fatalf("expected 2 unprocessed requests, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("expected append order [b c], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestRequestDocument_MarkProcessedIsIdempotent(t *testing.T) {
	doc := EmptyRequestDocument()
	req := Request{ID: "r1", Disease: "Tomato___Early_blight"}
	doc.Requests = append(doc.Requests, req)

	if !doc.MarkProcessed(req) {
		t.Fatal("first mark should append")
	}
	if doc.MarkProcessed(req) {
		t.Fatal("second mark should be a no-op")
	}
	if len(doc.Processed) != 1 {
		t.Fatalf("expected 1 processed entry, got %d", len(doc.Processed))
	}
}

func TestRequestDocument_Normalize(t *testing.T) {
	doc := &RequestDocument{
		Requests: []Request{
			{ID: "ok", Query: "why are my leaves yellow?"},
			{ID: "", Query: "no id"},
			{ID: "noquery"},
		},
		Processed: []Request{
			{ID: "ok", Query: "why are my leaves yellow?"},
			{ID: "ok", Query: "why are my leaves yellow?"},
			{ID: "orphan", Query: "never enqueued"},
		},
	}

	if !doc.Normalize(WorkTypeChat) {
		t.Fatal("expected Normalize to report a change")
	}
	if len(doc.Requests) != 1 || doc.Requests[0].ID != "ok" {
		t.Errorf("unexpected requests after normalize: %+v", doc.Requests)
	}
	if len(doc.Processed) != 1 || doc.Processed[0].ID != "ok" {
		t.Errorf("unexpected processed after normalize: %+v", doc.Processed)
	}
	if doc.Normalize(WorkTypeChat) {
		t.Error("normalizing a clean document should report no change")
	}
}

// --- Wire Format Tests ---

func TestRequestJSONShape(t *testing.T) {
	req := Request{ID: "r1", Disease: "Tomato___Early_blight", Timestamp: Timestamp{Time: time.Unix(1700000000, 500000000)}}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["query"]; ok {
		t.Error("disease request must not carry a query field")
	}
	ts, ok := raw["timestamp"].(float64)
	if !ok {
		t.Fatalf("timestamp should be a JSON number, got %T", raw["timestamp"])
	}
	if ts != 1700000000.5 {
		t.Errorf("expected 1700000000.5, got %v", ts)
	}
}

func TestTimestamp_UnmarshalFractionalSeconds(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte("1712345678.25"), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ts.Unix() != 1712345678 {
		t.Errorf("unexpected seconds: %d", ts.Unix())
	}
	if ms := ts.Nanosecond() / int(time.Millisecond); ms != 250 {
		t.Errorf("expected 250ms, got %d", ms)
	}
}

func TestNewResult(t *testing.T) {
	req := Request{ID: "c1", Query: "is it safe to prune now?"}
	res, err := NewResult(WorkTypeChat, req, "Yes.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Query != req.Query || res.Response != "Yes." || res.Recommendation != "" {
		t.Errorf("unexpected chat result: %+v", res)
	}
	if !res.Complete() {
		t.Error("result with text should be complete")
	}
	if _, err := NewResult("bogus", req, "x"); !errors.Is(err, domain.ErrUnknownWorkType) {
		t.Errorf("expected ErrUnknownWorkType, got %v", err)
	}
}

func TestLabelTable(t *testing.T) {
	if len(DefaultLabels) != 38 {
		t.Fatalf("expected 38 labels, got %d", len(DefaultLabels))
	}
	tbl := LabelTable(DefaultLabels)
	if l, err := tbl.Label(29); err != nil || l != "Tomato___Early_blight" {
		t.Errorf("expected Tomato___Early_blight, got %q (%v)", l, err)
	}
	if _, err := tbl.Label(38); err == nil {
		t.Error("expected out of range error")
	}
}

func TestRequestLabel(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"disease wins", Request{Disease: "Apple___Black_rot", Query: "ignored"}, "Apple___Black_rot"},
		{"short query", Request{Query: "why yellow?"}, "why yellow?"},
		{"ascii cut at 30", Request{Query: "abcdefghijklmnopqrstuvwxyz0123456789"}, "abcdefghijklmnopqrstuvwxyz0123..."},
		{"multibyte cut on rune boundary", Request{Query: "почему у томатов желтеют листья и что делать"}, "почему у томатов желтеют листь..."},
		{"exactly 30 runes kept", Request{Query: "éééééééééééééééééééééééééééééé"}, "éééééééééééééééééééééééééééééé"},
	}
	for _, c := range cases {
		got := c.req.Label()
		if got != c.want {
			t.Errorf("%s: Label() = %q, want %q", c.name, got, c.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("%s: Label() produced invalid UTF-8 %q", c.name, got)
		}
	}
}
