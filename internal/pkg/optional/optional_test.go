package optional

import (
	"encoding/json"
	"testing"
)

func TestValueUnmarshal(t *testing.T) {
	var body struct {
		Date Value[string] `json:"date"`
		Memo Value[string] `json:"memo"`
		Note Value[string] `json:"note"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2026-01-02","memo":null}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !body.Date.Set || body.Date.V == nil || *body.Date.V != "2026-01-02" {
		t.Fatalf("date: %+v", body.Date)
	}
	if !body.Memo.Set || body.Memo.V != nil {
		t.Fatalf("memo should be explicit null: %+v", body.Memo)
	}
	if body.Note.Set {
		t.Fatalf("note should be absent: %+v", body.Note)
	}
}

func TestValueMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Value[int] `json:"a"`
		B Value[int] `json:"b"`
	}{A: Of(3), B: Null[int]()})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"a":3,"b":null}` {
		t.Fatalf("got %s", b)
	}
}
