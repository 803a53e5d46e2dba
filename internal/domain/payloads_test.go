package domain

import (
	"encoding/json"
	"testing"
)

func TestDocument_ValueAndScan(t *testing.T) {
	d := Document(`{"total_stations":10}`)
	v, err := d.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.(string) != `{"total_stations":10}` {
		t.Fatalf("Value = %q", v)
	}

	var out Document
	if err := out.Scan("{\"a\":1}"); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if string(out) != `{"a":1}` {
		t.Fatalf("Scan string mismatch: %s", out)
	}
	if err := out.Scan([]byte(`{"b":2}`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if string(out) != `{"b":2}` {
		t.Fatalf("Scan bytes mismatch: %s", out)
	}
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if out != nil {
		t.Fatalf("Scan nil should clear, got %s", out)
	}
	if err := out.Scan(42); err == nil {
		t.Fatal("Scan int should fail")
	}
}

func TestDocument_EmptyValueIsObject(t *testing.T) {
	var d Document
	v, err := d.Value()
	if err != nil || v.(string) != "{}" {
		t.Fatalf("empty Value = (%v, %v)", v, err)
	}
	b, err := json.Marshal(struct {
		Data Document `json:"data"`
	}{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"data":{}}` {
		t.Fatalf("empty marshal = %s", b)
	}
}

func TestMarshalPayload_RoundTrip(t *testing.T) {
	doc, err := MarshalPayload(GeneralStats{TotalStations: 10, TurnoutRate: 54.21})
	if err != nil {
		t.Fatalf("MarshalPayload: %v", err)
	}
	var back GeneralStats
	if err := json.Unmarshal(doc, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.TotalStations != 10 || back.TurnoutRate != 54.21 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestRate(t *testing.T) {
	cases := []struct {
		part, whole int64
		want        float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{10, 10, 100},
	}
	for _, tc := range cases {
		if got := Rate(tc.part, tc.whole); got != tc.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tc.part, tc.whole, got, tc.want)
		}
	}
}
