package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDate_MarshalJSON(t *testing.T) {
	d := NewDate(2024, time.March, 9)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"2024-03-09"` {
		t.Errorf("got %s, want %q", data, "2024-03-09")
	}

	data, err = json.Marshal(Date{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("zero date: got %s, want null", data)
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "calendar date", input: `"2024-03-09"`, want: "2024-03-09"},
		{name: "timestamp truncated", input: `"2024-03-09T17:45:00Z"`, want: "2024-03-09"},
		{name: "null", input: `null`, want: ""},
		{name: "empty string", input: `""`, want: ""},
		{name: "garbage", input: `"next tuesday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("got %q, want %q", d.String(), tt.want)
			}
		})
	}
}

func TestDate_AddDays(t *testing.T) {
	got := NewDate(2024, time.December, 30).AddDays(63)
	if got.String() != "2025-03-03" {
		t.Errorf("got %s, want 2025-03-03", got)
	}
}

func TestLitterStatus_Rank(t *testing.T) {
	if !(LitterPlanned.Rank() < LitterExpected.Rank() && LitterExpected.Rank() < LitterBorn.Rank()) {
		t.Error("expected Planned < Expected < Born")
	}
	if LitterStatus("Sold").Rank() != -1 {
		t.Errorf("unknown status rank = %d, want -1", LitterStatus("Sold").Rank())
	}
}

func TestHealthRecord_SubjectIsFlattened(t *testing.T) {
	rec := HealthRecord{
		Subject:    ForPuppy(7),
		RecordType: "exam",
		RecordDate: NewDate(2024, time.May, 1),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"puppy_id":7`) {
		t.Errorf("expected flattened puppy_id in %s", s)
	}
	if strings.Contains(s, `"dog_id"`) {
		t.Errorf("unexpected dog_id in %s", s)
	}
	if strings.Contains(s, `"id"`) {
		t.Errorf("unsaved record should omit id: %s", s)
	}
}

func TestDog_DecodesDisplayFields(t *testing.T) {
	body := `{"id":3,"registered_name":"Luna","gender":"Female","cover_photo":null,
		"breed_name":"Golden Retriever","breed_info":{"id":2,"name":"Golden Retriever"}}`

	var d Dog
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if d.EntityID() != 3 {
		t.Errorf("EntityID = %d, want 3", d.EntityID())
	}
	if d.BreedName != "Golden Retriever" {
		t.Errorf("BreedName = %q", d.BreedName)
	}
	if len(d.BreedInfo) == 0 {
		t.Error("expected breed_info to be retained")
	}
	if d.CoverPhoto != nil {
		t.Errorf("CoverPhoto = %v, want nil", *d.CoverPhoto)
	}
}
