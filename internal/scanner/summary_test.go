package scanner

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSummarize_Empty(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize(nil, start, start)

	if s.Total != 0 || s.PassCount != 0 || s.FailCount != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros", s.Total, s.PassCount, s.FailCount)
	}
	if s.AverageConnectionTimeMS != 0 {
		t.Errorf("AverageConnectionTimeMS = %v, want 0", s.AverageConnectionTimeMS)
	}
	if s.ExceptionHistogram == nil || len(s.ExceptionHistogram) != 0 {
		t.Errorf("ExceptionHistogram = %v, want empty map", s.ExceptionHistogram)
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)

	results := []Result{
		{SequenceNo: 1, Status: StatusPass, ConnectionTimeMS: ConnectionTime{Millis: 100, Valid: true}},
		{SequenceNo: 2, Status: StatusFail, Error: "Connection Refused"},
		{SequenceNo: 3, Status: StatusFail, ConnectionTimeMS: ConnectionTime{Millis: 50.5, Valid: true}},
		{SequenceNo: 4, Status: StatusFail, Error: "Connection Refused"},
		{SequenceNo: 5, Status: StatusFail, Error: "DNS Resolution Error"},
	}

	s := Summarize(results, start, end)

	if s.Total != 5 || s.PassCount != 1 || s.FailCount != 4 {
		t.Errorf("counts = %d/%d/%d, want 5/1/4", s.Total, s.PassCount, s.FailCount)
	}
	if s.PassCount+s.FailCount != s.Total {
		t.Error("pass + fail != total")
	}
	if s.AverageConnectionTimeMS != 75.25 {
		t.Errorf("AverageConnectionTimeMS = %v, want 75.25", s.AverageConnectionTimeMS)
	}
	if s.ExceptionHistogram["Connection Refused"] != 2 || s.ExceptionHistogram["DNS Resolution Error"] != 1 {
		t.Errorf("ExceptionHistogram = %v", s.ExceptionHistogram)
	}
	if len(s.ExceptionHistogram) != 2 {
		t.Errorf("ExceptionHistogram has %d entries, want 2", len(s.ExceptionHistogram))
	}
	if s.DurationMS != 1500 {
		t.Errorf("DurationMS = %v, want 1500", s.DurationMS)
	}
}

func TestConnectionTime_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   ConnectionTime
		want string
	}{
		{"valid", Millis(12345678 * time.Nanosecond), "12.35"},
		{"not available", ConnectionTime{}, `"N/A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}

			var back ConnectionTime
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back != tt.in {
				t.Errorf("Unmarshal() = %+v, want %+v", back, tt.in)
			}
		})
	}
}

func TestConnectionTime_UnmarshalLegacy(t *testing.T) {
	var c ConnectionTime
	if err := json.Unmarshal([]byte(`"42.5"`), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !c.Valid || c.Millis != 42.5 {
		t.Errorf("Unmarshal(\"42.5\") = %+v", c)
	}
	if err := json.Unmarshal([]byte(`"fast"`), &c); err == nil {
		t.Error("Unmarshal(\"fast\") should fail")
	}
}
