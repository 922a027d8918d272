package combine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jkoski/spotcost-go/hours"
)

func TestSortRecords(t *testing.T) {
	records := []Record{
		{Timestamp: hours.Key("2024-01-02T00:00:00+0200")},
		{Timestamp: hours.Key("2024-01-01T05:00:00+0200")},
		{Timestamp: hours.Key("2024-01-01T00:00:00+0200")},
		{Timestamp: hours.Key("2024-01-01T23:00:00+0200")},
	}

	SortRecords(records)

	for i := 1; i < len(records); i++ {
		if records[i-1].Timestamp.Compare(records[i].Timestamp) > 0 {
			t.Errorf("records out of order at %d: %s > %s", i, records[i-1].Timestamp, records[i].Timestamp)
		}
	}
	if records[0].Timestamp != hours.Key("2024-01-01T00:00:00+0200") {
		t.Errorf("unexpected first record: %s", records[0].Timestamp)
	}
}

func TestWriteCSV(t *testing.T) {
	records := []Record{
		{
			Timestamp:   hours.Key("2024-01-01T00:00:00+0200"),
			Consumption: 1.5,
			Price:       45.30,
			Cost:        0.687,
		},
		{
			Timestamp:   hours.Key("2024-01-01T01:00:00+0200"),
			Consumption: 0.25,
			Price:       38.91,
			Cost:        0.098525,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV() unexpected error: %v", err)
	}

	expected := strings.Join([]string{
		"timestamp,consumption_kWh,price_cents_per_kWh,cost_euros",
		"2024-01-01T00:00:00+0200,1.500,45.30,0.687000",
		"2024-01-01T01:00:00+0200,0.250,38.91,0.098525",
		"",
	}, "\n")

	if buf.String() != expected {
		t.Errorf("WriteCSV() output mismatch\nexpected:\n%s\ngot:\n%s", expected, buf.String())
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() unexpected error: %v", err)
	}
	if buf.String() != "timestamp,consumption_kWh,price_cents_per_kWh,cost_euros\n" {
		t.Errorf("expected header-only output, got %q", buf.String())
	}
}

func TestWriteCSVDeterministic(t *testing.T) {
	records := []Record{
		{Timestamp: hours.Key("2024-01-01T00:00:00+0200"), Consumption: 1.5, Price: 45.3, Cost: 0.687},
	}

	var a, b bytes.Buffer
	if err := WriteCSV(&a, records); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(&b, records); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical records produced different bytes")
	}
}
