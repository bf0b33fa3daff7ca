package term

import (
	"sort"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		name string
		year string
		ok   bool
	}{
		{"Fall 2023", "Fall", "2023", true},
		{"Winter  2024", "Winter", "2024", true},
		{"Fall/Winter 2022-23", "Fall/Winter", "2022-23", true},
		{"Winter/Summer 2021", "Winter/Summer", "2021", true},
		{" Summer 2020 ", "Summer", "2020", true},
		{"Fall", "", "", false},
		{"Autumn 2023", "", "", false},
		{"Fall 23", "", "", false},
		{"Admit Term Fall 2019", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, year, ok := Parse(tt.in)
			if ok != tt.ok || name != tt.name || year != tt.year {
				t.Errorf("Parse(%q) = %q, %q, %v; want %q, %q, %v", tt.in, name, year, ok, tt.name, tt.year, tt.ok)
			}
		})
	}
}

func TestRank(t *testing.T) {
	order := []string{Winter, Spring, Summer, Fall, FallWinter, TransferCredits}
	for i := 1; i < len(order); i++ {
		if Rank(order[i-1]) >= Rank(order[i]) {
			t.Errorf("Rank(%q) should be below Rank(%q)", order[i-1], order[i])
		}
	}
}

func TestYearPrefix(t *testing.T) {
	for in, want := range map[string]int{"2023": 2023, "2022-23": 2022, "": 0, "NA": 0} {
		if got := YearPrefix(in); got != want {
			t.Errorf("YearPrefix(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	tests := []struct{ name, year, key string }{
		{"Fall", "2023", "Fall 2023"},
		{TransferCredits, "2019", "Transfer Credits 2019"},
		{TransferCredits, "", "Transfer Credits"},
		{FallWinter, "2022-23", "Fall/Winter 2022-23"},
	}
	for _, tt := range tests {
		if got := Key(tt.name, tt.year); got != tt.key {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.name, tt.year, got, tt.key)
		}
		name, year := SplitKey(tt.key)
		if name != tt.name || year != tt.year {
			t.Errorf("SplitKey(%q) = %q, %q", tt.key, name, year)
		}
	}
}

func TestLess(t *testing.T) {
	keys := []string{"Fall 2023", "Summer 2023", "Winter 2024", "Fall/Winter 2022-23", "Winter 2023", "Spring 2023"}
	sort.SliceStable(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })

	want := []string{"Fall/Winter 2022-23", "Winter 2023", "Spring 2023", "Summer 2023", "Fall 2023", "Winter 2024"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", keys, want)
		}
	}
}

func TestIsName(t *testing.T) {
	if !IsName("Fall/Winter") || IsName("Autumn") {
		t.Error("IsName mismatch")
	}
}
