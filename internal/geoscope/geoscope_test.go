package geoscope

import "testing"

func TestDetect(t *testing.T) {
	detector := New()

	tests := []struct {
		name             string
		text             string
		expectedScope    Scope
		expectedLocation string
	}{
		{
			name:             "Global keyword",
			text:             "Elevated errors affecting customers globally",
			expectedScope:    Global,
			expectedLocation: "globally",
		},
		{
			name:             "All regions",
			text:             "API unavailable in all regions",
			expectedScope:    Global,
			expectedLocation: "all regions",
		},
		{
			name:             "Cloud region code",
			text:             "Increased latency in US-EAST-1",
			expectedScope:    Regional,
			expectedLocation: "us-east-1",
		},
		{
			name:             "Continent",
			text:             "Degraded performance for customers in Europe",
			expectedScope:    Regional,
			expectedLocation: "Europe",
		},
		{
			name:             "Global wins over regional",
			text:             "Started in eu-west-1, now worldwide",
			expectedScope:    Global,
			expectedLocation: "worldwide",
		},
		{
			name:             "City",
			text:             "Network issues in our Frankfurt data center",
			expectedScope:    Local,
			expectedLocation: "Frankfurt",
		},
		{
			name:             "First city mentioned",
			text:             "Traffic rerouted from Tokyo to Singapore",
			expectedScope:    Local,
			expectedLocation: "Tokyo",
		},
		{
			name:             "City must be a whole word",
			text:             "Parisian cafe reports slow wifi",
			expectedScope:    Local,
			expectedLocation: "",
		},
		{
			name:             "No location",
			text:             "Investigating login failures",
			expectedScope:    Local,
			expectedLocation: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detector.Detect(tt.text)
			if result.Scope != tt.expectedScope {
				t.Errorf("Expected scope %s, got %s", tt.expectedScope, result.Scope)
			}
			if result.Location != tt.expectedLocation {
				t.Errorf("Expected location %q, got %q", tt.expectedLocation, result.Location)
			}
		})
	}
}

func TestScopeValid(t *testing.T) {
	for _, s := range []Scope{Global, Regional, Local} {
		if !s.Valid() {
			t.Errorf("Expected %s to be valid", s)
		}
	}
	if Scope("galactic").Valid() {
		t.Error("Expected unknown scope to be invalid")
	}
}
