package model

import "testing"

func TestNormalizeBrandKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme", "acme"},
		{"  ACME  ", "acme"},
		{"acme", "acme"},
		{"Straße", "strasse"},
		{"HubSpot CRM", "hubspot crm"},
	}
	for _, tc := range cases {
		if got := NormalizeBrandKey(tc.in); got != tc.want {
			t.Errorf("NormalizeBrandKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeBrandKeyMatchesAcrossCase(t *testing.T) {
	if NormalizeBrandKey("OpenAI") != NormalizeBrandKey("openai") {
		t.Error("keys for same brand in different case must match")
	}
}
