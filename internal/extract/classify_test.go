package extract

import (
	"testing"

	"github.com/RakhmaMed/Downloader-Bot/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		raw         string
		wantCat     domain.ErrorCategory
		wantDisplay string
	}{
		{
			name:        "bot check",
			raw:         "ERROR: Sign in to confirm you're not a bot",
			wantCat:     domain.CategorySignIn,
			wantDisplay: "Content requires sign-in or is private.",
		},
		{
			name:        "lowercase",
			raw:         "please sign in to view this content",
			wantCat:     domain.CategorySignIn,
			wantDisplay: "Content requires sign-in or is private.",
		},
		{
			name:        "mixed case",
			raw:         "SIGN IN required",
			wantCat:     domain.CategorySignIn,
			wantDisplay: "Content requires sign-in or is private.",
		},
		{
			name:        "generic passes through verbatim",
			raw:         "ERROR: Video unavailable",
			wantCat:     domain.CategoryGeneric,
			wantDisplay: "ERROR: Video unavailable",
		},
		{
			name:        "empty",
			raw:         "",
			wantCat:     domain.CategoryGeneric,
			wantDisplay: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat, display := Classify(tc.raw)
			if cat != tc.wantCat {
				t.Fatalf("category = %q, want %q", cat, tc.wantCat)
			}
			if display != tc.wantDisplay {
				t.Fatalf("display = %q, want %q", display, tc.wantDisplay)
			}
		})
	}
}
