package modules

import (
	"strings"
	"testing"
)

func TestTagsPrintMarkers(t *testing.T) {
	testCases := []struct {
		name string
		tags []tag
		want string
	}{
		{
			name: "focused bracketed",
			tags: []tag{
				{Num: 1, Name: "1", Focused: true},
				{Num: 2, Name: "2"},
				{Num: 3, Name: "3"},
			},
			want: "[1] 2 3",
		},
		{
			name: "visible on other output",
			tags: []tag{
				{Num: 1, Name: "1", Focused: true},
				{Num: 2, Name: "2", Visible: true},
			},
			want: "[1] (2)",
		},
		{
			name: "urgent marker wins over visible",
			tags: []tag{
				{Num: 1, Name: "1", Focused: true},
				{Num: 2, Name: "2", Urgent: true, Visible: true},
			},
			want: "[1] !2",
		},
		{
			name: "named workspaces",
			tags: []tag{
				{Num: -1, Name: "mail"},
				{Num: 1, Name: "1", Focused: true},
			},
			want: "mail [1]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tags := &Tags{tags: tc.tags}

			var sb strings.Builder
			if err := tags.Print(&sb); err != nil {
				t.Fatalf("Print failed: %v", err)
			}
			if got := sb.String(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTagsControlIgnoresOtherMessages(t *testing.T) {
	tags := &Tags{}
	if tags.Control("refresh") {
		t.Error("tags must not claim battery messages")
	}
}
