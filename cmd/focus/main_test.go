package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectItemLookupArgs(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "plain item id",
			in:   []string{"focus", "item-abc123"},
			want: []string{"focus", "items", "show", "item-abc123"},
		},
		{
			name: "item id after persistent flags",
			in:   []string{"focus", "--dir", "/tmp/x", "item-abc123"},
			want: []string{"focus", "--dir", "/tmp/x", "items", "show", "item-abc123"},
		},
		{
			name: "bool flag then id",
			in:   []string{"focus", "--pretty", "item-abc123"},
			want: []string{"focus", "--pretty", "items", "show", "item-abc123"},
		},
		{
			name: "subcommand untouched",
			in:   []string{"focus", "items", "list"},
			want: []string{"focus", "items", "list"},
		},
		{
			name: "no args",
			in:   []string{"focus"},
			want: []string{"focus"},
		},
		{
			name: "after double dash",
			in:   []string{"focus", "--", "item-abc123"},
			want: []string{"focus", "--", "items", "show", "item-abc123"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rewriteDirectItemLookupArgs(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
