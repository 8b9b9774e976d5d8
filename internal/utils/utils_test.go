package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestShowError(t *testing.T) {
	var buf bytes.Buffer
	ShowError(&buf, "Failed to load catalog", errors.New("no such file"))

	out := buf.String()
	if !strings.Contains(out, "FARGO ERROR: Failed to load catalog") {
		t.Errorf("missing context line in %q", out)
	}
	if !strings.Contains(out, "DETAILS: no such file") {
		t.Errorf("missing details line in %q", out)
	}

	buf.Reset()
	ShowError(&buf, "Interrupted", nil)
	if strings.Contains(buf.String(), "DETAILS") {
		t.Errorf("nil error should not print details: %q", buf.String())
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []int
		wantErr bool
	}{
		{name: "plain", in: []string{"26", "27"}, want: []int{26, 27}},
		{name: "padded and comma separated", in: []string{"026,071", " 3 "}, want: []int{26, 71, 3}},
		{name: "empty items", in: []string{",,"}, want: nil},
		{name: "not a number", in: []string{"abc"}, wantErr: true},
		{name: "zero", in: []string{"0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDs(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDs(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseIDs(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseIDs(%v)[%d] = %d, want %d", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList([]string{"dev,eval", " world ", ""})
	want := []string{"dev", "eval", "world"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
}
