package mathjax

import (
	"errors"
	"testing"
)

func TestEncodeOptions(t *testing.T) {
	tests := []struct {
		name string
		in   []Option
		want string
	}{
		{"empty", nil, "{}"},
		{"ordered", []Option{{"display", "true"}, {"em", "'20'"}, {"scale", "1.5"}}, "{display:true,em:'20',scale:1.5}"},
		{"nested literal", []Option{{"format", "{inline:false}"}}, "{format:{inline:false}}"},
		{"last wins", []Option{{"em", "10"}, {"scale", "2"}, {"em", "12"}}, "{em:12,scale:2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeOptions(tt.in); got != tt.want {
				t.Fatalf("EncodeOptions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptionsPairsQuoteStrings(t *testing.T) {
	o := Options{Display: Bool(true), Em: 18, Scale: 1.25, Family: `Times "New" Roman`}
	got := EncodeOptions(o.Pairs())
	want := `{display:true,em:18,scale:1.25,family:"Times \"New\" Roman"}`
	if got != want {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
	if got := EncodeOptions(Options{}.Pairs()); got != "{}" {
		t.Fatalf("zero options encoded = %s", got)
	}
}

func TestRequestRawOverridesTyped(t *testing.T) {
	req := Request{Options: Options{Em: 16}, Raw: []Option{NumberOption("em", 24)}}
	got, err := req.EncodedOptions()
	if err != nil {
		t.Fatalf("EncodedOptions() error = %v", err)
	}
	if got != "{em:24}" {
		t.Fatalf("EncodedOptions() = %s", got)
	}
}

func TestRequestRejectsBadOptions(t *testing.T) {
	for _, o := range []Option{{Name: "", Value: "1"}, {Name: "1em", Value: "1"}, {Name: "em", Value: " "}} {
		req := Request{Raw: []Option{o}}
		if _, err := req.EncodedOptions(); !errors.Is(err, ErrInvalidOption) {
			t.Fatalf("option %+v: expected ErrInvalidOption, got %v", o, err)
		}
	}
}
