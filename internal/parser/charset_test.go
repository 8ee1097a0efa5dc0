package parser

import (
	"io"
	"strings"
	"testing"
)

func TestNewUTF8Reader(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		input       string
		contentType string
		want        string
	}{
		{
			name:  "already utf-8",
			input: "<html><body>Clip ☺</body></html>",
			want:  "Clip ☺",
		},
		{
			name:  "meta charset latin-1",
			input: `<html><head><meta charset="ISO-8859-1"></head><body>Caf` + "\xe9" + `</body></html>`,
			want:  "Café",
		},
		{
			name:  "meta charset windows-1252",
			input: `<html><head><meta charset="windows-1252"></head><body>Brand` + "\x99" + `</body></html>`,
			want:  "Brand™",
		},
		{
			name:  "http-equiv",
			input: `<html><head><meta http-equiv="Content-Type" content="text/html; charset=ISO-8859-1"></head><body>Ni` + "\xf1" + `o</body></html>`,
			want:  "Niño",
		},
		{
			name:        "content-type header wins",
			input:       "<html><body>Gar\xe7on</body></html>",
			contentType: "text/html; charset=iso-8859-1",
			want:        "Garçon",
		},
		{
			name:  "no declaration",
			input: "<html><body>Hello World</body></html>",
			want:  "Hello World",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reader, err := NewUTF8Reader(strings.NewReader(tt.input), tt.contentType)
			if err != nil {
				t.Fatalf("NewUTF8Reader: %v", err)
			}
			out, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !strings.Contains(string(out), tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
		})
	}
}
