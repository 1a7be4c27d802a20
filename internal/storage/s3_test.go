package storage

import "testing"

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, id, name string
		want             string
	}{
		{"graphs/case1", "abc", "起诉书.docx", "graphs/case1/abc/起诉书.docx"},
		{"graphs/case1/", "abc", "dir/notes.md", "graphs/case1/abc/notes.md"},
		{"graphs/case1", "abc", "../../etc/passwd", "graphs/case1/abc/passwd"},
	}

	for _, tt := range tests {
		if got := ObjectKey(tt.prefix, tt.id, tt.name); got != tt.want {
			t.Fatalf("ObjectKey(%q, %q, %q) = %q, want %q", tt.prefix, tt.id, tt.name, got, tt.want)
		}
	}
}
