package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type funcLoader func(ctx context.Context, file GraphFile) ([]byte, error)

func (f funcLoader) GetFileText(ctx context.Context, file GraphFile) ([]byte, error) {
	return f(ctx, file)
}

func TestGetText(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
		wantErr bool
	}{
		{name: "plain", content: []byte("张三"), want: "张三"},
		{name: "bom", content: append([]byte{0xEF, 0xBB, 0xBF}, []byte("李四")...), want: "李四"},
		{name: "invalid utf8", content: []byte{0xff, 0xfe, 0x00}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := GraphFile{FilePath: "x.txt", Loader: funcLoader(func(context.Context, GraphFile) ([]byte, error) {
				return tt.content, nil
			})}
			got, err := f.GetText(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetText returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetTextWithoutLoader(t *testing.T) {
	f := GraphFile{FilePath: "x.txt"}
	if _, err := f.GetText(context.Background()); err == nil {
		t.Fatal("expected error without loader")
	}
}

func TestCheckFormat(t *testing.T) {
	for _, p := range []string{"a.txt", "dir/B.MD", "c.docx"} {
		if err := CheckFormat(p); err != nil {
			t.Fatalf("CheckFormat(%q) returned %v", p, err)
		}
	}
	for _, p := range []string{"a.pdf", "noext", "c.doc"} {
		if err := CheckFormat(p); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("CheckFormat(%q) = %v, want ErrUnsupportedFormat", p, err)
		}
	}
}

func TestGraphFileName(t *testing.T) {
	f := GraphFile{FilePath: "uploads/2024/案件.docx"}
	if f.Name() != "案件.docx" || f.Format() != "docx" {
		t.Fatalf("unexpected name/format %q %q", f.Name(), f.Format())
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	file := GraphFile{ID: "1", FilePath: "a.txt"}
	load := func() ([]byte, error) {
		calls.Add(1)
		return []byte("内容"), nil
	}

	for range 3 {
		b, err := c.Load(file, load)
		if err != nil || string(b) != "内容" {
			t.Fatalf("unexpected load result %q %v", b, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 load, got %d", calls.Load())
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	c := NewCache()
	file := GraphFile{ID: "1", FilePath: "a.txt"}
	boom := errors.New("boom")

	if _, err := c.Load(file, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	b, err := c.Load(file, func() ([]byte, error) { return []byte("ok"), nil })
	if err != nil || string(b) != "ok" {
		t.Fatalf("expected retry to succeed, got %q %v", b, err)
	}
}
