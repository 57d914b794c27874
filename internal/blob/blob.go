// Package blob provides the opaque handle product images travel in between
// the storefront and the backend.
package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
)

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent int)

// Fetcher downloads the content behind a direct URL.
type Fetcher interface {
	FetchBlob(ctx context.Context, url string) ([]byte, error)
}

// ErrNoContent is returned by Bytes for a URL-backed handle without a Fetcher.
var ErrNoContent = errors.New("blob has no local content")

// External is either local bytes awaiting upload or a reference to stored
// content by URL. Handles are immutable; With* methods return copies.
type External struct {
	url         string
	data        []byte
	contentType string
	progress    ProgressFunc
}

// FromURL references already stored content.
func FromURL(url string) *External {
	return &External{url: url}
}

// FromBytes wraps local content. An empty content type is sniffed.
func FromBytes(data []byte, contentType string) *External {
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	return &External{data: data, contentType: contentType}
}

func (b *External) WithUploadProgress(fn ProgressFunc) *External {
	clone := *b
	clone.progress = fn
	return &clone
}

// WithURL records where the content was stored after an upload.
func (b *External) WithURL(url string) *External {
	clone := *b
	clone.url = url
	return &clone
}

func (b *External) DirectURL() string { return b.url }

func (b *External) ContentType() string { return b.contentType }

func (b *External) Size() int { return len(b.data) }

// Local reports whether the handle carries bytes that still need uploading.
func (b *External) Local() bool { return len(b.data) > 0 }

// Bytes returns the content, downloading it through f when the handle only
// carries a URL.
func (b *External) Bytes(ctx context.Context, f Fetcher) ([]byte, error) {
	if b.Local() {
		return b.data, nil
	}
	if b.url == "" || f == nil {
		return nil, ErrNoContent
	}
	return f.FetchBlob(ctx, b.url)
}

// UploadReader streams the local content and reports progress as it is read.
func (b *External) UploadReader() io.Reader {
	r := bytes.NewReader(b.data)
	if b.progress == nil {
		return r
	}
	return &progressReader{r: r, total: int64(len(b.data)), report: b.progress, last: -1}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc

	mu   sync.Mutex
	last int
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	pct := 100
	if p.total > 0 {
		pct = int(p.read * 100 / p.total)
	}
	p.mu.Lock()
	if pct != p.last {
		p.last = pct
		p.mu.Unlock()
		p.report(pct)
	} else {
		p.mu.Unlock()
	}
	return n, err
}
