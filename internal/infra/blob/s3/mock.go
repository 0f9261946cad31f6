package s3

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const metaHeaderPrefix = "X-Amz-Meta-"

// FakeTransport is an in-memory http.RoundTripper speaking the subset of the
// S3 REST API the Store uses (path-style Head, Get, Put, Delete and
// ListObjectsV2). It lets the real SDK client run without network access.
type FakeTransport struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	// PageSize bounds ListObjectsV2 pages; zero returns everything at once.
	PageSize int
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    http.Header
	modified    time.Time
}

// NewFakeTransport returns an empty fake bucket.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{objects: make(map[string]fakeObject)}
}

// NewMockForTests returns a Store wired to a fresh FakeTransport.
func NewMockForTests(ctx context.Context) (*Store, *FakeTransport, error) {
	rt := NewFakeTransport()
	store, err := New(ctx, Config{
		Region:          defaultRegion,
		Bucket:          "mock-bucket",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: rt},
	})
	if err != nil {
		return nil, nil, err
	}
	return store, rt, nil
}

// Keys returns the stored object keys in order.
func (m *FakeTransport) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *FakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	query := req.URL.Query()
	if req.Method == http.MethodGet && query.Get("list-type") == "2" {
		return m.list(query.Get("prefix"), query.Get("continuation-token")), nil
	}
	switch req.Method {
	case http.MethodHead:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		return respond(http.StatusOK, obj.headers(), nil), nil
	case http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			body := []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return respond(http.StatusNotFound, http.Header{"Content-Type": {"application/xml"}}, body), nil
		}
		return respond(http.StatusOK, obj.headers(), obj.body), nil
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			if decoded, ok := decodeChunked(body); ok {
				body = decoded
			}
		}
		meta := http.Header{}
		for name, values := range req.Header {
			if strings.HasPrefix(http.CanonicalHeaderKey(name), metaHeaderPrefix) {
				meta[http.CanonicalHeaderKey(name)] = values
			}
		}
		m.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), metadata: meta, modified: time.Now().UTC()}
		return respond(http.StatusOK, http.Header{"ETag": {`"etag"`}}, nil), nil
	case http.MethodDelete:
		delete(m.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func (m *FakeTransport) list(prefix, token string) *http.Response {
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > token {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	truncated := m.PageSize > 0 && len(keys) > m.PageSize
	if truncated {
		keys = keys[:m.PageSize]
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult>`)
	fmt.Fprintf(&b, "<IsTruncated>%t</IsTruncated>", truncated)
	if truncated {
		fmt.Fprintf(&b, "<NextContinuationToken>%s</NextContinuationToken>", html.EscapeString(keys[len(keys)-1]))
	}
	for _, k := range keys {
		obj := m.objects[k]
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><ETag>&quot;etag&quot;</ETag><LastModified>%s</LastModified></Contents>",
			html.EscapeString(k), len(obj.body), obj.modified.Format(time.RFC3339))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(b.String()))
}

func (o fakeObject) headers() http.Header {
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(o.body))},
		"Content-Type":   {o.contentType},
		"ETag":           {`"etag"`},
		"Last-Modified":  {o.modified.Format(http.TimeFormat)},
	}
	for k, v := range o.metadata {
		h[k] = v
	}
	return h
}

func respond(status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// decodeChunked strips aws-chunked framing: repeated "<hex size>[;ext]\r\n<data>\r\n"
// chunks ended by a zero-size chunk and optional trailers.
func decodeChunked(b []byte) ([]byte, bool) {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, false
		}
		sizeField := strings.TrimSpace(line)
		if i := strings.IndexByte(sizeField, ';'); i >= 0 {
			sizeField = sizeField[:i]
		}
		size, err := strconv.ParseInt(sizeField, 16, 64)
		if err != nil {
			return nil, false
		}
		if size == 0 {
			return out.Bytes(), true
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return nil, false
		}
		if _, err := r.Discard(2); err != nil {
			return nil, false
		}
	}
}
