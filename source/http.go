package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/meigma/pak/internal/paktype"
)

// HTTP implements random access reads of a remote package via HTTP range requests.
type HTTP struct {
	url                   string
	client                *nethttp.Client
	headers               nethttp.Header
	size                  int64
	etag                  string
	lastModified          string
	sourceID              string
	useConditionalHeaders bool
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) HTTPOption {
	return func(s *HTTP) {
		s.client = client
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTP) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithConditionalHeaders makes range reads conditional on the ETag or
// Last-Modified value seen at open, so a package replaced mid-read fails
// instead of mixing two versions.
func WithConditionalHeaders() HTTPOption {
	return func(s *HTTP) {
		s.useConditionalHeaders = true
	}
}

// OpenHTTP creates a Source backed by HTTP range requests.
// It probes the remote to determine the content size.
func OpenHTTP(url string, opts ...HTTPOption) (*HTTP, error) {
	s := &HTTP{
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	size, etag, lastModified, err := s.rangeProbe()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	s.size = size
	s.etag = etag
	s.lastModified = lastModified
	s.sourceID = s.defaultSourceID()
	return s, nil
}

// Size returns the total size of the remote content.
func (s *HTTP) Size() int64 {
	return s.size
}

// SourceID returns a stable identifier for the remote content.
func (s *HTTP) SourceID() string {
	return s.sourceID
}

// ReadAt reads len(p) bytes at off with a single range request.
// If fewer bytes are available than requested, it returns the count read and io.EOF.
func (s *HTTP) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	expected := len(p)
	if end >= s.size {
		end = s.size - 1
		expected = int(end - off + 1)
	}

	resp, err := s.rangeRequest(off, end, true)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode == nethttp.StatusPreconditionFailed && s.hasConditionalHeaders() {
		resp.Body.Close()
		return 0, fmt.Errorf("read at %d: remote content changed: %w", off, paktype.ErrFileRead)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusOK:
		return 0, errors.New("range requests not supported")
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// HTTPOpener opens sibling packages relative to the primary URL.
type HTTPOpener struct {
	opts []HTTPOption
}

// NewHTTPOpener returns an Opener that applies opts to every sibling it opens.
func NewHTTPOpener(opts ...HTTPOption) *HTTPOpener {
	return &HTTPOpener{opts: opts}
}

// Open implements Opener.
func (o *HTTPOpener) Open(name string) (Source, error) {
	return OpenHTTP(name, o.opts...)
}

func (s *HTTP) defaultSourceID() string {
	if s.etag != "" {
		return fmt.Sprintf("url:%s|etag:%s", s.url, s.etag)
	}
	if s.lastModified != "" {
		return fmt.Sprintf("url:%s|mod:%s|size:%d", s.url, s.lastModified, s.size)
	}
	return fmt.Sprintf("url:%s|size:%d", s.url, s.size)
}

// rangeProbe verifies range request support and extracts content size from Content-Range.
func (s *HTTP) rangeProbe() (size int64, etag, lastModified string, err error) {
	req, err := s.newRequest(false)
	if err != nil {
		return 0, "", "", err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusNotFound, nethttp.StatusGone:
		return 0, "", "", fmt.Errorf("range probe: %s: %w", resp.Status, paktype.ErrNotFound)
	case nethttp.StatusRequestedRangeNotSatisfiable:
		// Empty remote file.
		return 0, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
	case nethttp.StatusOK:
		return 0, "", "", errors.New("range requests not supported")
	default:
		return 0, "", "", fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return 0, "", "", errors.New("range probe missing Content-Range")
	}
	size, err = parseContentRange(crange)
	if err != nil {
		return 0, "", "", err
	}
	return size, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

func (s *HTTP) newRequest(withConditions bool) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(context.Background(), nethttp.MethodGet, s.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if withConditions && s.useConditionalHeaders {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return req, nil
}

func (s *HTTP) rangeRequest(off, end int64, withConditions bool) (*nethttp.Response, error) {
	req, err := s.newRequest(withConditions)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))
	return s.client.Do(req)
}

func (s *HTTP) hasConditionalHeaders() bool {
	if !s.useConditionalHeaders {
		return false
	}
	return s.etag != "" || s.lastModified != ""
}

// parseContentRange extracts the total size from a "bytes start-end/size" header value.
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "bytes ") {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	parts := strings.SplitN(strings.TrimPrefix(value, "bytes "), "/", 2)
	if len(parts) != 2 || parts[1] == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
