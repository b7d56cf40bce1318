package soup

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

// Transport sets the user agent of outgoing requests and serves documents
// from Cache once they have been fetched successfully. Retries are left to
// the caller.
type Transport struct {
	Base      http.RoundTripper
	Cache     *FileCache
	UserAgent string
	Log       *zap.Logger
}

// FileCache stores raw responses below Dir, one file per method and URL.
type FileCache struct{ Dir string }

var unsafeFileNameChars = regexp.MustCompile(`[^-_0-9a-zA-Z]+`)

func (t Transport) Client() *http.Client {
	if t.Base == nil {
		t.Base = http.DefaultTransport
	}
	if t.Log == nil {
		t.Log = zap.NewNop()
	}
	t.Log = t.Log.Named("http")
	return &http.Client{Transport: &t}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	cacheable := t.Cache != nil && (req.Method == http.MethodGet || req.Method == http.MethodHead)
	if cacheable {
		if res, err := t.Cache.Load(req); err != nil || res != nil {
			t.Log.Debug("cache hit", zap.String("url", req.URL.String()), zap.Error(err))
			return res, err
		}
	}
	if t.UserAgent != "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}
	res, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.Log.Debug("fetched", zap.String("url", req.URL.String()), zap.Int("status", res.StatusCode))
	if cacheable && res.StatusCode >= 200 && res.StatusCode < 300 {
		if err := t.Cache.Store(req, res); err != nil {
			t.Log.Warn("failed to cache response", zap.String("url", req.URL.String()), zap.Error(err))
		}
	}
	return res, nil
}

func (c *FileCache) path(req *http.Request) string {
	name := unsafeFileNameChars.ReplaceAllString(req.URL.Host+req.URL.Path, "_")
	if len(name) > 40 {
		name = name[:40]
	}
	hash := sha1.Sum([]byte(req.Method + " " + req.URL.String()))
	return filepath.Join(c.Dir, name+"_"+hex.EncodeToString(hash[:]))
}

// Load returns the cached response for req, or nil if there is none.
func (c *FileCache) Load(req *http.Request) (*http.Response, error) {
	bs, err := os.ReadFile(c.path(req))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(bs)), req)
}

// Store writes res to the cache. The body of res is buffered and stays
// readable.
func (c *FileCache) Store(req *http.Request, res *http.Response) error {
	bs, err := httputil.DumpResponse(res, true)
	if err != nil {
		return err
	} else if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(c.path(req), bs, 0644)
}
