package symbol

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Name is the result of a display-name lookup. An unresolved Name carries the
// code it was asked for so callers can still show something.
type Name struct {
	Value    string
	Resolved bool
}

// Unresolved returns the fallback Name for code.
func Unresolved(code string) Name {
	return Name{Value: code}
}

// Or returns the resolved name, or fallback when the lookup failed.
func (n Name) Or(fallback string) string {
	if n.Resolved {
		return n.Value
	}
	return fallback
}

func (n Name) String() string { return n.Value }

// NameLookup resolves a stock code to its short display name.
type NameLookup interface {
	LookupName(ctx context.Context, code string) Name
}

// TencentNameLookup reads names from the Tencent real-time quote endpoint,
// which answers in GBK: v_sh600519="1~贵州茅台~600519~...";
type TencentNameLookup struct {
	BaseURL string
	Client  *http.Client
}

// NewTencentNameLookup creates a lookup with optional proxy support.
func NewTencentNameLookup(proxyURL string) *TencentNameLookup {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TencentNameLookup{
		BaseURL: "https://qt.gtimg.cn",
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

func (l *TencentNameLookup) LookupName(ctx context.Context, code string) Name {
	code = Canonical(code)
	name, err := l.fetch(ctx, code)
	if err != nil {
		log.Printf("[WARN] Name lookup for %s failed: %v", code, err)
		return Unresolved(code)
	}
	return name
}

func (l *TencentNameLookup) fetch(ctx context.Context, code string) (Name, error) {
	if !IsValidCode(code) {
		return Unresolved(code), fmt.Errorf("invalid code")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"/q="+url.QueryEscape(code), nil)
	if err != nil {
		return Unresolved(code), err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return Unresolved(code), fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Unresolved(code), fmt.Errorf("status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	for scanner.Scan() {
		if name, ok := parseQuoteName(scanner.Text()); ok {
			return Name{Value: name, Resolved: true}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Unresolved(code), fmt.Errorf("read body: %w", err)
	}
	return Unresolved(code), fmt.Errorf("no quote returned")
}

// parseQuoteName extracts the second "~" field of a quote line.
func parseQuoteName(line string) (string, bool) {
	start := strings.Index(line, `="`)
	if start < 0 {
		return "", false
	}
	body := strings.TrimSuffix(strings.TrimSpace(line[start+2:]), ";")
	body = strings.TrimSuffix(body, `"`)
	fields := strings.Split(body, "~")
	if len(fields) < 3 {
		return "", false
	}
	name := strings.TrimSpace(fields[1])
	return name, name != ""
}

// StaticNameLookup serves names from a fixed table keyed by canonical code.
type StaticNameLookup map[string]string

func (s StaticNameLookup) LookupName(_ context.Context, code string) Name {
	code = Canonical(code)
	if name, ok := s[code]; ok && name != "" {
		return Name{Value: name, Resolved: true}
	}
	return Unresolved(code)
}

// CachedNameLookup remembers resolved names. Failures are retried on the next call.
type CachedNameLookup struct {
	next  NameLookup
	mu    sync.Mutex
	names map[string]string
}

func NewCachedNameLookup(next NameLookup) *CachedNameLookup {
	return &CachedNameLookup{next: next, names: make(map[string]string)}
}

func (c *CachedNameLookup) LookupName(ctx context.Context, code string) Name {
	code = Canonical(code)
	c.mu.Lock()
	name, ok := c.names[code]
	c.mu.Unlock()
	if ok {
		return Name{Value: name, Resolved: true}
	}

	n := c.next.LookupName(ctx, code)
	if n.Resolved {
		c.mu.Lock()
		c.names[code] = n.Value
		c.mu.Unlock()
	}
	return n
}
