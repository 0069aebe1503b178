// Package speech converts question text to MP3 audio through the Google
// Translate text-to-speech endpoint.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kalambet/mocktalk/internal/metrics"
)

const (
	DefaultBaseURL = "https://translate.google.com"
	DefaultLang    = "en"

	// maxChunk is the longest text the endpoint accepts per request.
	maxChunk       = 100
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; mocktalk)"
)

// Client synthesizes speech. It is safe for concurrent use.
type Client struct {
	baseURL    string
	lang       string
	httpClient *http.Client
}

// NewClient returns a client for lang against the public endpoint.
func NewClient(lang string) *Client {
	if lang == "" {
		lang = DefaultLang
	}
	return &Client{
		baseURL:    DefaultBaseURL,
		lang:       lang,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(lang, baseURL string) *Client {
	c := NewClient(lang)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Synthesize returns MP3 bytes for text. Blank text yields nil audio and a
// nil error.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := Chunks(text, maxChunk)
	if len(chunks) == 0 {
		metrics.ObserveSpeech(metrics.OutcomeEmpty)
		return nil, nil
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := c.fetch(ctx, &audio, chunk, i, len(chunks)); err != nil {
			metrics.ObserveSpeech(metrics.OutcomeError)
			return nil, fmt.Errorf("synthesizing chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	metrics.ObserveSpeech(metrics.OutcomeOK)
	return audio.Bytes(), nil
}

func (c *Client) fetch(ctx context.Context, w io.Writer, chunk string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", c.lang)
	q.Set("client", "tw-ob")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("reading audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("empty audio response")
	}
	return nil
}

// Chunks splits text into pieces of at most limit runes, breaking on
// whitespace where possible. Words longer than limit are cut.
func Chunks(text string, limit int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			r := []rune(word)
			out = append(out, string(r[:limit]))
			word = string(r[limit:])
		}
		wl := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+wl > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += wl
	}
	flush()
	return out
}
