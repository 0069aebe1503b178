package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeTextPlain(t *testing.T) {
	got, err := ResumeText("cv.txt", []byte("Jane Doe\r\n\r\n  Senior   Go engineer \n\nKubernetes, Postgres\n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Go engineer\nKubernetes, Postgres", got)
}

func TestResumeTextRejects(t *testing.T) {
	_, err := ResumeText("cv.txt", []byte(" \n\t"))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = ResumeText("photo.jpg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ResumeText("cv.pdf", []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}

func TestResumeTextTruncates(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < MaxResumeWords+500; i++ {
		fmt.Fprintf(&sb, "word%d", i)
		if i%10 == 9 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	got, err := ResumeText("cv.txt", []byte(sb.String()))
	require.NoError(t, err)
	assert.Len(t, strings.Fields(got), MaxResumeWords)
	assert.True(t, strings.HasSuffix(got, "word2999..."), "got suffix %q", got[len(got)-20:])
	assert.Contains(t, got, "word9\nword10 ")

	long := strings.Repeat("é", MaxResumeTextSize)
	got, err = ResumeText("cv.txt", []byte(long))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), MaxResumeTextSize+len("..."))
	assert.True(t, utf8.ValidString(got))
}

func TestPageText(t *testing.T) {
	page := `<html><head><title>Job</title><style>body{}</style><script>var x=1;</script></head>
<body><header>Site menu</header><nav>Home | Jobs</nav>
<main><h1>Backend Engineer</h1><p>Build   APIs in <b>Go</b>.</p><ul><li>5+ years</li></ul></main>
<footer>Copyright</footer></body></html>`

	got, err := PageText([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Job Backend Engineer Build APIs in Go . 5+ years", got)
}

func TestFetchPosting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<body><p>Platform team</p><script>track()</script></body>`)
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "Own the   <billing> service")
		case "/long":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, strings.Repeat("word ", maxPostingWords+10))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	got, err := FetchPosting(ctx, srv.Client(), srv.URL+"/html")
	require.NoError(t, err)
	assert.Equal(t, "Platform team", got)

	got, err = FetchPosting(ctx, srv.Client(), srv.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "Own the <billing> service", got)

	got, err = FetchPosting(ctx, srv.Client(), srv.URL+"/long")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, strings.Fields(got), maxPostingWords)

	_, err = FetchPosting(ctx, srv.Client(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	_, err = FetchPosting(ctx, srv.Client(), "ftp://example.com/job")
	assert.ErrorContains(t, err, "invalid url")
}
