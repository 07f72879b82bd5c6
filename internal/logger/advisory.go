package logger

import (
	"io"
	"log"
	"strings"
	"sync"

	"tradepilot/internal/pkg/jsonutil"
)

// Separate log stream for raw advisory backend traffic. Prompts and raw
// replies are too long for the main log but are the first thing needed
// when a backend starts returning garbage.

var (
	advMu  sync.Mutex
	advLog *log.Logger
)

func SetAdvisoryWriter(w io.Writer) {
	advMu.Lock()
	defer advMu.Unlock()
	if w == nil {
		advLog = nil
		return
	}
	advLog = log.New(w, "", log.LstdFlags)
}

type advisorySection struct {
	title string
	body  string
}

func logAdvisory(kind, backend, symbol string, sections []advisorySection) {
	advMu.Lock()
	sink := advLog
	advMu.Unlock()
	if sink == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[ADVISORY][" + kind + "]")
	if backend != "" {
		b.WriteString("[" + backend + "]")
	}
	if symbol != "" {
		b.WriteString("[" + symbol + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		title := strings.TrimSpace(sec.title)
		if title == "" {
			title = "CONTENT"
		}
		b.WriteString("--- " + title + " ---\n")
		b.WriteString(sec.body)
		if !strings.HasSuffix(sec.body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	sink.Print(b.String())
}

func LogAdvisoryRequest(backend, symbol, systemPrompt, userPrompt string) {
	logAdvisory("request", backend, symbol, []advisorySection{
		{title: "SYSTEM", body: systemPrompt},
		{title: "USER", body: userPrompt},
	})
}

// LogAdvisoryResponse dumps a backend reply. Replies that are pure JSON get
// re-indented so the dump stays readable; anything else is written verbatim.
func LogAdvisoryResponse(backend, symbol, raw string) {
	logAdvisory("response", backend, symbol, []advisorySection{
		{title: "RAW", body: jsonutil.Pretty(raw)},
	})
}
