// Package email extracts text from .eml/.msg files. No pack library covers
// RFC 822/MSG parsing end-to-end (see DESIGN.md); headers are parsed with
// stdlib net/mail and the body is reply-quote-stripped to its visible
// portion, then headers + body are concatenated per spec §4.2.
package email

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// Extractor implements extract.SubExtractor for .eml/.msg files.
type Extractor struct{}

var replyQuoteRe = regexp.MustCompile(`(?i)^On .* wrote:\s*$`)

// Extract implements extract.SubExtractor.
func (Extractor) Extract(ctx context.Context, data []byte, filename string) (*docmodel.Document, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return fallback(err, time.Since(start)), nil
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return fallback(err, time.Since(start)), nil
	}

	header := strings.Join([]string{
		"From: " + msg.Header.Get("From"),
		"To: " + msg.Header.Get("To"),
		"Subject: " + msg.Header.Get("Subject"),
		"Date: " + msg.Header.Get("Date"),
	}, "\n")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return fallback(err, time.Since(start)), nil
	}
	body := visibleBody(string(bodyBytes))

	full := header + "\n\n" + body

	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{full},
		FullText:       full,
		ExtractionTime: time.Since(start),
		Library:        "stdlib net/mail",
		Method:         "native",
	}, nil
}

// visibleBody drops quoted-reply lines (leading '>' or an "On ... wrote:"
// attribution line and everything after it).
func visibleBody(body string) string {
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []string
	for scanner.Scan() {
		line := scanner.Text()
		if replyQuoteRe.MatchString(strings.TrimSpace(line)) {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func fallback(err error, elapsed time.Duration) *docmodel.Document {
	text := "[Email extraction failed: " + eris.Wrap(err, "email").Error() + "]"
	return &docmodel.Document{
		TotalPages:     1,
		PageTexts:      []string{text},
		FullText:       text,
		ExtractionTime: elapsed,
		Method:         "fallback",
	}
}
