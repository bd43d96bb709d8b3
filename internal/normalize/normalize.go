// Package normalize repairs message headers that some mail clients and
// archive exporters emit in forms Gmail misrenders or rejects.
package normalize

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/textproto"
)

const (
	quotedPrintableType = "text/quoted-printable"
	plainType           = "text/plain"
)

// Options selects which rewrites run. Both are on by default and can be
// disabled independently from the CLI.
type Options struct {
	FixMessageID           bool
	ReplaceQuotedPrintable bool
}

// Change records one applied header rewrite for the caller to log.
type Change struct {
	Header string
	Old    string
	New    string
}

// Message applies the enabled rewrites to a raw RFC-822 message and returns
// the result. Headers other than the rewritten ones keep their original
// bytes. If the header block cannot be parsed, raw is returned unchanged
// along with the parse error; the message is still uploadable as-is.
func Message(raw []byte, opts Options) ([]byte, []Change, error) {
	if !opts.FixMessageID && !opts.ReplaceQuotedPrintable {
		return raw, nil, nil
	}
	br := bufio.NewReader(bytes.NewReader(raw))
	hdr, err := textproto.ReadHeader(br)
	if err != nil {
		return raw, nil, fmt.Errorf("parse header block: %w", err)
	}

	var changes []Change
	if opts.ReplaceQuotedPrintable && hdr.Has("Content-Type") {
		ct := hdr.Get("Content-Type")
		if strings.Contains(ct, quotedPrintableType) {
			fixed := strings.ReplaceAll(ct, quotedPrintableType, plainType)
			hdr.Set("Content-Type", fixed)
			changes = append(changes, Change{Header: "Content-Type", Old: ct, New: fixed})
		}
	}
	if opts.FixMessageID && hdr.Has("Message-Id") {
		id := hdr.Get("Message-Id")
		if fixed := delimit(id); fixed != id {
			hdr.Set("Message-Id", fixed)
			changes = append(changes, Change{Header: "Message-ID", Old: id, New: fixed})
		}
	}
	if len(changes) == 0 {
		return raw, nil, nil
	}

	var buf bytes.Buffer
	if err := textproto.WriteHeader(&buf, hdr); err != nil {
		return raw, nil, fmt.Errorf("rewrite header block: %w", err)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return raw, nil, fmt.Errorf("read message body: %w", err)
	}
	buf.Write(body)
	return buf.Bytes(), changes, nil
}

// delimit wraps a Message-ID value in angle brackets if either is missing.
// Gmail needs RFC-compliant delimiters for threading and dedup.
func delimit(id string) string {
	if id == "" {
		return "<>"
	}
	if id[0] != '<' {
		id = "<" + id
	}
	if id[len(id)-1] != '>' {
		id += ">"
	}
	return id
}
