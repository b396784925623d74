// Package transcript renders the message history of a ticket channel into a document.
package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/clock"
)

// Format is the output format of a transcript.
type Format string

const (
	// FormatPlain is a plain text transcript.
	FormatPlain Format = "plain"

	// FormatStyled is a self-contained HTML page styled like the chat client.
	FormatStyled Format = "styled"
)

const (
	displayTimeLayout  = "2006-01-02 15:04:05"
	filenameTimeLayout = "20060102-150405"
	noContent          = "[No text content]"
)

// ParseFormat parses a transcript format name. "txt" and "html" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain", "txt", "text":
		return FormatPlain, nil
	case "styled", "html":
		return FormatStyled, nil
	default:
		return "", fmt.Errorf("unknown transcript format %q", s)
	}
}

// Message is one message of a channel's history.
type Message struct {
	ID          string
	Author      string
	Timestamp   time.Time
	Content     string
	Attachments []string
	Embeds      []string
}

// FromDiscord converts discord messages. The timestamp is taken from the message ID.
func FromDiscord(msgs []*discordgo.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}

		msg := Message{
			ID:      m.ID,
			Author:  "Unknown",
			Content: m.Content,
		}

		if m.Author != nil {
			msg.Author = m.Author.Username
		}

		if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
			msg.Timestamp = ts.UTC()
		}

		for _, a := range m.Attachments {
			if a != nil {
				msg.Attachments = append(msg.Attachments, a.Filename)
			}
		}

		for _, e := range m.Embeds {
			if e != nil && e.Title != "" {
				msg.Embeds = append(msg.Embeds, e.Title)
			}
		}

		out = append(out, msg)
	}
	return out
}

// Header describes the channel a transcript belongs to.
type Header struct {
	ChannelName string
	GuildName   string
}

// Document is a rendered transcript.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// File wraps the document as a discord attachment.
func (d *Document) File() *discordgo.File {
	return &discordgo.File{
		Name:        d.Filename,
		ContentType: d.ContentType,
		Reader:      bytes.NewReader(d.Body),
	}
}

// Generator renders transcripts in a fixed format.
type Generator struct {
	format Format
	clk    clock.Clock
}

// NewGenerator creates a generator. An unknown format falls back to plain text.
func NewGenerator(format Format, clk clock.Clock) *Generator {
	if format != FormatStyled {
		format = FormatPlain
	}
	if clk == nil {
		clk = clock.Real()
	}

	return &Generator{
		format: format,
		clk:    clk,
	}
}

func (g *Generator) Format() Format {
	return g.format
}

// Generate renders msgs oldest first, whatever order they are given in. A non-nil historyErr means the history
// could only be partly read; it is written into the document as a visible marker.
func (g *Generator) Generate(h Header, msgs []Message, historyErr error) (*Document, error) {
	sorted := slices.Clone(msgs)
	slices.SortStableFunc(sorted, func(a, b Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	now := g.clk.Now().UTC()
	name := fmt.Sprintf("transcript-%s-%s", h.ChannelName, now.Format(filenameTimeLayout))

	if g.format == FormatStyled {
		body, err := renderStyled(h, sorted, historyErr, now)
		if err != nil {
			return nil, fmt.Errorf("error rendering styled transcript: %w", err)
		}
		return &Document{
			Filename:    name + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        body,
		}, nil
	}

	return &Document{
		Filename:    name + ".txt",
		ContentType: "text/plain; charset=utf-8",
		Body:        renderPlain(h, sorted, historyErr, now),
	}, nil
}

func renderPlain(h Header, msgs []Message, historyErr error, now time.Time) []byte {
	b := new(strings.Builder)

	fmt.Fprintf(b, "=== TICKET TRANSCRIPT: %s ===\n\n", h.ChannelName)
	fmt.Fprintf(b, "Channel: #%s\n", h.ChannelName)
	fmt.Fprintf(b, "Server: %s\n", h.GuildName)
	fmt.Fprintf(b, "Generated: %s\n", now.Format(displayTimeLayout))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, m := range msgs {
		content := m.Content
		if content == "" {
			content = noContent
		}

		fmt.Fprintf(b, "[%s] %s: %s\n", m.Timestamp.Format(displayTimeLayout), m.Author, content)

		for _, a := range m.Attachments {
			fmt.Fprintf(b, "    📎 Attachment: %s\n", a)
		}

		for _, e := range m.Embeds {
			fmt.Fprintf(b, "    📋 Embed: %s\n", e)
		}
	}

	if historyErr != nil {
		fmt.Fprintf(b, "\n❌ Error reading messages: %v\n", historyErr)
	}

	return []byte(b.String())
}

type styledMessage struct {
	Message
	Time string
}

type styledPage struct {
	Header
	Generated string
	Messages  []styledMessage
	Error     string
}

var styledTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Transcript - {{.ChannelName}}</title>
<style>
body { background-color: #36393f; color: #dcddde; font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; margin: 0; padding: 20px; }
.header { background-color: #2f3136; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
.message { margin-bottom: 16px; padding: 8px; border-radius: 4px; }
.message:hover { background-color: #32353b; }
.author { font-weight: 600; color: #ffffff; }
.timestamp { color: #72767d; font-size: 12px; margin-left: 8px; }
.content { margin-top: 4px; word-wrap: break-word; white-space: pre-wrap; }
.attachment { color: #00b0f4; margin-top: 4px; }
.embed { border-left: 4px solid #7289da; background-color: #2f3136; padding: 8px 12px; margin-top: 4px; border-radius: 0 4px 4px 0; }
</style>
</head>
<body>
<div class="header">
<h1>Transcript: #{{.ChannelName}}</h1>
<p>Server: {{.GuildName}}</p>
<p>Generated: {{.Generated}}</p>
</div>
{{- range .Messages}}
<div class="message">
<span class="author">{{.Author}}</span><span class="timestamp">{{.Time}}</span>
<div class="content">{{if .Content}}{{.Content}}{{else}}<em>{{"` + noContent + `"}}</em>{{end}}</div>
{{- range .Attachments}}
<div class="attachment">📎 Attachment: {{.}}</div>
{{- end}}
{{- range .Embeds}}
<div class="embed">📋 {{.}}</div>
{{- end}}
</div>
{{- end}}
{{- if .Error}}
<div class="message"><span class="author">System</span><div class="content">❌ Error reading messages: {{.Error}}</div></div>
{{- end}}
</body>
</html>
`))

func renderStyled(h Header, msgs []Message, historyErr error, now time.Time) ([]byte, error) {
	page := styledPage{
		Header:    h,
		Generated: now.Format(displayTimeLayout),
		Messages:  make([]styledMessage, 0, len(msgs)),
	}

	for _, m := range msgs {
		page.Messages = append(page.Messages, styledMessage{
			Message: m,
			Time:    m.Timestamp.Format(displayTimeLayout),
		})
	}

	if historyErr != nil {
		page.Error = historyErr.Error()
	}

	buf := new(bytes.Buffer)
	if err := styledTemplate.Execute(buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
