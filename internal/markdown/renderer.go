package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rivo/tview"
)

// placeholder markers for tokens that should not be processed by inline formatting.
const placeholderPrefix = "\x00T"
const placeholderSuffix = "\x00"

// Compiled patterns for Mattermost markdown.
var (
	// Markdown link: [label](url).
	linkRe = regexp.MustCompile(`\[([^\]\n]+)\]\((https?://[^)\s]+)\)`)

	// Bare URL.
	urlRe = regexp.MustCompile(`https?://[^\s<>"]+`)

	// Inline code: `text` (single backtick, not inside code blocks).
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")

	// Bold: **text**.
	boldRe = regexp.MustCompile(`\*\*([^\*\n]+)\*\*`)

	// Italic: *text* or _text_.
	italicStarRe  = regexp.MustCompile(`\*([^\*\n]+)\*`)
	italicUnderRe = regexp.MustCompile(`\b_([^_\n]+)_\b`)

	// Strikethrough: ~~text~~.
	strikeRe = regexp.MustCompile(`~~([^~\n]+)~~`)

	// User mention: @username.
	mentionRe = regexp.MustCompile(`@([a-z0-9][a-z0-9._-]*)`)

	// Channel mention: ~channel-name.
	channelRe = regexp.MustCompile(`~([a-z0-9][a-z0-9._-]*)`)

	// Emoji: :name: (alphanumeric, underscore, hyphen, plus).
	emojiRe = regexp.MustCompile(`:([a-zA-Z0-9_+\-]+):`)

	// Code block: ```lang\ncode``` or ```code```.
	codeBlockRe = regexp.MustCompile("(?s)```(\\w*)\\n?(.*?)```")
)

// specialMentions are server-side broadcast keywords, styled like mentions.
var specialMentions = map[string]bool{
	"here":    true,
	"channel": true,
	"all":     true,
}

// Colors holds pre-computed tview tag strings for markdown rendering,
// avoiding a direct dependency on the config package.
type Colors struct {
	UserMention    string // e.g. "[yellow::b]"
	ChannelMention string // e.g. "[cyan::b]"
	Link           string // e.g. "[blue::u]"
	InlineCode     string // e.g. "[gray]"
	CodeFence      string // e.g. "[gray]"
	BlockquoteMark string // e.g. "[gray]"
	BlockquoteText string // e.g. "[::d]"
}

// DefaultColors returns the built-in rendering palette.
func DefaultColors() Colors {
	return Colors{
		UserMention:    "[yellow::b]",
		ChannelMention: "[cyan::b]",
		Link:           "[blue::u]",
		InlineCode:     "[gray]",
		CodeFence:      "[gray]",
		BlockquoteMark: "[gray]",
		BlockquoteText: "[::d]",
	}
}

// Render converts Mattermost markdown to tview-formatted output. usernames
// maps known usernames to display names; channels maps channel url names to
// display names. When enabled is false the text is escaped and returned
// without any formatting.
func Render(text string, usernames map[string]string, channels map[string]string, enabled bool, syntaxTheme string, colors Colors) string {
	if !enabled {
		return tview.Escape(text)
	}

	// Split text into code blocks and non-code segments.
	segments := splitCodeBlocks(text)

	var b strings.Builder
	for _, seg := range segments {
		if seg.isCode {
			b.WriteString(renderCodeBlock(seg.lang, seg.code, syntaxTheme, colors))
		} else {
			b.WriteString(renderInline(seg.text, usernames, channels, colors))
		}
	}

	return b.String()
}

// segment represents either a code block or inline text.
type segment struct {
	isCode bool
	lang   string // language hint for code blocks
	code   string // code block content
	text   string // inline text content
}

// splitCodeBlocks splits text into alternating inline/code-block segments.
func splitCodeBlocks(text string) []segment {
	var segments []segment

	matches := codeBlockRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []segment{{text: text}}
	}

	prev := 0
	for _, m := range matches {
		// Text before this code block.
		if m[0] > prev {
			segments = append(segments, segment{text: text[prev:m[0]]})
		}

		lang := text[m[2]:m[3]]
		code := text[m[4]:m[5]]

		segments = append(segments, segment{
			isCode: true,
			lang:   lang,
			code:   code,
		})
		prev = m[1]
	}

	// Remaining text after last code block.
	if prev < len(text) {
		segments = append(segments, segment{text: text[prev:]})
	}

	return segments
}

// renderCodeBlock renders a fenced code block with syntax highlighting.
func renderCodeBlock(lang, code string, syntaxTheme string, colors Colors) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(syntaxTheme)
	if style == nil {
		style = styles.Fallback
	}

	fenceTag := colors.CodeFence
	fenceReset := "[-]"
	if strings.Count(fenceTag, ":") >= 2 {
		fenceReset = "[-::-]"
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		// Fallback: just escape and show as-is.
		return fenceTag + "```" + fenceReset + "\n" + tview.Escape(code) + "\n" + fenceTag + "```" + fenceReset
	}

	var buf strings.Builder
	buf.WriteString(fenceTag + "```" + fenceReset)
	if lang != "" {
		buf.WriteString(fenceTag + tview.Escape(lang) + fenceReset)
	}
	buf.WriteString("\n")

	for _, token := range iterator.Tokens() {
		text := tview.Escape(token.Value)
		entry := style.Get(token.Type)

		if entry.Colour.IsSet() {
			hex := entry.Colour.String()
			attrs := ""
			if entry.Bold == chroma.Yes {
				attrs = "b"
			}
			if entry.Italic == chroma.Yes {
				if attrs != "" {
					attrs += "i"
				} else {
					attrs = "i"
				}
			}

			if attrs != "" {
				fmt.Fprintf(&buf, "[%s::%s]%s[-::-]", hex, attrs, text)
			} else {
				fmt.Fprintf(&buf, "[%s]%s[-]", hex, text)
			}
		} else {
			buf.WriteString(text)
		}
	}

	// Remove trailing newline from chroma output before adding closing marker.
	result := buf.String()
	result = strings.TrimRight(result, "\n")
	return result + "\n" + fenceTag + "```" + fenceReset
}

// renderInline processes inline markdown formatting.
func renderInline(text string, usernames map[string]string, channels map[string]string, colors Colors) string {
	var placeholders []string
	stash := func(rendered string) string {
		idx := len(placeholders)
		placeholders = append(placeholders, rendered)
		return fmt.Sprintf("%s%d%s", placeholderPrefix, idx, placeholderSuffix)
	}

	// Step 1: Extract links before escaping mangles their brackets, and
	// before bare URLs can match link targets.
	text = linkRe.ReplaceAllStringFunc(text, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		return stash(colors.Link + tview.Escape(m[1]) + "[-::-]")
	})
	text = urlRe.ReplaceAllStringFunc(text, func(match string) string {
		return stash(colors.Link + tview.Escape(match) + "[-::-]")
	})

	// Step 2: Escape tview special chars in the remaining text.
	text = tview.Escape(text)

	// Step 3: Extract inline code with placeholders (prevents formatting inside code).
	inlineCodeTag := colors.InlineCode
	inlineCodeReset := "[-]"
	if strings.Count(inlineCodeTag, ":") >= 2 {
		inlineCodeReset = "[-::-]"
	}
	text = inlineCodeRe.ReplaceAllStringFunc(text, func(match string) string {
		content := match[1 : len(match)-1] // strip backticks
		return stash(inlineCodeTag + "`" + content + "`" + inlineCodeReset)
	})

	// Step 4: Process blockquotes (line-level, before inline formatting).
	text = renderBlockquotes(text, colors)

	// Step 5: Formatting. Bold before single-star italic so ** is not eaten.
	text = boldRe.ReplaceAllString(text, "[::b]$1[::-]")
	text = italicStarRe.ReplaceAllString(text, "[::i]$1[::-]")
	text = italicUnderRe.ReplaceAllString(text, "[::i]$1[::-]")
	text = strikeRe.ReplaceAllString(text, "[::s]$1[::-]")

	// Step 6: Mentions. Only known usernames and broadcast keywords light up;
	// anything else stays plain so emails do not get mangled.
	text = mentionRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1:]
		if _, ok := usernames[name]; ok || specialMentions[name] {
			return stash(colors.UserMention + "@" + name + "[-::-]")
		}
		return match
	})
	text = channelRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1:]
		display, ok := channels[name]
		if !ok {
			return match
		}
		return stash(colors.ChannelMention + "~" + display + "[-::-]")
	})

	// Step 7: Emoji :name:.
	text = emojiRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		return lookupEmoji(name)
	})

	// Step 8: Restore placeholders.
	for i, p := range placeholders {
		placeholder := fmt.Sprintf("%s%d%s", placeholderPrefix, i, placeholderSuffix)
		text = strings.Replace(text, placeholder, p, 1)
	}

	return text
}

// renderBlockquotes converts lines starting with "> " to styled blockquotes.
func renderBlockquotes(text string, colors Colors) string {
	markTag := colors.BlockquoteMark
	markReset := "[-]"
	if strings.Count(markTag, ":") >= 2 {
		markReset = "[-::-]"
	}
	textTag := colors.BlockquoteText
	textReset := "[::-]"

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		stripped := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(stripped, "> ") {
			content := stripped[2:]
			lines[i] = markTag + "▎" + markReset + " " + textTag + content + textReset
		} else if stripped == ">" {
			lines[i] = markTag + "▎" + markReset
		}
	}
	return strings.Join(lines, "\n")
}
