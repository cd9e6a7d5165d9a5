package md2tex

import (
	"regexp"
	"strconv"
	"strings"
)

// containerEnvs maps fence types to target environment names.
// Fence types are matched case-insensitively.
var containerEnvs = map[string]string{
	"note":      "notebox",
	"tip":       "tipbox",
	"important": "importantbox",
	"warning":   "warningbox",
	"caution":   "cautionbox",
	"center":    "center",
	"right":     "flushright",
	"box":       "custombox",
}

// Container fence patterns.
var (
	containerOpenPattern  = regexp.MustCompile(`^([ \t]*):::([A-Za-z]+)[ \t]*$`)
	containerClosePattern = regexp.MustCompile(`^[ \t]*:::[ \t]*$`)
)

// Container markers use their own Private Use Area delimiters so they can
// coexist with protection tokens in the same buffer.
const (
	markerStart = "\uE002" // U+E002: Private Use Area
	markerEnd   = "\uE003"
)

// containerBlock is one node of the parsed block tree.
type containerBlock struct {
	env    string
	indent string // opening fence indentation, stripped from body lines
	pieces []containerPiece
}

// containerPiece is either a literal line or a nested block.
type containerPiece struct {
	line  string
	block *containerBlock
}

// containerParser rewrites :::type fences into deferred begin/end markers.
// Emission is deferred because the passes that follow (inline formatting,
// escaping) operate on plain text and must not see block-open/close syntax
// mid-stream; a later resolution pass rewrites the markers to final markup.
type containerParser struct {
	prot    *protector
	markers *regexp.Regexp
}

// newContainerParser creates a parser whose markers share the protector's
// run-specific prefix.
func newContainerParser(prot *protector) *containerParser {
	pattern := regexp.QuoteMeta(markerStart) +
		regexp.QuoteMeta(prot.prefix) +
		`:(begin|end):([a-z]+):(\d+)` +
		regexp.QuoteMeta(markerEnd)
	return &containerParser{
		prot:    prot,
		markers: regexp.MustCompile(pattern),
	}
}

// Parse scans the document line by line with an explicit stack, builds a
// block tree, and flattens it once to marker pairs. A nested opening fence
// of any recognized type pushes, a bare ::: pops; an unterminated block
// consumes to end of document. Fences inside literal regions are ignored.
func (c *containerParser) Parse(text string) string {
	protected, spans := c.prot.protect(text)

	root := &containerBlock{}
	stack := []*containerBlock{root}

	for _, line := range strings.Split(protected, "\n") {
		top := stack[len(stack)-1]

		if m := containerOpenPattern.FindStringSubmatch(line); m != nil {
			if env, ok := containerEnvs[strings.ToLower(m[2])]; ok {
				child := &containerBlock{env: env, indent: m[1]}
				top.pieces = append(top.pieces, containerPiece{block: child})
				stack = append(stack, child)
				continue
			}
			// Unrecognized type: plain content line.
		} else if containerClosePattern.MatchString(line) && len(stack) > 1 {
			stack = stack[:len(stack)-1]
			continue
		}

		if top != root {
			line = stripIndent(line, top.indent)
		}
		top.pieces = append(top.pieces, containerPiece{line: line})
	}

	flat := c.flatten(root)
	return c.prot.restore(strings.Join(flat, "\n"), spans)
}

// flatten walks the tree depth-first and emits marker pairs around each
// block's body. Trailing blank lines in a captured body are trimmed.
func (c *containerParser) flatten(root *containerBlock) []string {
	var out []string
	var nextID int

	var walk func(b *containerBlock)
	walk = func(b *containerBlock) {
		pieces := b.pieces
		if b != root {
			pieces = trimTrailingBlank(pieces)
		}
		for _, p := range pieces {
			if p.block == nil {
				out = append(out, p.line)
				continue
			}
			nextID++
			id := nextID
			out = append(out, c.marker("begin", p.block.env, id))
			walk(p.block)
			out = append(out, c.marker("end", p.block.env, id))
		}
	}
	walk(root)
	return out
}

// marker builds one uniquely numbered begin/end marker line.
func (c *containerParser) marker(kind, env string, id int) string {
	return markerStart + c.prot.prefix + ":" + kind + ":" + env + ":" + strconv.Itoa(id) + markerEnd
}

// ResolveMarkers rewrites deferred markers into final block-open/close
// markup. Runs after all line-based regex passes.
func (c *containerParser) ResolveMarkers(text string) string {
	return c.markers.ReplaceAllStringFunc(text, func(m string) string {
		sub := c.markers.FindStringSubmatch(m)
		if sub[1] == "begin" {
			return `\begin{` + sub[2] + `}`
		}
		return `\end{` + sub[2] + `}`
	})
}

// stripIndent removes the opening fence's indentation prefix from a content
// line. Lines shorter than the prefix, or blank, pass through unmodified.
func stripIndent(line, indent string) string {
	if indent == "" {
		return line
	}
	if strings.HasPrefix(line, indent) {
		return line[len(indent):]
	}
	return line
}

// trimTrailingBlank drops trailing blank literal lines from a body.
func trimTrailingBlank(pieces []containerPiece) []containerPiece {
	end := len(pieces)
	for end > 0 {
		p := pieces[end-1]
		if p.block != nil || strings.TrimSpace(p.line) != "" {
			break
		}
		end--
	}
	return pieces[:end]
}
