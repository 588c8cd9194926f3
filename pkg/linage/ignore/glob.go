package ignore

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// patternOpt configures a new glob pattern.
type patternOpt func(g *globPattern)

var (
	// matchBasename restricts matching to the path's final component when the
	// pattern itself contains no directory separators.
	matchBasename patternOpt = func(g *globPattern) {
		g.basename = true
	}

	// foldCase makes the pattern match regardless of the case of either the
	// pattern or the candidate path.
	foldCase patternOpt = func(g *globPattern) {
		g.caseFold = true
	}

	// matchContents makes a pattern that names a directory also match every
	// path beneath it, the way a trailing-slash .gitignore rule does.
	matchContents patternOpt = func(g *globPattern) {
		g.contents = true
	}
)

const sep byte = '/'

// globPattern compiles one ignore-rule line into a sequence of segment
// matchers applied component-by-component against a candidate path.
type globPattern struct {
	ts []globToken
	p  string

	basename bool
	caseFold bool
	contents bool
}

// newGlobPattern compiles p into a globPattern. It panics on an unclosed
// escape sequence and on an unclosed or unknown [:class:] name; an unclosed
// [ group is accepted and runs to the end of the component.
func newGlobPattern(p string, opts ...patternOpt) *globPattern {
	g := &globPattern{p: slashEscape(p)}

	for _, opt := range opts {
		opt(g)
	}

	if g.caseFold {
		g.p = strings.ToLower(g.p)
	}

	parts := strings.Split(g.p, string(sep))
	if len(parts) > 1 {
		g.basename = false
	}
	g.ts = g.parseTokens(parts)

	return g
}

// escapable characters recognized inside a pattern.
const escapes = "\\[]*?#"

// slashEscape normalizes path separators to '/', independent of which escape
// character the host platform uses, without disturbing escape sequences
// (`foo\*bar` is left alone rather than becoming `foo/*bar`).
func slashEscape(p string) string {
	var pp string

	for i := 0; i < len(p); {
		c := p[i]

		switch c {
		case '\\':
			if i+1 < len(p) && escapable(p[i+1]) {
				pp += `\`
				pp += string(p[i+1])
				i += 2
			} else {
				pp += `/`
				i++
			}
		default:
			pp += string([]byte{c})
			i++
		}
	}

	return pp
}

func escapable(c byte) bool {
	return strings.IndexByte(escapes, c) > -1
}

// parseTokens turns the separator-split pattern dirs into the sequence of
// globToken that, applied in order, reproduce the pattern's match behavior.
func (g *globPattern) parseTokens(dirs []string) []globToken {
	if len(dirs) == 0 {
		return make([]globToken, 0)
	}

	var finalComponents []globToken

	trailingIsEmpty := len(dirs) > 1 && dirs[len(dirs)-1] == ""
	numNonEmptyDirs := len(dirs)
	if trailingIsEmpty {
		numNonEmptyDirs--
	}
	if g.contents {
		finalComponents = []globToken{&trailingAny{}}
		if trailingIsEmpty {
			dirs = dirs[:numNonEmptyDirs]
		}
	}
	// One real component, and a directory is permissible here: this can
	// appear anywhere in the hierarchy since there was no interior slash.
	if numNonEmptyDirs == 1 && (trailingIsEmpty || g.contents) {
		rest := g.parseTokensSimple(dirs)
		tokens := []globToken{&anywhereDir{
			until: rest[0],
		}}
		if finalComponents == nil && len(rest) > 1 {
			finalComponents = rest[1:]
		}
		return append(tokens, finalComponents...)
	}

	components := g.parseTokensSimple(dirs)
	return append(components, finalComponents...)
}

func (g *globPattern) parseTokensSimple(dirs []string) []globToken {
	if len(dirs) == 0 {
		return make([]globToken, 0)
	}

	switch dirs[0] {
	case "":
		if len(dirs) == 1 {
			return []globToken{&segment{fns: []segmentFn{literalRun("")}}}
		}
		return g.parseTokensSimple(dirs[1:])
	case "**":
		rest := g.parseTokensSimple(dirs[1:])
		if len(rest) == 0 {
			return []globToken{&anyDepth{until: nil}}
		}
		return append([]globToken{&anyDepth{
			until: rest[0],
		}}, rest[1:]...)
	default:
		return append([]globToken{&segment{
			fns: parseSegment(dirs[0]),
		}}, g.parseTokensSimple(dirs[1:])...)
	}
}

// match reports whether t matches the pattern in its entirety. isDir marks t
// as a directory so trailing-slash semantics apply.
func (g *globPattern) match(t string, isDir bool) bool {
	dirs, ok := g.consume(t, isDir)
	if !ok {
		return false
	}
	return len(dirs) == 0
}

// consume performs the inner match of t against the pattern, returning the
// unmatched directory components and whether matching failed outright.
func (g *globPattern) consume(t string, isDir bool) ([]string, bool) {
	if g.basename {
		t = filepath.Base(t)
	}
	if g.caseFold {
		t = strings.ToLower(t)
	}

	if isDir && !strings.HasSuffix(t, "/") {
		t = t + "/"
	}

	dirs := strings.Split(t, string(sep))

	for _, tok := range g.ts {
		var ok bool
		dirs, ok = tok.Consume(dirs, isDir)
		if !ok {
			return dirs, false
		}
	}
	if isDir && len(dirs) == 1 && len(dirs[0]) == 0 {
		return nil, true
	}
	return dirs, true
}

func (g *globPattern) String() string {
	return g.p
}

// globToken matches zero, one, or more path components.
type globToken interface {
	// Consume matches as many leading components of path as it can,
	// returning the unconsumed remainder and whether matching may continue.
	Consume(path []string, isDir bool) ([]string, bool)
	String() string
}

// anyDepth greedily matches zero or more path components until a successor
// token ("**" in a pattern).
type anyDepth struct {
	until     globToken
	emptyPath bool
}

func (d *anyDepth) Consume(path []string, isDir bool) ([]string, bool) {
	if len(path) == 0 {
		return path, d.emptyPath
	}
	if d.until == nil {
		return nil, true
	}
	for i := len(path); i > 0; i-- {
		rest, ok := d.until.Consume(path[i:], false)
		if ok {
			return rest, ok
		}
	}
	// No match found anywhere: assume "**" matched the empty string.
	return d.until.Consume(path, isDir)
}

func (d *anyDepth) String() string {
	if d.until == nil {
		return "**"
	}
	return fmt.Sprintf("**/%s", d.until.String())
}

// anywhereDir matches a single unanchored path component at any depth
// (a pattern with no interior slash, unless it's pinned to basename-only).
type anywhereDir struct {
	until globToken
}

func (d *anywhereDir) Consume(path []string, isDir bool) ([]string, bool) {
	s := &anyDepth{until: d.until}
	return s.Consume(path, isDir)
}

func (d *anywhereDir) String() string {
	return fmt.Sprintf("%s/", d.until.String())
}

// trailingAny greedily matches any (possibly empty) trailing components,
// giving a directory-anchored pattern "contents" semantics.
type trailingAny struct{}

func (d *trailingAny) Consume(path []string, isDir bool) ([]string, bool) {
	s := &anyDepth{until: nil, emptyPath: true}
	return s.Consume(path, isDir)
}

func (d *trailingAny) String() string { return "" }

// segmentFn matches and consumes a prefix of one path component.
type segmentFn interface {
	Apply(s string) (rest string, ok bool)
	String() string
}

// fnLiteral wraps a matching function together with its string form.
type fnLiteral struct {
	fn  func(s string) (rest string, ok bool)
	str string
}

func (c *fnLiteral) Apply(s string) (rest string, ok bool) { return c.fn(s) }
func (c *fnLiteral) String() string                        { return c.str }

// segment matches one path component by applying its segmentFns in order.
type segment struct {
	fns []segmentFn
}

// parseSegment parses one '/'-delimited pattern component, handling
// wildcards ('*', '?'), character classes ('[...]'), literals, and escapes.
func parseSegment(s string) []segmentFn {
	if len(s) == 0 {
		return make([]segmentFn, 0)
	}

	switch s[0] {
	case '\\':
		if len(s) < 2 {
			panic("ignore: unclosed escape sequence")
		}
		literal := literalRun(string(s[1]))
		var rest []segmentFn
		if len(s) > 2 {
			rest = parseSegment(s[2:])
		}
		return cons(literal, rest)
	case '[':
		var (
			i       = 1
			include []runePredicate
			exclude []runePredicate
			run     string
			neg     bool
		)

		for i < len(s) {
			if s[i] == '^' || s[i] == '!' {
				neg = !neg
				i++
			} else if strings.HasPrefix(s[i:], "[:") {
				closeAt := strings.Index(s[i:], ":]")
				if closeAt < 0 {
					panic("ignore: unclosed character class")
				}
				if closeAt == 1 {
					// "[:]" names the literal ':', not a malformed class.
					run += "[:]"
					i += 2
					continue
				}
				name := strings.TrimPrefix(strings.ToLower(s[i:i+closeAt]), "[:")
				fn, ok := characterClasses[name]
				if !ok {
					panic(fmt.Sprintf("ignore: unknown character class: %q", name))
				}
				include, exclude = appendMaybe(!neg, include, exclude, fn)
				i = i + closeAt + 2
			} else if s[i] == '-' {
				if i < len(s) {
					var start, end byte
					if len(run) > 0 {
						start = run[len(run)-1]
						run = run[:len(run)-1]
					}
					end = s[i+1]
					if len(run) > 0 {
						include, exclude = appendMaybe(!neg, include, exclude, anyRune(run))
						run = ""
					}
					include, exclude = appendMaybe(!neg, include, exclude, between(rune(start), rune(end)))
					i += 2
				} else {
					run += "-"
					i += 2
				}
			} else if s[i] == '\\' {
				if i+1 >= len(s) {
					panic("ignore: unclosed escape")
				}
				run += string(s[i+1])
				i += 2
			} else if s[i] == ']' {
				break
			} else {
				run += string(s[i])
				i++
			}
		}

		if len(run) > 0 {
			include, exclude = appendMaybe(!neg, include, exclude, anyRune(run))
		}

		var rest string
		if i+1 < len(s) {
			rest = s[i+1:]
		}
		return cons(charClass(include, exclude), parseSegment(rest))
	case '?':
		return []segmentFn{wildcard(1, parseSegment(s[1:]))}
	case '*':
		return []segmentFn{wildcard(-1, parseSegment(s[1:]))}
	default:
		var i int
		for ; i < len(s); i++ {
			if s[i] == '[' || s[i] == '*' || s[i] == '?' || s[i] == '\\' {
				break
			}
		}
		return cons(literalRun(s[:i]), parseSegment(s[i:]))
	}
}

func appendMaybe(yes bool, a, b []runePredicate, x runePredicate) (ax, bx []runePredicate) {
	if yes {
		return append(a, x), b
	}
	return a, append(b, x)
}

func cons(head segmentFn, tail []segmentFn) []segmentFn {
	return append([]segmentFn{head}, tail...)
}

// Consume applies each segmentFn to the head path component in turn.
func (c *segment) Consume(path []string, isDir bool) ([]string, bool) {
	if len(path) == 0 {
		return path, false
	}

	head := path[0]
	for _, fn := range c.fns {
		var ok bool
		if head, ok = fn.Apply(head); !ok {
			return path, false
		}
	}

	if len(head) > 0 {
		return append([]string{head}, path[1:]...), false
	}
	return path[1:], true
}

func (c *segment) String() string {
	var str string
	for _, fn := range c.fns {
		str += fn.String()
	}
	return str
}

// literalRun matches a fixed prefix exactly.
func literalRun(sub string) segmentFn {
	return &fnLiteral{
		fn: func(s string) (rest string, ok bool) {
			if !strings.HasPrefix(s, sub) {
				return s, false
			}
			return s[len(sub):], true
		},
		str: sub,
	}
}

// wildcard matches greedily until the following segmentFns no longer match;
// n bounds the run length, or -1 for unbounded ('*' vs a fixed-width '?').
func wildcard(n int, fns []segmentFn) segmentFn {
	until := func(s string) (string, bool) {
		head := s
		for _, fn := range fns {
			var ok bool
			if head, ok = fn.Apply(head); !ok {
				return s, false
			}
		}
		if len(head) > 0 {
			return s, false
		}
		return "", true
	}

	str := "*"
	for _, fn := range fns {
		str += fn.String()
	}

	return &fnLiteral{
		fn: func(s string) (rest string, ok bool) {
			if n > -1 {
				if n > len(s) {
					return "", false
				}
				return until(s[n:])
			}
			for i := len(s); i > 0; i-- {
				rest, ok = until(s[i:])
				if ok {
					return rest, ok
				}
			}
			return until(s)
		},
		str: str,
	}
}

// charClass matches a single rune against an include/exclude set.
func charClass(include, exclude []runePredicate) segmentFn {
	return &fnLiteral{
		fn: func(s string) (rest string, ok bool) {
			if len(s) == 0 {
				return s, false
			}
			r, l := utf8.DecodeRuneInString(s)

			var match bool
			for _, ifn := range include {
				if ifn(r) {
					match = true
					break
				}
			}
			if !match && len(include) != 0 {
				return s, false
			}
			for _, efn := range exclude {
				if efn(r) {
					return s, false
				}
			}
			return s[l:], true
		},
		str: "<charclass>",
	}
}

// runePredicate matches a single rune.
type runePredicate func(rune) bool

var characterClasses = map[string]runePredicate{
	"alnum": func(r rune) bool { return unicode.In(r, unicode.Number, unicode.Letter) },
	"alpha": unicode.IsLetter,
	"blank": func(r rune) bool { return r == ' ' || r == '\t' },
	"cntrl": unicode.IsControl,
	"digit": unicode.IsDigit,
	"graph": unicode.IsGraphic,
	"lower": unicode.IsLower,
	"print": unicode.IsPrint,
	"punct": unicode.IsPunct,
	"space": unicode.IsSpace,
	"upper": unicode.IsUpper,
	"xdigit": func(r rune) bool {
		return unicode.IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
	},
}

func anyRune(s string) runePredicate {
	return func(r rune) bool { return strings.ContainsRune(s, r) }
}

func between(a, b rune) runePredicate {
	if b < a {
		a, b = b, a
	}
	return func(r rune) bool { return a <= r && r <= b }
}
