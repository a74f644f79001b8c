package filename

import (
	"regexp"
	"strings"
)

// LexRule consumes one grammar element from the front of the remaining
// stem. Rules are applied in order by [Parse]; each sees what the previous
// rules left. Apply returns the unconsumed remainder and whether the rule
// matched; a rule that does not match must return rest unchanged.
type LexRule struct {
	Name  string
	Apply func(rest string, p *Parts) (string, bool)
}

// Rules is the ordered lexer table. The name is not a rule: it is whatever
// remains after the table has run.
var Rules = []LexRule{
	{Name: "date", Apply: lexDate},
	{Name: "category", Apply: lexCategory},
	{Name: "tags", Apply: lexTags},
}

// Date forms, longest first so the longest match wins.
var dateForms = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}`),
	regexp.MustCompile(`^[0-9]{4}-[0-9]{2}`),
	regexp.MustCompile(`^[0-9]{4}`),
}

// reDateTrail matches the whitespace and optional single dash that may
// follow a date. It always matches, possibly with an empty string.
var reDateTrail = regexp.MustCompile(`^\s*(?:-\s*)?`)

// reSeparator finds the end of a segment: a dash preceded by whitespace and
// followed by whitespace or the end of the stem. A bare hyphen inside a word
// ("Jean-Luc") is not a separator.
var reSeparator = regexp.MustCompile(`\s+-(?:\s+|$)`)

// reTagToken matches one whitespace-delimited token of uppercase letters
// and digits. "March" does not match: a token is a tag only as a whole.
var reTagToken = regexp.MustCompile(`^\s*([A-Z0-9]+)(?:\s+|$)`)

// reTagTrail matches the separator that may follow the tag block. It
// always matches, possibly with an empty string.
var reTagTrail = regexp.MustCompile(`^\s*(?:-(?:\s+|$))?`)

// lexDate consumes a leading YYYY-MM-DD, YYYY-MM or YYYY token. A form
// immediately followed by another digit is not a date token.
func lexDate(rest string, p *Parts) (string, bool) {
	for _, re := range dateForms {
		tok := re.FindString(rest)
		if tok == "" {
			continue
		}
		after := rest[len(tok):]
		if after != "" && after[0] >= '0' && after[0] <= '9' {
			continue
		}
		p.Date = tok
		return after[len(reDateTrail.FindString(after)):], true
	}
	return rest, false
}

// lexCategory consumes the next segment when it contains at least one
// character that is not uppercase. All-caps segments are left for lexTags.
func lexCategory(rest string, p *Parts) (string, bool) {
	seg, after := nextSegment(rest)
	tok := strings.TrimSpace(seg)
	if tok == "" || strings.ToUpper(tok) == tok {
		return rest, false
	}
	p.Category = tok
	return after, true
}

// lexTags consumes the longest run of leading tag tokens, up to the first
// token holding a character other than an uppercase letter or digit, and
// the separator after it.
func lexTags(rest string, p *Parts) (string, bool) {
	var tags []string
	cur := rest
	for {
		m := reTagToken.FindStringSubmatch(cur)
		if m == nil {
			break
		}
		tags = append(tags, m[1])
		cur = cur[len(m[0]):]
	}
	if len(tags) == 0 {
		return rest, false
	}
	p.Tags = tags
	return cur[len(reTagTrail.FindString(cur)):], true
}

// nextSegment splits rest at the first separator.
func nextSegment(rest string) (seg, after string) {
	loc := reSeparator.FindStringIndex(rest)
	if loc == nil {
		return rest, ""
	}
	return rest[:loc[0]], rest[loc[1]:]
}
