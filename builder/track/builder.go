package track

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	suffixRegexp = regexp.MustCompile(
		`(?i)(?m)` +
			`((-\s*)?((off?ici([^(spot)]|[^(video)])*\s*` +
			`(spot|video))|(h(d|q))|(\*hd\*)|(\d+p)|(\dk))$)` +
			`|` +
			`((-\s*)?(\(|\[|\|).*?(lyric(s)?|text|tekst|of(f)?ici(j)?al(ni)?|` +
			`\s*video|film|audio|spot|hd|hq|\dk)(\s*(\d+)?)(\)|\]|\|))` +
			"|" +
			`(((\+)?\s*(\()?\s*(lyric(s)?|tekst|(v?\s*)?(ž|z)ivo))` +
			`\s*(\))?|(#(\w+)?\s*)+$)`,
	)
	separatorRegexp = regexp.MustCompile(`((\/\/)(\/+)?)|((\|\|)(\|+)?)`)
	dashRegexp      = regexp.MustCompile(`\s*-\s*`)
)

type TrackBuilder struct {
	maxWidth int
	face     font.Face
	faceOnce sync.Once
}

// NewTrackBuilder constructs an object that handles
// formatting the tracks' titles and durations.
func NewTrackBuilder() *TrackBuilder {
	return &TrackBuilder{
		maxWidth: 12500,
	}
}

// Title removes suffixes such as [hd], (video), [lyrics], ...
// from the provided youtube title and escapes the characters
// that would be formatted by discord.
func (builder *TrackBuilder) Title(name string) string {
	name = suffixRegexp.ReplaceAllString(name, "")

	// Replace slashes and pipe lines with -
	name = separatorRegexp.ReplaceAllString(name, "-")

	// Trim white space around - to a single space on each side
	name = dashRegexp.ReplaceAllString(name, " - ")

	// Replace quotes so there are no code blocks
	name = strings.ReplaceAll(name, "`", `'`)
	name = strings.ReplaceAll(name, "“", `"`)

	// Escape * and _ so the titles are not bold, italic or crossed
	name = strings.ReplaceAll(name, "_", `\_`)
	name = strings.ReplaceAll(name, "*", `\*`)

	name = strings.TrimSpace(name)
	name = strings.Trim(name, "-")
	return strings.TrimSpace(name)
}

// ShortTitle returns a prefix of the provided title, so that
// all tracks in the queue appear of roughly equal widths.
// NOTE: discord renders the titles in a proportional font,
// so the width is measured with the glyph advances of go's
// regular font rather than by the number of characters.
func (builder *TrackBuilder) ShortTitle(name string) string {
	fallback := name
	if len([]rune(name)) > 30 {
		fallback = string([]rune(name)[:30]) + "..."
	}
	face := builder.getFace()
	if face == nil {
		return fallback
	}
	w := 0
	s := ""
	for _, x := range name {
		advance, ok := face.GlyphAdvance(x)
		if !ok {
			return fallback
		}
		w2 := w + int(advance)
		if w2 > builder.maxWidth {
			break
		}
		w = w2
		s += string(x)
	}
	if len(s) == len(name) {
		return s
	}
	return strings.TrimSpace(s) + "..."
}

// WrapTitle wraps the provided title to multiple shorter lines,
// so the full title may be displayed without widening the embed
func (builder *TrackBuilder) WrapTitle(name string) string {
	name = strings.TrimSpace(name)
	spacer := "\n> ㅤ"
	// NOTE: youtube doesn't allow titles longer than 100
	if r := []rune(name); len(r) > 100 {
		name = string(r[:100])
	}
	maxLength := 30
	fields := strings.Fields(name)
	fields2 := make([]string, 0)
	for _, f := range fields {
		if len(f) > 60 {
			n := len(f) / 3
			fields2 = append(fields2, f[:n], f[n:(n+n)], f[(n+n):])
		} else if len(f) > 30 {
			n := len(f) / 2
			fields2 = append(fields2, f[:n], f[n:])
		} else {
			fields2 = append(fields2, f)
		}
	}

	fields3 := make([]string, 0)

	// Split the text to multiple lines
	// where words are not split
	s := ""
	for i := 0; i <= len(fields2); i++ {
		if i < len(fields2) && (i == 0 || len(s+fields2[i])+1 <= maxLength) {
			if len(fields2[i]) > 0 {
				s += " " + fields2[i]
			}
		} else {
			diff := int(math.Round((float64(maxLength) - float64(len(s))) / 3))
			if diff > 0 {
				s = strings.Repeat(" ", diff) + s
			}
			if len(fields3) > 0 {
				s = spacer + s
			}
			fields3 = append(fields3, s)
			if i < len(fields2) {
				s = fields2[i]
			}
		}
	}
	return strings.Join(fields3, "")
}

// DurationString converts the seconds to a string
// formated as hh:mm:ss, hours are not added if zero
func (builder *TrackBuilder) DurationString(seconds int) string {
	if seconds <= 0 {
		return "?"
	}
	s := ""
	hours := int(seconds / 3600)
	seconds = seconds % 3600
	minutes := int(seconds / 60)
	seconds = seconds % 60
	if hours > 0 {
		s += fmt.Sprintf("%d:", hours)
	}
	if hours > 0 {
		s += fmt.Sprintf("%.2d:", minutes)
	} else {
		s += fmt.Sprintf("%d:", minutes)
	}
	return s + fmt.Sprintf("%.2d", seconds)
}

// Color returns a color for the track with the provided
// video id, the same video always has the same color.
func (builder *TrackBuilder) Color(videoID string) int {
	h := 0
	for _, c := range videoID {
		h = (h*31 + int(c)) % 16777216
	}
	return h
}

func (builder *TrackBuilder) getFace() font.Face {
	builder.faceOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			log.Errorf("Could not parse the font: %v", err)
			return
		}
		builder.face = truetype.NewFace(f, &truetype.Options{
			Size: 14, // NOTE: default font size for discord is 14
		})
	})
	return builder.face
}
