// Package digest renders seat and matchup recommendations into email bodies.
//
// Each digest has an HTML and a plaintext rendering built from the embedded
// templates. html/template escapes every value taken from the ticket source.
package digest

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/seatscout/internal/excitement"
	"github.com/rewired-gh/seatscout/internal/models"
)

// MaxDisplay is how many recommendations per event make it into a digest.
const MaxDisplay = 3

//go:embed templates/*.tmpl
var templateFS embed.FS

// Message is a rendered digest ready for delivery.
type Message struct {
	Subject string
	Text    string
	HTML    string
	// Empty is set when there was nothing to recommend.
	Empty bool
}

// Renderer turns ranked results into Messages.
type Renderer struct {
	team string
	loc  *time.Location
	html *htmltemplate.Template
	text *texttemplate.Template
}

type eventView struct {
	Event           models.Event
	Recommendations []models.Recommendation
	More            int
}

type seatsView struct {
	Subject   string
	Team      string
	Generated time.Time
	Events    []eventView
}

type matchupsView struct {
	Subject   string
	Team      string
	Generated time.Time
	Matchups  []models.MatchupRecommendation
}

// NewRenderer parses the embedded templates. Dates are shown in loc, or UTC
// when loc is nil.
func NewRenderer(team string, loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Renderer{team: team, loc: loc}
	funcs := r.funcMap()

	html, err := htmltemplate.New("digest").Funcs(htmltemplate.FuncMap(funcs)).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}
	text, err := texttemplate.New("digest").Funcs(funcs).ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	r.html = html
	r.text = text
	return r, nil
}

func (r *Renderer) funcMap() texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"formatDateTime": func(t time.Time) string {
			return t.In(r.loc).Format("Mon Jan 2, 3:04 PM")
		},
		"money": formatMoney,
		"seats": formatSeats,
		"score": func(f float64) string {
			return strconv.FormatFloat(f, 'f', 1, 64)
		},
		"inc": func(i int) int { return i + 1 },
		"band": func(score int) string {
			return excitement.BandFor(score).Label()
		},
		"badgeColor": func(score int) htmltemplate.CSS {
			return htmltemplate.CSS(badgeColors[excitement.BandFor(score)])
		},
	}
}

var badgeColors = map[excitement.Band]string{
	excitement.BandMustSee:  "#c0392b",
	excitement.BandPremier:  "#d35400",
	excitement.BandExciting: "#2980b9",
	excitement.BandStandard: "#7f8c8d",
}

// Seats renders the seat digest. Each event shows at most MaxDisplay picks.
func (r *Renderer) Seats(recs []models.EventRecommendation, generated time.Time) (*Message, error) {
	view := seatsView{Team: r.team, Generated: generated}
	picks := 0
	for _, er := range recs {
		if len(er.Recommendations) == 0 {
			continue
		}
		shown := er.Recommendations
		if len(shown) > MaxDisplay {
			shown = shown[:MaxDisplay]
		}
		view.Events = append(view.Events, eventView{
			Event:           er.Event,
			Recommendations: shown,
			More:            len(er.Recommendations) - len(shown),
		})
		picks += len(shown)
	}

	msg := &Message{Empty: len(view.Events) == 0}
	if msg.Empty {
		view.Subject = fmt.Sprintf("%s seats: no recommendations this cycle", r.team)
	} else {
		view.Subject = fmt.Sprintf("%s seats: %d picks across %d games", r.team, picks, len(view.Events))
	}
	msg.Subject = view.Subject

	if err := r.render(msg, "seats", view); err != nil {
		return nil, err
	}
	return msg, nil
}

// Matchups renders the matchup digest in the given (already ranked) order.
func (r *Renderer) Matchups(matchups []models.MatchupRecommendation, generated time.Time) (*Message, error) {
	view := matchupsView{Team: r.team, Generated: generated, Matchups: matchups}
	msg := &Message{Empty: len(matchups) == 0}
	switch {
	case msg.Empty:
		view.Subject = fmt.Sprintf("%s matchups: no upcoming home games", r.team)
	default:
		top := matchups[0]
		view.Subject = fmt.Sprintf("%s matchups: %s is %s", r.team, top.Event.Opponent,
			excitement.BandFor(top.Rating.Excitement).Label())
	}
	msg.Subject = view.Subject

	if err := r.render(msg, "matchups", view); err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *Renderer) render(msg *Message, name string, data any) error {
	var buf bytes.Buffer
	if err := r.html.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return fmt.Errorf("failed to execute %s html template: %w", name, err)
	}
	msg.HTML = buf.String()

	buf.Reset()
	if err := r.text.ExecuteTemplate(&buf, name+".txt", data); err != nil {
		return fmt.Errorf("failed to execute %s text template: %w", name, err)
	}
	msg.Text = strings.TrimSpace(buf.String()) + "\n"
	return nil
}

// formatMoney renders "$1,234.50".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// formatSeats collapses consecutive seat numbers: [5 6 7 9] -> "5-7, 9".
func formatSeats(seats []int) string {
	var parts []string
	for i := 0; i < len(seats); {
		j := i
		for j+1 < len(seats) && seats[j+1] == seats[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, fmt.Sprintf("%d-%d", seats[i], seats[j]))
		} else {
			parts = append(parts, strconv.Itoa(seats[i]))
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}
