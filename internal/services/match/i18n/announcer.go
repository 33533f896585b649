// Package i18n renders localized feed announcement lines for match events.
// Messages live in the embedded catalog under the "match" namespace; locales
// missing a key fall back to the base locale.
package i18n

import (
	"bytes"
	"log"
	"text/template"

	"github.com/louisbranch/sinkline/internal/platform/i18n/catalog"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

const namespace = "match"

// Announcer formats announcement lines for one locale.
type Announcer struct {
	locale   string
	messages map[string]string
}

// NewAnnouncer resolves the locale against the embedded catalog. Unknown
// locales fall back to the base locale.
func NewAnnouncer(locale string) *Announcer {
	resolved, messages := catalog.Default().NamespaceMessagesWithFallback(locale, namespace)
	return &Announcer{locale: resolved, messages: messages}
}

// Locale returns the resolved locale.
func (a *Announcer) Locale() string { return a.locale }

// render executes the message template for key. A missing key or broken
// template degrades to the key itself so the feed never goes silent.
func (a *Announcer) render(key string, data map[string]any) string {
	tmpl, ok := a.messages[key]
	if !ok {
		return key
	}
	parsed, err := template.New(key).Parse(tmpl)
	if err != nil {
		log.Printf("[i18n] parse message %s: %v", key, err)
		return key
	}
	var buf bytes.Buffer
	if err := parsed.Execute(&buf, data); err != nil {
		log.Printf("[i18n] render message %s: %v", key, err)
		return key
	}
	return buf.String()
}

// MatchCreated announces a new match.
func (a *Announcer) MatchCreated(cupCount int) string {
	return a.render("match.created", map[string]any{"CupCount": cupCount})
}

// ShotGroup announces a recorded group, picking the line by shot kind.
func (a *Announcer) ShotGroup(group shot.Group) string {
	if len(group.Events) == 0 {
		return ""
	}
	first := group.Events[0]
	switch group.Kind {
	case board.KindBounce:
		second := first.CupID
		if len(group.Events) > 1 {
			second = group.Events[1].CupID
		}
		return a.render("match.shot.bounce", map[string]any{
			"Player": first.PlayerHandle,
			"First":  first.CupID,
			"Second": second,
		})
	case board.KindGrenade:
		return a.render("match.shot.grenade", map[string]any{
			"Player": first.PlayerHandle,
			"Cup":    first.CupID,
		})
	default:
		return a.render("match.shot.regular", map[string]any{
			"Player": first.PlayerHandle,
			"Cup":    first.CupID,
		})
	}
}

// Undo announces a rolled-back group.
func (a *Announcer) Undo() string {
	return a.render("match.undo", nil)
}

// RedemptionOpened announces the redemption window for the emptied side.
func (a *Announcer) RedemptionOpened(loser board.Side) string {
	return a.render("match.redemption.start", map[string]any{"Side": string(loser)})
}

// RedemptionPlayOn announces a successful redemption attempt.
func (a *Announcer) RedemptionPlayOn() string {
	return a.render("match.redemption.playon", nil)
}

// MatchComplete announces the final outcome.
func (a *Announcer) MatchComplete(winner board.Side, scoreA, scoreB int) string {
	return a.render("match.complete", map[string]any{
		"Side":   string(winner),
		"ScoreA": scoreA,
		"ScoreB": scoreB,
	})
}

// Surrender announces a side giving up.
func (a *Announcer) Surrender(side board.Side) string {
	return a.render("match.surrender", map[string]any{"Side": string(side)})
}

// Rerack announces a rack reorganization.
func (a *Announcer) Rerack(side board.Side, count int) string {
	return a.render("match.rerack", map[string]any{
		"Side":  string(side),
		"Count": count,
	})
}
