package services

import (
	"sort"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
)

const (
	PlayerWindow    = 30 * time.Minute
	CommunityWindow = 60 * time.Minute
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// PlayerActivity summarizes the busiest session in the player window.
type PlayerActivity struct {
	Wallet           string
	SessionID        string
	Events           int
	Taps             int
	TapsPerMinute    float64
	SessionMinutes   float64
	Achievements     int
	Upgrades         int
	MegaSlaps        int
	EvolutionLevel   int
	MinutesSinceLast float64
}

type CommunityActivity struct {
	Events        int
	UniqueWallets int
	TapsPerMinute float64
	Positive      int
	Negative      int
	Sentiment     Sentiment
}

// BuildPlayerActivity picks the session with the most events in the trailing
// player window. Ties go to the session whose last event is most recent.
func BuildPlayerActivity(events []entities.GameEvent, now time.Time) (PlayerActivity, bool) {
	type session struct {
		activity PlayerActivity
		first    time.Time
		last     time.Time
	}
	from := now.Add(-PlayerWindow)
	sessions := map[string]*session{}
	for _, event := range events {
		if event.OccurredAt.Before(from) || event.OccurredAt.After(now) {
			continue
		}
		key := event.SessionID
		if key == "" {
			key = "wallet:" + event.Wallet
		}
		s, ok := sessions[key]
		if !ok {
			s = &session{
				activity: PlayerActivity{Wallet: event.Wallet, SessionID: event.SessionID},
				first:    event.OccurredAt,
				last:     event.OccurredAt,
			}
			sessions[key] = s
		}
		if event.OccurredAt.Before(s.first) {
			s.first = event.OccurredAt
		}
		if event.OccurredAt.After(s.last) {
			s.last = event.OccurredAt
		}
		s.activity.Events++
		s.activity.Taps += max(event.Taps, 0)
		switch event.Type {
		case entities.EventAchievementUnlocked:
			s.activity.Achievements++
		case entities.EventUpgradePurchased:
			s.activity.Upgrades++
		case entities.EventMegaSlap:
			s.activity.MegaSlaps++
		}
		if event.EvolutionLevel > s.activity.EvolutionLevel {
			s.activity.EvolutionLevel = event.EvolutionLevel
		}
	}
	if len(sessions) == 0 {
		return PlayerActivity{}, false
	}

	keys := make([]string, 0, len(sessions))
	for key := range sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var best *session
	for _, key := range keys {
		s := sessions[key]
		if best == nil ||
			s.activity.Events > best.activity.Events ||
			(s.activity.Events == best.activity.Events && s.last.After(best.last)) {
			best = s
		}
	}

	activity := best.activity
	activity.SessionMinutes = best.last.Sub(best.first).Minutes()
	activity.TapsPerMinute = float64(activity.Taps) / max(activity.SessionMinutes, 1)
	activity.MinutesSinceLast = max(now.Sub(best.last).Minutes(), 0)
	return activity, true
}

// BuildCommunityActivity aggregates every event in the community window.
func BuildCommunityActivity(events []entities.GameEvent, now time.Time) CommunityActivity {
	from := now.Add(-CommunityWindow)
	wallets := map[string]struct{}{}
	var out CommunityActivity
	taps := 0
	for _, event := range events {
		if event.OccurredAt.Before(from) || event.OccurredAt.After(now) {
			continue
		}
		out.Events++
		taps += max(event.Taps, 0)
		if event.Wallet != "" {
			wallets[event.Wallet] = struct{}{}
		}
		switch {
		case event.Type.Positive():
			out.Positive++
		case event.Type.Negative():
			out.Negative++
		}
	}
	out.UniqueWallets = len(wallets)
	out.TapsPerMinute = float64(taps) / CommunityWindow.Minutes()
	out.Sentiment = ClassifySentiment(out.Positive, out.Negative)
	return out
}

// ClassifySentiment compares positive to negative event counts. A ratio of at
// least 1.5 is positive; at most 0.67 (with any negative event) is negative.
func ClassifySentiment(positive int, negative int) Sentiment {
	if negative == 0 {
		if positive > 0 {
			return SentimentPositive
		}
		return SentimentNeutral
	}
	ratio := float64(positive) / float64(negative)
	switch {
	case ratio >= 1.5:
		return SentimentPositive
	case ratio <= 0.67:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
