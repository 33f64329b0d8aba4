// Package analytics computes dashboard aggregates from in-memory
// snapshots. Everything here is derived on demand; nothing is persisted.
package analytics

import (
	"sort"
	"time"

	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

// topLimit caps the ranked lists in a Summary.
const topLimit = 5

// NameCount is a ranked entry in a leaderboard list.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary aggregates the training log.
type Summary struct {
	TotalTechniques      int                       `json:"totalTechniques"`
	TotalSessions        int                       `json:"totalSessions"`
	TechniquesByCategory map[model.Category]int    `json:"techniquesByCategory"`
	SessionsByType       map[model.SessionType]int `json:"sessionsByType"`
	AverageSatisfaction  float64                   `json:"averageSatisfaction"`
	TopSubmissions       []NameCount               `json:"topSubmissions"`
	TopTags              []NameCount               `json:"topTags"`
	CurrentStreakDays    int                       `json:"currentStreakDays"`
	LongestStreakDays    int                       `json:"longestStreakDays"`
}

// Summarize builds a Summary from full snapshots of the three data sets.
func Summarize(techniques []model.Technique, sessions []model.TrainingSession, tags []model.Tag) *Summary {
	s := &Summary{
		TotalTechniques:      len(techniques),
		TotalSessions:        len(sessions),
		TechniquesByCategory: make(map[model.Category]int),
		SessionsByType:       make(map[model.SessionType]int),
		TopSubmissions:       []NameCount{},
		TopTags:              []NameCount{},
	}

	for _, t := range techniques {
		s.TechniquesByCategory[t.Category]++
	}

	submissionTotals := make(map[string]int)
	satisfactionSum := 0
	for _, sess := range sessions {
		s.SessionsByType[sess.Type]++
		satisfactionSum += sess.Satisfaction
		for name, count := range sess.SubmissionCounts {
			submissionTotals[name] += count
		}
	}
	if len(sessions) > 0 {
		s.AverageSatisfaction = float64(satisfactionSum) / float64(len(sessions))
	}

	s.TopSubmissions = rank(submissionTotals)

	tagTotals := make(map[string]int)
	for _, tag := range tags {
		if tag.UsageCount > 0 {
			tagTotals[tag.Name] = tag.UsageCount
		}
	}
	s.TopTags = rank(tagTotals)

	s.CurrentStreakDays, s.LongestStreakDays = streaks(sessions)
	return s
}

// rank orders counts descending, breaking ties by name, keeping topLimit.
func rank(totals map[string]int) []NameCount {
	ranked := make([]NameCount, 0, len(totals))
	for name, count := range totals {
		ranked = append(ranked, NameCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topLimit {
		ranked = ranked[:topLimit]
	}
	return ranked
}

// streaks reports the run of consecutive training days ending at the most
// recent session, and the longest such run anywhere in the log. Multiple
// sessions on one calendar day count once.
func streaks(sessions []model.TrainingSession) (current, longest int) {
	if len(sessions) == 0 {
		return 0, 0
	}

	seen := make(map[time.Time]struct{})
	for _, sess := range sessions {
		d := sess.Date.UTC()
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		seen[day] = struct{}{}
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return run, longest
}
