// Package readme renders the catalog into marker-delimited README
// fragments and splices them into the target document.
package readme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/til/internal/models"
)

// Section kinds. Each kind owns one "<!-- kind starts -->…<!-- kind ends -->" pair.
const (
	KindIndex    = "index"
	KindCategory = "category"
	KindCount    = "count"
)

// SortOrder documents how entries are ordered inside a topic: most recent
// created_utc first, ties broken by ascending catalog key.
const SortOrder = "created_utc DESC, path ASC"

// StartMarker returns the opening marker for kind.
func StartMarker(kind string) string {
	return "<!-- " + kind + " starts -->"
}

// EndMarker returns the closing marker for kind.
func EndMarker(kind string) string {
	return "<!-- " + kind + " ends -->"
}

// TopicGroup is one topic with its entries in SortOrder.
type TopicGroup struct {
	Topic string
	Notes []models.Note
}

// Group partitions notes by topic. Topics come out in ascending
// lexicographic order; entries inside a topic follow SortOrder regardless
// of the input order.
func Group(notes []models.Note) []TopicGroup {
	byTopic := make(map[string][]models.Note)
	for _, n := range notes {
		byTopic[n.Topic] = append(byTopic[n.Topic], n)
	}

	out := make([]TopicGroup, 0, len(byTopic))
	for topic, entries := range byTopic {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].CreatedUTC != entries[j].CreatedUTC {
				return entries[i].CreatedUTC > entries[j].CreatedUTC
			}
			return entries[i].Path < entries[j].Path
		})
		out = append(out, TopicGroup{Topic: topic, Notes: entries})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// RenderIndex renders the index fragment: a "## topic" heading per topic
// followed by one "* [title](url) - date" bullet per note.
func RenderIndex(groups []TopicGroup) string {
	lines := []string{StartMarker(KindIndex)}
	for _, g := range groups {
		lines = append(lines, "## "+g.Topic+"\n")
		for _, n := range g.Notes {
			lines = append(lines, fmt.Sprintf("* [%s](%s) - %s", n.Title, n.URL, datePart(n.Created)))
		}
		lines = append(lines, "")
	}
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	lines = append(lines, EndMarker(KindIndex))
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// RenderCategory renders one "* [topic](#slug) - count" bullet per topic.
func RenderCategory(groups []TopicGroup) string {
	lines := []string{StartMarker(KindCategory)}
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("* [%s](#%s) - %d", g.Topic, Slug(g.Topic), len(g.Notes)))
	}
	lines = append(lines, EndMarker(KindCategory))
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// RenderCount renders the total note count on a single line.
func RenderCount(n int) string {
	return fmt.Sprintf("%s%d%s", StartMarker(KindCount), n, EndMarker(KindCount))
}

// Slug is the in-document anchor for a topic heading: lower-cased with
// spaces replaced by hyphens.
func Slug(topic string) string {
	return strings.ReplaceAll(strings.ToLower(topic), " ", "-")
}

// datePart returns the date portion of an ISO-8601 timestamp.
func datePart(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return date
}
