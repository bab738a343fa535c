package imagefields

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

// Report lists the items touched by Sanitize.
type Report struct {
	Cleared    []string
	Backfilled []string
}

// Empty reports whether Sanitize changed nothing.
func (r Report) Empty() bool {
	return len(r.Cleared) == 0 && len(r.Backfilled) == 0
}

// Sanitize normalizes the custom image group of every item in place. Known
// hosts get their source corrected and stale or missing attribution
// backfilled. Any group left without a usable URL or attribution is cleared
// so the item falls back to default imagery.
func Sanitize(snap *models.Snapshot) Report {
	var report Report
	if snap == nil {
		return report
	}

	for id, item := range snap.Items {
		if item == nil || !item.HasCustomImage() {
			continue
		}
		switch sanitizeItem(item) {
		case outcomeCleared:
			report.Cleared = append(report.Cleared, id)
		case outcomeBackfilled:
			report.Backfilled = append(report.Backfilled, id)
		case outcomeUnchanged:
		}
	}

	sort.Strings(report.Cleared)
	sort.Strings(report.Backfilled)
	return report
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeBackfilled
	outcomeCleared
)

func sanitizeItem(item *models.ItemState) outcome {
	u, ok := parseImageURL(item.ImageURL)
	if !ok {
		item.ClearCustomImage()
		return outcomeCleared
	}

	before := *item
	item.ImageURL = strings.TrimSpace(item.ImageURL)
	item.ImageAttribution = strings.TrimSpace(item.ImageAttribution)
	item.ImageAttributionURL = strings.TrimSpace(item.ImageAttributionURL)
	item.ImageSource = strings.ToLower(strings.TrimSpace(item.ImageSource))

	if p, known := ProviderForHost(u.Hostname()); known {
		item.ImageSource = p.Source
		if item.ImageAttribution == "" || isStaleLabel(item.ImageAttribution, p) {
			item.ImageAttribution = p.Label
		}
		if item.ImageAttributionURL == "" {
			item.ImageAttributionURL = p.SiteURL
		}
	} else if item.ImageSource == "" {
		item.ImageSource = SourceCustom
	}

	if item.ImageAttribution == "" {
		item.ClearCustomImage()
		return outcomeCleared
	}

	if item.ImageSource != before.ImageSource ||
		item.ImageAttribution != before.ImageAttribution ||
		item.ImageAttributionURL != before.ImageAttributionURL {
		return outcomeBackfilled
	}
	return outcomeUnchanged
}

func parseImageURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
