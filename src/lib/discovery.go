package lib

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

// DiscoveryEvent is one listing from the third-party discovery feed. The
// feed's schema differs from the catalog's (nested _embedded.events,
// images[n].url, dates.start.dateTime); it is kept as its own type rather
// than force-fit into models.Spectacle.
type DiscoveryEvent struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	ImageURL string     `json:"image_url,omitempty"`
	Venue    string     `json:"venue,omitempty"`
	DateTime *time.Time `json:"date_time,omitempty"`
}

var discoveryBaseURL = "https://app.ticketmaster.com/discovery/v2"

func discoveryAPIKey() string {
	return os.Getenv("DISCOVERY_API_KEY")
}

// DiscoveryListEvents fetches one page of music events, sorted by date.
func DiscoveryListEvents(ctx context.Context, keyword string) ([]DiscoveryEvent, error) {
	q := url.Values{}
	q.Set("apikey", discoveryAPIKey())
	q.Set("classificationName", "music")
	q.Set("sort", "date,asc")
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	endpoint := fmt.Sprintf("%s/events.json?%s", discoveryBaseURL, q.Encode())
	body, err := discoveryGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	events := make([]DiscoveryEvent, 0)
	for _, item := range gjson.GetBytes(body, "_embedded.events").Array() {
		events = append(events, parseDiscoveryEvent(item))
	}
	return events, nil
}

// DiscoveryEventDetails fetches a single event by its feed id.
func DiscoveryEventDetails(ctx context.Context, id string) (*DiscoveryEvent, error) {
	endpoint := fmt.Sprintf("%s/events/%s.json?apikey=%s", discoveryBaseURL, url.PathEscape(id), discoveryAPIKey())
	body, err := discoveryGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	event := parseDiscoveryEvent(gjson.ParseBytes(body))
	return &event, nil
}

func discoveryGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Error response from discovery API: %s\n", err.Error())
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		err := fmt.Errorf("discovery API returned status %d", res.StatusCode)
		log.Println(err.Error())
		return nil, err
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Printf("Error reading discovery response: %s\n", err.Error())
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("discovery API returned invalid json")
	}
	return body, nil
}

func parseDiscoveryEvent(item gjson.Result) DiscoveryEvent {
	event := DiscoveryEvent{
		ID:    item.Get("id").String(),
		Name:  item.Get("name").String(),
		Venue: item.Get("_embedded.venues.0.name").String(),
	}
	if img := item.Get("images.0.url"); img.Exists() {
		event.ImageURL = img.String()
	}
	if start := item.Get("dates.start.dateTime"); start.Exists() {
		if dt, err := time.Parse(time.RFC3339, start.String()); err == nil {
			event.DateTime = &dt
		}
	}
	return event
}
