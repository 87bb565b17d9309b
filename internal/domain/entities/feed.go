package entities

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	// DefaultFeedName is the key nuget.org uses in a stock nuget.config.
	DefaultFeedName = "nuget.org"
	// DefaultFeedURI is the public NuGet v3 service index.
	DefaultFeedURI = "https://api.nuget.org/v3/index.json"
)

// FeedEndpoint is a package source. Position in a feed list defines precedence.
type FeedEndpoint struct {
	Name     string
	URI      string
	Username string
	Password string
}

// HasCredentials reports whether requests to this feed need basic auth.
func (f FeedEndpoint) HasCredentials() bool {
	return f.Username != "" || f.Password != ""
}

// DefaultFeeds returns the single public feed used when nothing else is configured.
func DefaultFeeds() []FeedEndpoint {
	return []FeedEndpoint{{Name: DefaultFeedName, URI: DefaultFeedURI}}
}

// ResolveFeeds reads the <packageSources> of a nuget.config document in document order.
// <clear/> discards the sources collected so far, <disabledPackageSources> removes
// entries, duplicate URIs keep their first occurrence and <packageSourceCredentials>
// are attached by key. An absent document, or one yielding no sources, falls back
// to DefaultFeeds.
func ResolveFeeds(content []byte, present bool) ([]FeedEndpoint, error) {
	if !present {
		return DefaultFeeds(), nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedConfig, err)
	}

	var feeds []FeedEndpoint
	if sources := xmlquery.FindOne(doc, "/configuration/packageSources"); sources != nil {
		for child := sources.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode {
				continue
			}
			switch child.Data {
			case "clear":
				feeds = nil
			case "add":
				key, _ := attributeValue(child, "key")
				value, _ := attributeValue(child, "value")
				if value = strings.TrimSpace(value); value != "" {
					feeds = append(feeds, FeedEndpoint{Name: key, URI: value})
				}
			}
		}
	}

	feeds = removeDisabled(doc, feeds)
	feeds = dedupeFeeds(feeds)
	if len(feeds) == 0 {
		return DefaultFeeds(), nil
	}

	attachCredentials(doc, feeds)
	return feeds, nil
}

func removeDisabled(doc *xmlquery.Node, feeds []FeedEndpoint) []FeedEndpoint {
	disabled := make(map[string]bool)
	for _, node := range xmlquery.Find(doc, "/configuration/disabledPackageSources/add") {
		key, _ := attributeValue(node, "key")
		value, _ := attributeValue(node, "value")
		if strings.EqualFold(strings.TrimSpace(value), "true") {
			disabled[strings.ToLower(key)] = true
		}
	}
	if len(disabled) == 0 {
		return feeds
	}

	enabled := feeds[:0]
	for _, feed := range feeds {
		if !disabled[strings.ToLower(feed.Name)] {
			enabled = append(enabled, feed)
		}
	}
	return enabled
}

func dedupeFeeds(feeds []FeedEndpoint) []FeedEndpoint {
	seen := make(map[string]bool, len(feeds))
	unique := make([]FeedEndpoint, 0, len(feeds))
	for _, feed := range feeds {
		key := strings.ToLower(strings.TrimRight(feed.URI, "/"))
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, feed)
	}
	return unique
}

func attachCredentials(doc *xmlquery.Node, feeds []FeedEndpoint) {
	credentials := xmlquery.FindOne(doc, "/configuration/packageSourceCredentials")
	if credentials == nil {
		return
	}

	for child := credentials.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		// element names encode spaces in source keys as _x0020_
		sourceName := strings.ReplaceAll(child.Data, "_x0020_", " ")
		for i := range feeds {
			if !strings.EqualFold(feeds[i].Name, sourceName) {
				continue
			}
			for _, entry := range xmlquery.Find(child, "add") {
				key, _ := attributeValue(entry, "key")
				value, _ := attributeValue(entry, "value")
				switch strings.ToLower(key) {
				case "username":
					feeds[i].Username = value
				case "cleartextpassword":
					feeds[i].Password = value
				}
			}
		}
	}
}

// ApplyFeedCredentials fills missing credentials from configured overrides, matching
// on feed name or URI.
func ApplyFeedCredentials(feeds []FeedEndpoint, overrides []FeedCredential) []FeedEndpoint {
	result := make([]FeedEndpoint, len(feeds))
	copy(result, feeds)
	for i := range result {
		if result[i].HasCredentials() {
			continue
		}
		for _, override := range overrides {
			if strings.EqualFold(override.Source, result[i].Name) ||
				strings.EqualFold(strings.TrimRight(override.Source, "/"), strings.TrimRight(result[i].URI, "/")) {
				result[i].Username = override.Username
				result[i].Password = override.Password
				break
			}
		}
	}
	return result
}
