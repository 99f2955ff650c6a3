package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BeanColour is stored as a small integer; zero means the colour was never
// set and renders as "undefined".
type BeanColour int

const (
	ColourUndefined   BeanColour = 0
	ColourGreen       BeanColour = 1
	ColourGolden      BeanColour = 2
	ColourLightRoast  BeanColour = 3
	ColourMediumRoast BeanColour = 4
	ColourDarkRoast   BeanColour = 5
)

var colourLabels = map[BeanColour]string{
	ColourGreen:       "green",
	ColourGolden:      "golden",
	ColourLightRoast:  "light roast",
	ColourMediumRoast: "medium roast",
	ColourDarkRoast:   "dark roast",
}

// Label returns the lowercase display label used on the wire.
func (c BeanColour) Label() string {
	if label, ok := colourLabels[c]; ok {
		return label
	}
	return "undefined"
}

func (c BeanColour) String() string { return c.Label() }

func (c BeanColour) Valid() bool {
	_, ok := colourLabels[c]
	return ok || c == ColourUndefined
}

// ParseBeanColour accepts the display label in any casing, with spaces,
// hyphens or nothing between the words ("dark roast", "dark-roast",
// "darkRoast"). An empty string parses to ColourUndefined.
func ParseBeanColour(raw string) (BeanColour, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	if normalized == "" || normalized == "undefined" {
		return ColourUndefined, nil
	}
	for colour, label := range colourLabels {
		if strings.ReplaceAll(label, " ", "") == normalized {
			return colour, nil
		}
	}
	return ColourUndefined, fmt.Errorf("unknown bean colour %q", raw)
}

// MatchingColours returns every colour whose display label contains the
// given lowercase search text. Used by the search filter.
func MatchingColours(search string) []BeanColour {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return nil
	}
	var matches []BeanColour
	for colour, label := range colourLabels {
		if strings.Contains(label, search) {
			matches = append(matches, colour)
		}
	}
	return matches
}

func (c BeanColour) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Label())
}

func (c *BeanColour) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseBeanColour(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
