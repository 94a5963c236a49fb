package series

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Depth is a nominal depth below surface in centimetres.
type Depth float64

// String formats the depth the way layer labels show it, e.g. "41 cm bs".
func (d Depth) String() string {
	return fmt.Sprintf("%.0f cm bs", float64(d))
}

// ParseDepth reads an anchor label such as "41 cm bs", "0.41 m bs",
// "0.41 m-mv" or "-0.41 m-mv". The sign is dropped: depths are magnitudes.
func ParseDepth(label string) (Depth, error) {
	s := strings.TrimSpace(strings.ToLower(label))
	s = strings.TrimPrefix(s, "referentie ")

	var scale float64
	var number string
	switch {
	case strings.HasSuffix(s, "cm bs"), strings.HasSuffix(s, "cm mv"), strings.HasSuffix(s, "cm-mv"):
		scale = 1
		number = strings.TrimSpace(s[:strings.Index(s, "cm")])
	case strings.HasSuffix(s, "m bs"), strings.HasSuffix(s, "m-mv"), strings.HasSuffix(s, "m mv"):
		scale = 100
		number = strings.TrimSpace(s[:strings.Index(s, "m")])
	default:
		return 0, fmt.Errorf("unrecognised depth label %q", label)
	}

	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognised depth label %q: %w", label, err)
	}
	// 0.41*100 must read back as 41, not 40.99999.
	return Depth(math.Round(math.Abs(v)*scale*1000) / 1000), nil
}

// LayerLabel names the layer between two anchors, deeper-indexed anchor first:
// LayerLabel(6, 41) == "41 cm bs – 6 cm bs".
func LayerLabel(upper, lower Depth) string {
	return fmt.Sprintf("%s – %s", lower, upper)
}
