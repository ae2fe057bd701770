package geoscope

import (
	"regexp"
	"strings"
)

// Scope is the geographic reach of an event.
type Scope string

const (
	Global   Scope = "global"
	Regional Scope = "regional"
	Local    Scope = "local"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == Global || s == Regional || s == Local
}

// Result is the detected scope and the phrase that decided it.
type Result struct {
	Scope    Scope  `json:"scope"`
	Location string `json:"location,omitempty"`
}

var (
	globalRegex = regexp.MustCompile(`(?i)\b(global(ly)?|worldwide|world-wide|all (regions|locations|data ?centers)|multiple regions|every region)\b`)
	// cloud region identifiers such as us-east-1, eu-west-2, ap-southeast-1
	regionCodeRegex = regexp.MustCompile(`(?i)\b(us|eu|ap|sa|ca|me|af|il|mx)-(north|south|east|west|central|northeast|northwest|southeast|southwest)-\d\b`)
	continentRegex  = regexp.MustCompile(`(?i)\b(north america|south america|latin america|europe|european|asia|asia pacific|apac|emea|amer|oceania|africa|middle east)\b`)
)

// cities maps lower-case city or point-of-presence names to a display form.
var cities = map[string]string{
	"frankfurt":  "Frankfurt",
	"london":     "London",
	"amsterdam":  "Amsterdam",
	"paris":      "Paris",
	"dublin":     "Dublin",
	"stockholm":  "Stockholm",
	"virginia":   "Virginia",
	"ohio":       "Ohio",
	"oregon":     "Oregon",
	"california": "California",
	"ashburn":    "Ashburn",
	"chicago":    "Chicago",
	"dallas":     "Dallas",
	"seattle":    "Seattle",
	"toronto":    "Toronto",
	"sao paulo":  "Sao Paulo",
	"tokyo":      "Tokyo",
	"singapore":  "Singapore",
	"sydney":     "Sydney",
	"mumbai":     "Mumbai",
	"seoul":      "Seoul",
	"hong kong":  "Hong Kong",
}

// Detector infers geographic scope from incident text
type Detector struct{}

// New creates a new detector instance
func New() *Detector {
	return &Detector{}
}

// Detect returns the widest scope mentioned in text. Text without any
// location hint is treated as local.
func (d *Detector) Detect(text string) Result {
	return Detect(text)
}

// Detect returns the widest scope mentioned in text. Text without any
// location hint is treated as local.
func Detect(text string) Result {
	if m := globalRegex.FindString(text); m != "" {
		return Result{Scope: Global, Location: strings.ToLower(m)}
	}
	if m := regionCodeRegex.FindString(text); m != "" {
		return Result{Scope: Regional, Location: strings.ToLower(m)}
	}
	if m := continentRegex.FindString(text); m != "" {
		return Result{Scope: Regional, Location: m}
	}
	if city := findCity(text); city != "" {
		return Result{Scope: Local, Location: city}
	}
	return Result{Scope: Local}
}

func findCity(text string) string {
	lower := strings.ToLower(text)
	best, bestIdx := "", -1
	for key, name := range cities {
		idx := wordIndex(lower, key)
		if idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = name, idx
		}
	}
	return best
}

// wordIndex finds word in s on word boundaries.
func wordIndex(s, word string) int {
	off := 0
	for {
		i := strings.Index(s[off:], word)
		if i < 0 {
			return -1
		}
		start := off + i
		end := start + len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return start
		}
		off = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
