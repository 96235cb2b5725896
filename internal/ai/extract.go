package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// REGEX EXTRACTION LAYER
// =============================================================================

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

var vehicleMakes = []string{
	"toyota", "honda", "ford", "chevrolet", "chevy", "nissan", "hyundai",
	"kia", "subaru", "mazda", "volkswagen", "vw", "bmw", "mercedes",
	"audi", "lexus", "acura", "infiniti", "dodge", "jeep", "ram",
	"gmc", "buick", "cadillac", "chrysler", "tesla", "volvo", "porsche",
}

var vehicleColors = []string{
	"black", "white", "silver", "gray", "grey", "red", "blue", "green",
	"brown", "tan", "beige", "gold", "yellow", "orange", "purple",
	"maroon", "burgundy", "navy", "charcoal",
}

var lossTypeKeywords = map[string][]string{
	"collision": {"crash", "hit", "collision", "accident", "rear-end", "t-bone", "sideswipe"},
	"theft":     {"stolen", "theft", "break-in", "broke into"},
	"weather":   {"hail", "flood", "storm", "wind", "tree", "lightning"},
	"vandalism": {"vandal", "keyed", "graffiti", "smashed"},
	"glass":     {"windshield", "window", "glass"},
	"fire":      {"fire", "burned", "flames"},
}

// lossTypeOrder keeps extraction deterministic over the keyword map. Glass
// precedes weather so "windshield" never reads as the "wind" keyword.
var lossTypeOrder = []string{"collision", "theft", "glass", "weather", "vandalism", "fire"}

var damageAreaKeywords = map[string][]string{
	"front":       {"front", "bumper", "hood", "headlight", "grille"},
	"rear":        {"rear", "back", "trunk", "taillight"},
	"left_side":   {"left", "driver side", "driver's side"},
	"right_side":  {"right", "passenger side", "passenger's side"},
	"roof":        {"roof", "top"},
	"windshield":  {"windshield", "front window"},
	"side_window": {"side window", "door window"},
}

var damageAreaOrder = []string{"front", "rear", "left_side", "right_side", "roof", "windshield", "side_window"}

var injuryKeywords = []string{
	"hurt", "injured", "injury", "pain", "hospital", "ambulance",
	"bleeding", "broken", "whiplash", "neck", "back", "head",
}

var (
	reDateSlash = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
	reDateISO   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	reTime      = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)?`)
	rePhone     = regexp.MustCompile(`\(?(\d{3})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})`)
	reEmail     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	reZip       = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	reYear      = regexp.MustCompile(`\b(199\d|20[0-3]\d)\b`)
	reVIN       = regexp.MustCompile(`\b([A-HJ-NPR-Z0-9]{17})\b`)
	rePlate     = regexp.MustCompile(`\b([A-Z]{1,3}[-\s]?\d{1,4}[-\s]?[A-Z]{0,3}|\d{1,3}[-\s]?[A-Z]{3})\b`)
	reStreet    = regexp.MustCompile(`(?i)(\d+\s+[\w\s]+(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|boulevard|blvd|way|circle|cir|court|ct))\b`)
	reFullName  = regexp.MustCompile(`\b([A-Z][a-z]+)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`)
)

var naturalTimes = []struct {
	word  string
	value string
}{
	{"midnight", "00:00"},
	{"morning", "09:00"},
	{"noon", "12:00"},
	{"afternoon", "14:00"},
	{"evening", "18:00"},
	{"night", "21:00"},
}

// RegexExtractor is the deterministic extraction layer. A fallback
// extractor (typically Gemini-backed) may be attached; its output only
// fills fields the regex layer left empty.
type RegexExtractor struct {
	fallback Extractor
	now      func() time.Time
}

// NewRegexExtractor builds an extractor with an optional schema-constrained
// fallback.
func NewRegexExtractor(fallback Extractor) *RegexExtractor {
	return &RegexExtractor{fallback: fallback, now: time.Now}
}

func wantTarget(targets []string, name string) bool {
	if len(targets) == 0 {
		return true
	}
	for _, t := range targets {
		if t == name {
			return true
		}
	}
	return false
}

// Extract pulls every recognizable entity from the text. It never returns
// an error for the regex layer; only a failed fallback surfaces one, and
// even then the regex results are returned alongside it.
func (x *RegexExtractor) Extract(ctx context.Context, text string, targets []string) (*Entities, error) {
	e := &Entities{}
	lower := strings.ToLower(text)

	x.extractDate(text, lower, e)
	x.extractTime(text, lower, e)
	extractPhone(text, e)
	extractEmail(text, e)
	extractZip(text, e)
	extractState(text, e)

	if wantTarget(targets, "vehicle") {
		extractVehicle(text, lower, e)
	}
	if wantTarget(targets, "location") {
		extractLocation(text, e)
	}
	if wantTarget(targets, "name") {
		extractName(text, e)
	}
	if wantTarget(targets, "loss_type") {
		extractLossType(lower, e)
	}
	if wantTarget(targets, "injury") {
		extractInjury(lower, e)
	}
	if wantTarget(targets, "damage") {
		extractDamageAreas(lower, e)
	}

	if x.fallback != nil {
		fb, err := x.fallback.Extract(ctx, text, targets)
		if err != nil {
			return e, fmt.Errorf("extraction fallback: %w", err)
		}
		mergeEntities(e, fb)
	}
	return e, nil
}

// mergeEntities copies fallback values into dst only where dst is empty.
func mergeEntities(dst, src *Entities) {
	if src == nil {
		return
	}
	pick := func(d **Value, s *Value) {
		if *d == nil && s != nil {
			*d = s
		}
	}
	pick(&dst.Date, src.Date)
	pick(&dst.Time, src.Time)
	pick(&dst.Location, src.Location)
	pick(&dst.State, src.State)
	pick(&dst.ZipCode, src.ZipCode)
	pick(&dst.VehicleYear, src.VehicleYear)
	pick(&dst.VehicleMake, src.VehicleMake)
	pick(&dst.VehicleModel, src.VehicleModel)
	pick(&dst.VehicleColor, src.VehicleColor)
	pick(&dst.VehicleVIN, src.VehicleVIN)
	pick(&dst.LicensePlate, src.LicensePlate)
	pick(&dst.FullName, src.FullName)
	pick(&dst.Phone, src.Phone)
	pick(&dst.Email, src.Email)
	pick(&dst.LossType, src.LossType)
	pick(&dst.InjuryMentioned, src.InjuryMentioned)
	if len(dst.DamageAreas) == 0 {
		dst.DamageAreas = src.DamageAreas
	}
}

func (x *RegexExtractor) extractDate(text, lower string, e *Entities) {
	if m := reDateSlash.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if d, ok := validDate(year, month, day); ok {
			e.Date = &Value{Value: d, Confidence: 0.95, SourceText: m[0]}
			return
		}
	}
	if m := reDateISO.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := validDate(year, month, day); ok {
			e.Date = &Value{Value: d, Confidence: 0.95, SourceText: m[0]}
			return
		}
	}
	today := x.now()
	if strings.Contains(lower, "yesterday") {
		e.Date = &Value{Value: today.AddDate(0, 0, -1).Format("2006-01-02"), Confidence: 0.9, SourceText: "yesterday"}
	} else if strings.Contains(lower, "today") {
		e.Date = &Value{Value: today.Format("2006-01-02"), Confidence: 0.9, SourceText: "today"}
	}
}

func validDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

func (x *RegexExtractor) extractTime(text, lower string, e *Entities) {
	if m := reTime.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		period := strings.ToLower(m[3])
		if period == "pm" && hour != 12 {
			hour += 12
		} else if period == "am" && hour == 12 {
			hour = 0
		}
		if hour < 24 && minute < 60 {
			e.Time = &Value{Value: fmt.Sprintf("%02d:%02d", hour, minute), Confidence: 0.9, SourceText: m[0]}
			return
		}
	}
	for _, nt := range naturalTimes {
		if strings.Contains(lower, nt.word) {
			e.Time = &Value{Value: nt.value, Confidence: 0.6, SourceText: nt.word}
			return
		}
	}
}

func extractPhone(text string, e *Entities) {
	if m := rePhone.FindStringSubmatch(text); m != nil {
		e.Phone = &Value{Value: m[1] + m[2] + m[3], Confidence: 0.95, SourceText: m[0]}
	}
}

func extractEmail(text string, e *Entities) {
	if m := reEmail.FindString(text); m != "" {
		e.Email = &Value{Value: strings.ToLower(m), Confidence: 0.98, SourceText: m}
	}
}

func extractZip(text string, e *Entities) {
	if m := reZip.FindStringSubmatch(text); m != nil {
		e.ZipCode = &Value{Value: m[1], Confidence: 0.9, SourceText: m[0]}
	}
}

func extractState(text string, e *Entities) {
	for _, word := range regexp.MustCompile(`[A-Za-z]+`).FindAllString(text, -1) {
		upper := strings.ToUpper(word)
		if len(word) == 2 && word == upper && usStates[upper] {
			e.State = &Value{Value: upper, Confidence: 0.85, SourceText: word}
			return
		}
	}
}

func extractVehicle(text, lower string, e *Entities) {
	if m := reYear.FindString(text); m != "" {
		e.VehicleYear = &Value{Value: m, Confidence: 0.85, SourceText: m}
	}
	for _, make := range vehicleMakes {
		if regexp.MustCompile(`\b` + make + `\b`).MatchString(lower) {
			normalized := titleWord(make)
			switch make {
			case "chevy":
				normalized = "Chevrolet"
			case "vw":
				normalized = "Volkswagen"
			case "bmw":
				normalized = "BMW"
			case "gmc":
				normalized = "GMC"
			}
			e.VehicleMake = &Value{Value: normalized, Confidence: 0.9, SourceText: make}
			break
		}
	}
	for _, color := range vehicleColors {
		if regexp.MustCompile(`\b` + color + `\b`).MatchString(lower) {
			e.VehicleColor = &Value{Value: titleWord(color), Confidence: 0.9, SourceText: color}
			break
		}
	}
	if m := reVIN.FindString(strings.ToUpper(text)); m != "" {
		e.VehicleVIN = &Value{Value: m, Confidence: 0.95, SourceText: m}
	}
	if m := rePlate.FindString(strings.ToUpper(text)); m != "" {
		compact := strings.NewReplacer("-", "", " ", "").Replace(m)
		if len(compact) >= 4 {
			e.LicensePlate = &Value{Value: compact, Confidence: 0.7, SourceText: m}
		}
	}
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func extractLocation(text string, e *Entities) {
	if m := reStreet.FindString(text); m != "" {
		e.Location = &Value{Value: strings.TrimSpace(m), Confidence: 0.8, SourceText: m}
	}
}

func extractName(text string, e *Entities) {
	if m := reFullName.FindString(text); m != "" {
		e.FullName = &Value{Value: strings.TrimSpace(m), Confidence: 0.7, SourceText: m}
	}
}

func extractLossType(lower string, e *Entities) {
	for _, lt := range lossTypeOrder {
		for _, kw := range lossTypeKeywords[lt] {
			if strings.Contains(lower, kw) {
				e.LossType = &Value{Value: lt, Confidence: 0.85, SourceText: kw}
				return
			}
		}
	}
}

func extractInjury(lower string, e *Entities) {
	for _, kw := range injuryKeywords {
		if strings.Contains(lower, kw) {
			e.InjuryMentioned = &Value{Value: "true", Confidence: 0.8, SourceText: kw}
			return
		}
	}
}

func extractDamageAreas(lower string, e *Entities) {
	for _, area := range damageAreaOrder {
		for _, kw := range damageAreaKeywords[area] {
			if strings.Contains(lower, kw) {
				e.DamageAreas = append(e.DamageAreas, Value{Value: area, Confidence: 0.75, SourceText: kw})
				break
			}
		}
	}
}
