// Package dateparse extracts ISO-8601 date ranges from natural-language
// Spanish questions, and detects/splits period-comparison phrasing.
//
// Ranges are half-open [from, to): "to" is always the day after the
// last included day.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bisage.dev/gateway/internal/model"
)

const isoDate = "2006-01-02"

var spanishMonths = map[string]int{
	"enero": 1, "ene": 1,
	"febrero": 2, "feb": 2,
	"marzo": 3, "mar": 3,
	"abril": 4, "abr": 4,
	"mayo": 5, "may": 5,
	"junio": 6, "jun": 6,
	"julio": 7, "jul": 7,
	"agosto": 8, "ago": 8,
	"septiembre": 9, "sep": 9, "sept": 9,
	"octubre": 10, "oct": 10,
	"noviembre": 11, "nov": 11,
	"diciembre": 12, "dic": 12,
}

// monthOrder keeps a deterministic iteration order, mirroring Python's
// intent to check the earlier-declared full name before its abbreviation.
var monthOrder = []string{
	"enero", "ene", "febrero", "feb", "marzo", "mar", "abril", "abr",
	"mayo", "may", "junio", "jun", "julio", "jul", "agosto", "ago",
	"septiembre", "sep", "sept", "octubre", "oct", "noviembre", "nov",
	"diciembre", "dic",
}

var spanishMonthNames = map[int]string{
	1: "enero", 2: "febrero", 3: "marzo", 4: "abril", 5: "mayo", 6: "junio",
	7: "julio", 8: "agosto", 9: "septiembre", 10: "octubre", 11: "noviembre", 12: "diciembre",
}

type quarterRange struct {
	name  string
	start int
	end   int
}

var quarters = []quarterRange{
	{"q1", 1, 3}, {"primer trimestre", 1, 3}, {"1er trimestre", 1, 3},
	{"q2", 4, 6}, {"segundo trimestre", 4, 6}, {"2do trimestre", 4, 6},
	{"q3", 7, 9}, {"tercer trimestre", 7, 9}, {"3er trimestre", 7, 9},
	{"q4", 10, 12}, {"cuarto trimestre", 10, 12}, {"4to trimestre", 10, 12},
}

var comparisonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bvs\.?\b`),
	regexp.MustCompile(`\bversus\b`),
	regexp.MustCompile(`\bcontra\b`),
	regexp.MustCompile(`\bcomparado?\s+con\b`),
	regexp.MustCompile(`\bcomparacion\s+(?:con|de|entre)\b`),
	regexp.MustCompile(`\bdiferencia\s+(?:con|entre)\b`),
}

var splitPattern = regexp.MustCompile(`\s*(?:vs\.?|versus|contra|comparado?\s+con|comparacion\s+(?:con|de)|diferencia\s+(?:con|entre))\s*`)

var (
	reHoy           = regexp.MustCompile(`\bhoy\b`)
	reAyer          = regexp.MustCompile(`\bayer\b`)
	reEstaSemana    = regexp.MustCompile(`\besta\s+semana\b`)
	reSemanaPasada  = regexp.MustCompile(`\b(semana\s+pasada|ultima\s+semana|ultimas?\s+semana)\b`)
	reEsteMes       = regexp.MustCompile(`\beste\s+mes\b`)
	reMesPasado     = regexp.MustCompile(`\b(mes\s+pasado|ultimo\s+mes)\b`)
	reUltimosDias   = regexp.MustCompile(`\bultimos?\s+(\d+)\s+dias?\b`)
	reUltimasSemana = regexp.MustCompile(`\bultimas?\s+(\d+)\s+semanas?\b`)
	reYear          = regexp.MustCompile(`\b(20\d{2})\b`)
	reYearKeyword   = regexp.MustCompile(`\b(ano|year)\b`)
	reRangeOfDays   = regexp.MustCompile(`\bdel?\s+(\d{1,2})\s+al?\s+(\d{1,2})\s+de\s+(\w+)(?:\s+(?:de\s+)?(\d{4}))?\b`)
	reSingleDay     = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(\w+)(?:\s+(?:de\s+)?(\d{4}))?\b`)
	reCyberBlack    = regexp.MustCompile(`\b(cyber\s*monday|black\s*friday)\b`)
)

// normalize lowercases and strips accents so the plain-ASCII patterns
// below ("ultimos", "ano", ...) match accented input too.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
	)
	return replacer.Replace(s)
}

func monthRange(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1)
	to := lastDay.AddDate(0, 0, 1)
	return first.Format(isoDate), to.Format(isoDate)
}

func quarterDateRange(year, startMonth, endMonth int) (string, string) {
	first := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	lastOfEnd := time.Date(year, time.Month(endMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return first.Format(isoDate), lastOfEnd.AddDate(0, 0, 1).Format(isoDate)
}

// ExtractDateRange returns (dateFrom, dateTo) in ISO form, or ("", "")
// if the question carries no recognizable date expression.
func ExtractDateRange(question string) (string, string) {
	q := normalize(question)
	today := time.Now().UTC()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case reHoy.MatchString(q):
		return todayDate.Format(isoDate), todayDate.AddDate(0, 0, 1).Format(isoDate)

	case reAyer.MatchString(q):
		yesterday := todayDate.AddDate(0, 0, -1)
		return yesterday.Format(isoDate), todayDate.Format(isoDate)

	case reEstaSemana.MatchString(q):
		weekday := int(todayDate.Weekday())
		// Python's date.weekday(): Monday=0 ... Sunday=6; Go's Weekday: Sunday=0.
		mondayOffset := (weekday + 6) % 7
		start := todayDate.AddDate(0, 0, -mondayOffset)
		return start.Format(isoDate), start.AddDate(0, 0, 7).Format(isoDate)

	case reSemanaPasada.MatchString(q):
		weekday := int(todayDate.Weekday())
		mondayOffset := (weekday + 6) % 7
		startLastWeek := todayDate.AddDate(0, 0, -mondayOffset-7)
		return startLastWeek.Format(isoDate), startLastWeek.AddDate(0, 0, 7).Format(isoDate)

	case reEsteMes.MatchString(q):
		from, to := monthRange(todayDate.Year(), int(todayDate.Month()))
		return from, to

	case reMesPasado.MatchString(q):
		y, m := todayDate.Year(), int(todayDate.Month())
		if m == 1 {
			y, m = y-1, 12
		} else {
			m = m - 1
		}
		from, to := monthRange(y, m)
		return from, to
	}

	if m := reUltimosDias.FindStringSubmatch(q); m != nil {
		days, _ := strconv.Atoi(m[1])
		start := todayDate.AddDate(0, 0, -days)
		return start.Format(isoDate), todayDate.AddDate(0, 0, 1).Format(isoDate)
	}

	if m := reUltimasSemana.FindStringSubmatch(q); m != nil {
		weeks, _ := strconv.Atoi(m[1])
		start := todayDate.AddDate(0, 0, -weeks*7)
		return start.Format(isoDate), todayDate.AddDate(0, 0, 1).Format(isoDate)
	}

	// An explicit day form ("del 1 al 15 de enero", "5 de marzo") takes
	// precedence over the whole-month forms below.
	dayForm := false
	if m := reRangeOfDays.FindStringSubmatch(q); m != nil {
		_, dayForm = spanishMonths[m[3]]
	}
	if m := reSingleDay.FindStringSubmatch(q); m != nil && !dayForm {
		_, dayForm = spanishMonths[m[2]]
	}

	// Month + explicit year, e.g. "diciembre 2024" / "diciembre de 2024".
	for _, name := range monthOrder {
		pattern := regexp.MustCompile(`\b` + name + `\s+(?:de\s+)?(\d{4})\b`)
		if m := pattern.FindStringSubmatch(q); m != nil && !dayForm {
			year, _ := strconv.Atoi(m[1])
			from, to := monthRange(year, spanishMonths[name])
			return from, to
		}
	}

	// Month alone, current year, as long as no year follows it.
	for _, name := range monthOrder {
		pattern := regexp.MustCompile(`\b(?:en\s+)?` + name + `\b`)
		if m := pattern.FindStringIndex(q); m != nil && !dayForm {
			after := q[m[1]:]
			if !regexp.MustCompile(`^\s*(?:de\s+)?\d{4}`).MatchString(after) {
				from, to := monthRange(todayDate.Year(), spanishMonths[name])
				return from, to
			}
		}
	}

	// Bare year, only when "ano"/"year" is explicitly mentioned and no
	// month name appears (otherwise the month branches above should win).
	if m := reYear.FindStringSubmatch(q); m != nil && !mentionsAnyMonth(q) {
		if reYearKeyword.MatchString(q) {
			year, _ := strconv.Atoi(m[1])
			return strconv.Itoa(year) + "-01-01", strconv.Itoa(year+1) + "-01-01"
		}
	}

	for _, qt := range quarters {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(qt.name) + `\s+(?:de\s+)?(\d{4})\b`)
		if m := pattern.FindStringSubmatch(q); m != nil {
			year, _ := strconv.Atoi(m[1])
			from, to := quarterDateRange(year, qt.start, qt.end)
			return from, to
		}
	}

	if m := reRangeOfDays.FindStringSubmatch(q); m != nil {
		dayStart, _ := strconv.Atoi(m[1])
		dayEnd, _ := strconv.Atoi(m[2])
		monthName := strings.ToLower(m[3])
		year := todayDate.Year()
		if m[4] != "" {
			year, _ = strconv.Atoi(m[4])
		}
		if monthNum, ok := spanishMonths[monthName]; ok {
			start := time.Date(year, time.Month(monthNum), dayStart, 0, 0, 0, 0, time.UTC)
			end := time.Date(year, time.Month(monthNum), dayEnd, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
			return start.Format(isoDate), end.Format(isoDate)
		}
	}

	if m := reSingleDay.FindStringSubmatch(q); m != nil {
		day, _ := strconv.Atoi(m[1])
		monthName := strings.ToLower(m[2])
		year := todayDate.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if monthNum, ok := spanishMonths[monthName]; ok && day >= 1 && day <= 31 && validDay(year, monthNum, day) {
			specific := time.Date(year, time.Month(monthNum), day, 0, 0, 0, 0, time.UTC)
			return specific.Format(isoDate), specific.AddDate(0, 0, 1).Format(isoDate)
		}
	}

	if reCyberBlack.MatchString(q) {
		year := todayDate.Year()
		if m := reYear.FindStringSubmatch(q); m != nil {
			year, _ = strconv.Atoi(m[1])
		}
		from, to := monthRange(year, 11)
		return from, to
	}

	return "", ""
}

func mentionsAnyMonth(q string) bool {
	for name := range spanishMonths {
		if strings.Contains(q, name) {
			return true
		}
	}
	return false
}

func validDay(year, month, day int) bool {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(d.Month()) == month
}

// FormatDateContext renders a human-readable Spanish label for a range,
// used as LLM context and as a comparison-period label fallback.
func FormatDateContext(dateFrom, dateTo string) string {
	if dateFrom == "" || dateTo == "" {
		return "ultimos 30 dias"
	}

	from, err1 := time.Parse(isoDate, dateFrom)
	toExclusive, err2 := time.Parse(isoDate, dateTo)
	if err1 != nil || err2 != nil {
		return dateFrom + " a " + dateTo
	}
	to := toExclusive.AddDate(0, 0, -1)

	if from.Equal(to) {
		return from.Format("02/01/2006")
	}

	if from.Year() == to.Year() && from.Month() == to.Month() {
		lastOfMonth := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
		if from.Day() == 1 && to.Day() == lastOfMonth.Day() {
			name := spanishMonthNames[int(from.Month())]
			return strings.ToUpper(name[:1]) + name[1:] + " " + strconv.Itoa(from.Year())
		}
	}

	return from.Format("02/01/2006") + " a " + to.Format("02/01/2006")
}

// IsComparisonQuery reports whether question contains comparison phrasing
// ("vs", "versus", "contra", "comparado con", ...).
func IsComparisonQuery(question string) bool {
	q := normalize(question)
	for _, p := range comparisonPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}

// ExtractComparisonDates splits question on its comparison trigger and
// resolves a current/previous period pair. When the second half carries
// no date of its own, its period is inferred relative to the first half
// ("pasado"/"anterior"/"previo" means the prior month; a bare month name
// is assumed to be the same or the prior year, whichever keeps it before
// the first half's month). With nothing extractable at all, it defaults
// to this month vs. the previous month.
func ExtractComparisonDates(question string) model.ComparisonDateRange {
	q := normalize(question)
	parts := splitPattern.Split(q, 2)

	today := time.Now().UTC()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	if len(parts) != 2 {
		return defaultComparisonRange(todayDate)
	}

	firstFrom, firstTo := ExtractDateRange(parts[0])
	if firstFrom == "" {
		firstFrom, firstTo = monthRange(todayDate.Year(), int(todayDate.Month()))
	}

	var secondFrom, secondTo string
	if monthNum, ok := extractMonthFromText(parts[1]); ok && !reYear.MatchString(parts[1]) {
		// A bare month in the second half anchors to the first period,
		// staying at or before it: "diciembre 2025 vs noviembre" means
		// noviembre 2025, never the current year's noviembre.
		anchor, err := time.Parse(isoDate, firstFrom)
		if err != nil {
			anchor = todayDate
		}
		year := anchor.Year()
		if monthNum > int(anchor.Month()) {
			year--
		}
		secondFrom, secondTo = monthRange(year, monthNum)
	} else {
		secondFrom, secondTo = ExtractDateRange(parts[1])
		if secondFrom == "" {
			secondFrom, secondTo = inferSecondPeriod(parts[1], firstFrom, todayDate)
		}
	}

	return model.ComparisonDateRange{
		Current:  model.DateRange{Label: FormatDateContext(firstFrom, firstTo), From: firstFrom, To: firstTo},
		Previous: model.DateRange{Label: FormatDateContext(secondFrom, secondTo), From: secondFrom, To: secondTo},
	}
}

func defaultComparisonRange(todayDate time.Time) model.ComparisonDateRange {
	curFrom, curTo := monthRange(todayDate.Year(), int(todayDate.Month()))
	y, m := todayDate.Year(), int(todayDate.Month())
	if m == 1 {
		y, m = y-1, 12
	} else {
		m--
	}
	prevFrom, prevTo := monthRange(y, m)
	return model.ComparisonDateRange{
		Current:  model.DateRange{Label: FormatDateContext(curFrom, curTo), From: curFrom, To: curTo},
		Previous: model.DateRange{Label: FormatDateContext(prevFrom, prevTo), From: prevFrom, To: prevTo},
	}
}

var rePreviousWord = regexp.MustCompile(`\b(pasado|pasada|anterior|previo|previa)\b`)

// inferSecondPeriod resolves the "previous" half of a comparison when it
// has no explicit date of its own.
func inferSecondPeriod(secondHalf, firstFrom string, todayDate time.Time) (string, string) {
	firstFromDate, err := time.Parse(isoDate, firstFrom)
	if err != nil {
		firstFromDate = todayDate
	}

	if rePreviousWord.MatchString(secondHalf) {
		y, m := firstFromDate.Year(), int(firstFromDate.Month())
		if m == 1 {
			y, m = y-1, 12
		} else {
			m--
		}
		return monthRange(y, m)
	}

	if monthNum, ok := extractMonthFromText(secondHalf); ok {
		year := firstFromDate.Year()
		if monthNum > int(firstFromDate.Month()) {
			year--
		}
		return monthRange(year, monthNum)
	}

	y, m := firstFromDate.Year(), int(firstFromDate.Month())
	if m == 1 {
		y, m = y-1, 12
	} else {
		m--
	}
	return monthRange(y, m)
}

func extractMonthFromText(text string) (int, bool) {
	for _, name := range monthOrder {
		if strings.Contains(text, name) {
			return spanishMonths[name], true
		}
	}
	return 0, false
}
