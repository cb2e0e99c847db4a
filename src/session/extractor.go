package session

import (
	"regexp"
	"slices"
	"strings"

	"github.com/askimmigrate/askimmigrate/src/storage"
)

// Default caps for the bounded context sets. Oldest entries are evicted
// first once a cap is exceeded; most recent mentions win.
const (
	DefaultMaxTopics    = 5
	DefaultMaxVisaTypes = 10
)

// visaVocabulary maps canonical visa tags to the patterns that mention
// them. Matching is case-insensitive on word boundaries; "F1", "f-1" and
// "F-1" all map to the canonical "F-1".
var visaVocabulary = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{"F-1", regexp.MustCompile(`(?i)\bf[- ]?1\b`)},
	{"F-2", regexp.MustCompile(`(?i)\bf[- ]?2\b`)},
	{"J-1", regexp.MustCompile(`(?i)\bj[- ]?1\b`)},
	{"J-2", regexp.MustCompile(`(?i)\bj[- ]?2\b`)},
	{"H-1B", regexp.MustCompile(`(?i)\bh[- ]?1[- ]?b\b`)},
	{"H-4", regexp.MustCompile(`(?i)\bh[- ]?4\b`)},
	{"L-1", regexp.MustCompile(`(?i)\bl[- ]?1\b`)},
	{"O-1", regexp.MustCompile(`(?i)\bo[- ]?1\b`)},
	{"K-1", regexp.MustCompile(`(?i)\bk[- ]?1\b`)},
	{"TN", regexp.MustCompile(`\bTN\b`)},
	{"B-1/B-2", regexp.MustCompile(`(?i)\bb[- ]?1\s*/\s*b[- ]?2\b`)},
	{"B-1", regexp.MustCompile(`(?i)\bb[- ]?1\b`)},
	{"B-2", regexp.MustCompile(`(?i)\bb[- ]?2\b`)},
	{"OPT", regexp.MustCompile(`(?i)\bopt\b`)},
	{"CPT", regexp.MustCompile(`(?i)\bcpt\b`)},
	{"EB-1", regexp.MustCompile(`(?i)\beb[- ]?1\b`)},
	{"EB-2", regexp.MustCompile(`(?i)\beb[- ]?2\b`)},
	{"EB-3", regexp.MustCompile(`(?i)\beb[- ]?3\b`)},
	{"EB-4", regexp.MustCompile(`(?i)\beb[- ]?4\b`)},
	{"EB-5", regexp.MustCompile(`(?i)\beb[- ]?5\b`)},
	{"DACA", regexp.MustCompile(`(?i)\bdaca\b`)},
}

// topicVocabulary is the fixed table of immigration topics tracked in
// ongoing_topics.
var topicVocabulary = []struct {
	topic   string
	pattern *regexp.Regexp
}{
	{"green card", regexp.MustCompile(`(?i)\bgreen\s+card\b`)},
	{"citizenship", regexp.MustCompile(`(?i)\bcitizenship\b`)},
	{"naturalization", regexp.MustCompile(`(?i)\bnaturali[zs]ation\b`)},
	{"work authorization", regexp.MustCompile(`(?i)\bwork\s+(authorization|permit)\b|\bead\b`)},
	{"visa extension", regexp.MustCompile(`(?i)\bexten(d|sion)\b`)},
	{"change of status", regexp.MustCompile(`(?i)\bchange\s+(of|my)\s+status\b|\bstatus\s+change\b`)},
	{"visa interview", regexp.MustCompile(`(?i)\binterview\b`)},
	{"filing fees", regexp.MustCompile(`(?i)\bfees?\b|\bfiling\s+cost\b|\bhow\s+much\b`)},
	{"travel", regexp.MustCompile(`(?i)\btravel\b|\bre-?entry\b|\bleave\s+the\s+(us|country)\b`)},
	{"sponsorship", regexp.MustCompile(`(?i)\bsponsor(ship)?\b`)},
	{"employment", regexp.MustCompile(`(?i)\bemploy(er|ment)\b|\bjob\s+offer\b`)},
	{"grace period", regexp.MustCompile(`(?i)\bgrace\s+period\b`)},
	{"premium processing", regexp.MustCompile(`(?i)\bpremium\s+processing\b`)},
	{"processing times", regexp.MustCompile(`(?i)\bprocessing\s+time\b|\bhow\s+long\b`)},
	{"visa lottery", regexp.MustCompile(`(?i)\blottery\b`)},
	{"asylum", regexp.MustCompile(`(?i)\basylum\b`)},
	{"deportation", regexp.MustCompile(`(?i)\bdeport(ation|ed)?\b|\bremoval\b`)},
}

// situationVocabulary classifies the user's own situation from
// first-person phrases. First match wins; the field is sticky and only
// a new non-empty detection overwrites it.
var situationVocabulary = []struct {
	situation string
	pattern   *regexp.Regexp
}{
	{"student on F-1", regexp.MustCompile(`(?i)\bi\s*('?m|am)\s+(currently\s+)?on\s+(an?\s+)?f[- ]?1\b`)},
	{"worker on H-1B", regexp.MustCompile(`(?i)\bi\s*('?m|am)\s+(currently\s+)?on\s+(an?\s+)?h[- ]?1[- ]?b\b`)},
	{"exchange visitor on J-1", regexp.MustCompile(`(?i)\bi\s*('?m|am)\s+(currently\s+)?on\s+(an?\s+)?j[- ]?1\b`)},
	{"student", regexp.MustCompile(`(?i)\bi\s*('?m|am)\s+(an?\s+)?(international\s+)?(student|studying)\b`)},
	{"recent graduate", regexp.MustCompile(`(?i)\bi\s+(just\s+)?graduat(e|ed)\b`)},
	{"married / has spouse", regexp.MustCompile(`(?i)\bmy\s+(spouse|wife|husband|fianc[ée]e?)\b`)},
	{"employed", regexp.MustCompile(`(?i)\bmy\s+(employer|company|job)\b|\bi\s+work\s+(at|for)\b`)},
	{"has children", regexp.MustCompile(`(?i)\bmy\s+(child|children|son|daughter)\b`)},
}

// questionTypeVocabulary orders the question_type heuristics; the first
// matching class wins, defaulting to unknown.
var questionTypeVocabulary = []struct {
	qtype   storage.QuestionType
	pattern *regexp.Regexp
}{
	{storage.QuestionAdvisory, regexp.MustCompile(`(?i)\bshould\s+i\b|\bis\s+it\s+(better|worth|advisable)\b|\brecommend\b|\badvice\b`)},
	{storage.QuestionProcedural, regexp.MustCompile(`(?i)\bhow\s+(do|can|does|would)\b|\bhow\s+to\b|\bwhat\s+steps\b|\bapply(ing)?\b|\bfile\b|\bprocess\b|\brenew\b`)},
	{storage.QuestionFactual, regexp.MustCompile(`(?i)^\s*(what|when|where|who|which)\b|\bhow\s+(long|much|many)\b|\bdefin(e|ition)\b`)},
}

// Extractor derives SessionContext updates from conversation turns.
// Pure and deterministic: same prior context and turn, same output.
type Extractor struct {
	maxTopics    int
	maxVisaTypes int
}

func NewExtractor(maxTopics, maxVisaTypes int) *Extractor {
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}
	if maxVisaTypes <= 0 {
		maxVisaTypes = DefaultMaxVisaTypes
	}
	return &Extractor{maxTopics: maxTopics, maxVisaTypes: maxVisaTypes}
}

// Extract folds one turn into the prior context and returns the
// replacement context. The input context is not mutated.
func (e *Extractor) Extract(prev storage.SessionContext, turn storage.ConversationTurn) storage.SessionContext {
	next := storage.SessionContext{
		VisaTypesMentioned: slices.Clone(prev.VisaTypesMentioned),
		OngoingTopics:      slices.Clone(prev.OngoingTopics),
		UserSituation:      prev.UserSituation,
	}

	text := turn.Question + "\n" + turn.Answer
	for _, tag := range MatchVisaTypes(text) {
		next.VisaTypesMentioned = appendBounded(next.VisaTypesMentioned, tag, e.maxVisaTypes)
	}
	for _, tag := range turn.VisaFocus {
		if tag != "" && !strings.EqualFold(tag, "none") {
			next.VisaTypesMentioned = appendBounded(next.VisaTypesMentioned, tag, e.maxVisaTypes)
		}
	}

	for _, topic := range MatchTopics(turn.Question) {
		next.OngoingTopics = appendBounded(next.OngoingTopics, topic, e.maxTopics)
	}

	if situation := MatchSituation(turn.Question); situation != "" {
		next.UserSituation = situation
	}

	return next
}

// Replay rebuilds a context from scratch by folding every turn in
// order. Used when the registry's cached context is stale.
func (e *Extractor) Replay(turns []storage.ConversationTurn) storage.SessionContext {
	var ctx storage.SessionContext
	for _, turn := range turns {
		ctx = e.Extract(ctx, turn)
	}
	return ctx
}

// MatchVisaTypes returns the canonical visa tags mentioned in text, in
// vocabulary order, without duplicates.
func MatchVisaTypes(text string) []string {
	var tags []string
	matchedCombined := false
	for _, entry := range visaVocabulary {
		if entry.pattern.MatchString(text) {
			// B-1/B-2 subsumes its components.
			if entry.tag == "B-1/B-2" {
				matchedCombined = true
			}
			if matchedCombined && (entry.tag == "B-1" || entry.tag == "B-2") {
				continue
			}
			tags = append(tags, entry.tag)
		}
	}
	return tags
}

// MatchTopics returns the fixed-vocabulary topics mentioned in text.
func MatchTopics(text string) []string {
	var topics []string
	for _, entry := range topicVocabulary {
		if entry.pattern.MatchString(text) {
			topics = append(topics, entry.topic)
		}
	}
	return topics
}

// MatchSituation classifies the user's situation, or returns "".
func MatchSituation(text string) string {
	for _, entry := range situationVocabulary {
		if entry.pattern.MatchString(text) {
			return entry.situation
		}
	}
	return ""
}

// ClassifyQuestion assigns a question_type when the agent layer did not
// provide one.
func ClassifyQuestion(question string) storage.QuestionType {
	for _, entry := range questionTypeVocabulary {
		if entry.pattern.MatchString(question) {
			return entry.qtype
		}
	}
	return storage.QuestionUnknown
}

// appendBounded appends value if absent, then evicts from the front
// until the set fits the cap.
func appendBounded(set []string, value string, max int) []string {
	if !slices.Contains(set, value) {
		set = append(set, value)
	}
	for len(set) > max {
		set = set[1:]
	}
	return set
}
