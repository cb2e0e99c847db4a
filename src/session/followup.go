package session

import (
	"regexp"

	"github.com/askimmigrate/askimmigrate/src/storage"
)

// sessionReferencePatterns mark questions about the conversation itself.
// These route to verbatim lookup instead of synthesis.
var sessionReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfirst\s+question\b`),
	regexp.MustCompile(`(?i)\bwhat\s+did\s+i\s+ask\b`),
	regexp.MustCompile(`(?i)\bwhat\s+was\s+my\b`),
	regexp.MustCompile(`(?i)\b(my\s+)?(previous|earlier|last)\s+question\b`),
	regexp.MustCompile(`(?i)\bwhat\s+did\s+you\s+(say|answer|tell\s+me)\b`),
	regexp.MustCompile(`(?i)\bask(ed)?\s+(you\s+)?(before|earlier|previously)\b`),
}

// anaphoraPattern matches pronouns that need an antecedent from prior
// conversation when the question itself supplies none.
var anaphoraPattern = regexp.MustCompile(`(?i)\b(it|that|this|they|them|those)\b`)

// Detector decides whether a question implicitly depends on prior turns.
// It never fails; anything unrecognized degrades to "fresh question",
// because a false negative only costs context while a false positive
// answers the wrong question.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect applies the policy rules in order, first match wins:
//
//  1. no prior turns            → not a follow-up
//  2. session-reference pattern → follow-up, direct recall
//  3. unresolved pronoun + accumulated context → follow-up
//  4. shared visa type or topic with the context → follow-up
//  5. otherwise                 → not a follow-up
func (d *Detector) Detect(question string, ctx storage.SessionContext, history []storage.ConversationTurn) FollowupResult {
	if len(history) == 0 {
		return FollowupResult{Reason: ReasonNoPriorTurns}
	}

	for _, pattern := range sessionReferencePatterns {
		if pattern.MatchString(question) {
			return FollowupResult{IsFollowup: true, IsDirectRecall: true, Reason: ReasonSessionReference}
		}
	}

	questionVisas := MatchVisaTypes(question)

	// A pronoun counts as unresolved only when the question names no
	// visa type of its own to anchor it.
	if anaphoraPattern.MatchString(question) && len(questionVisas) == 0 && ctx.HasSignals() {
		return FollowupResult{IsFollowup: true, Reason: ReasonPronounReference}
	}

	for _, tag := range questionVisas {
		for _, known := range ctx.VisaTypesMentioned {
			if tag == known {
				return FollowupResult{IsFollowup: true, Reason: ReasonSharedTopic}
			}
		}
	}
	questionTopics := MatchTopics(question)
	for _, topic := range questionTopics {
		for _, known := range ctx.OngoingTopics {
			if topic == known {
				return FollowupResult{IsFollowup: true, Reason: ReasonSharedTopic}
			}
		}
	}

	return FollowupResult{Reason: ReasonNewQuestion}
}
