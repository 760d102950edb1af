package leads

import "sync"

// Category is the sales priority of a lead.
type Category string

const (
	CategoryHot  Category = "hot"
	CategoryWarm Category = "warm"
	CategoryCold Category = "cold"
)

// Category thresholds.
const (
	HotThreshold  = 70
	WarmThreshold = 40
)

// Field names reported in QualificationResult.MissingInfo.
const (
	FieldEmail       = "email"
	FieldCompany     = "company"
	FieldCompanySize = "company size"
	FieldNeeds       = "needs"
	FieldTimeline    = "timeline"
)

var recommendedActions = map[Category]string{
	CategoryHot:  "schedule immediate consultation with senior consultant",
	CategoryWarm: "nurture with targeted content and follow-up",
	CategoryCold: "add to newsletter and provide self-service resources",
}

var nextQuestions = map[string]string{
	FieldEmail:       "What email address can we use to follow up with you?",
	FieldCompany:     "Which company are you with?",
	FieldCompanySize: "Roughly how many people work at your organization?",
	FieldNeeds:       "What would you most like AI to help your team with?",
	FieldTimeline:    "When are you hoping to have something in place?",
}

// QualificationResult is derived from a LeadInfo and never stored.
type QualificationResult struct {
	Score             int      `json:"score"`
	Category          Category `json:"category"`
	RecommendedAction string   `json:"recommendedAction"`
	MissingInfo       []string `json:"missingInfo"`
}

// Score returns the lead score in [0, 100].
func Score(l LeadInfo) int {
	score := 0
	if l.Email != "" {
		score += 15
	}
	if l.Company != "" {
		score += 10
	}
	if l.Industry != "" {
		score += 5
	}
	if l.CompanySize != "" {
		score += 10
		if l.CompanySize == SizeEnterprise {
			score += 10
		}
	}
	if len(l.Needs) > 0 {
		score += 15
		if len(l.Needs) > 2 {
			score += 10
		}
	}
	if l.Timeline != "" {
		score += 15
		if l.Timeline == TimelineImmediate {
			score += 15
		}
	}
	if l.Budget != "" {
		score += 10
	}
	return min(score, 100)
}

// Categorize maps a score to its category.
func Categorize(score int) Category {
	switch {
	case score >= HotThreshold:
		return CategoryHot
	case score >= WarmThreshold:
		return CategoryWarm
	default:
		return CategoryCold
	}
}

// MissingInfo lists absent fields in follow-up order.
func MissingInfo(l LeadInfo) []string {
	missing := make([]string, 0, 5)
	if l.Email == "" {
		missing = append(missing, FieldEmail)
	}
	if l.Company == "" {
		missing = append(missing, FieldCompany)
	}
	if l.CompanySize == "" {
		missing = append(missing, FieldCompanySize)
	}
	if len(l.Needs) == 0 {
		missing = append(missing, FieldNeeds)
	}
	if l.Timeline == "" {
		missing = append(missing, FieldTimeline)
	}
	return missing
}

// Qualify scores l.
func Qualify(l LeadInfo) QualificationResult {
	score := Score(l)
	category := Categorize(score)
	return QualificationResult{
		Score:             score,
		Category:          category,
		RecommendedAction: recommendedActions[category],
		MissingInfo:       MissingInfo(l),
	}
}

// ShouldEscalate reports whether a human should take over.
func ShouldEscalate(l LeadInfo) bool {
	return Categorize(Score(l)) == CategoryHot || len(l.Needs) > 3
}

// Qualifier accumulates lead information across a conversation.
type Qualifier struct {
	mu   sync.RWMutex
	lead LeadInfo
}

// NewQualifier creates a qualifier with no known fields.
func NewQualifier() *Qualifier {
	return &Qualifier{}
}

// Update merges partial into the accumulated lead.
func (q *Qualifier) Update(partial LeadInfo) {
	q.mu.Lock()
	q.lead.Merge(partial)
	q.mu.Unlock()
}

// Lead returns a copy of the accumulated lead.
func (q *Qualifier) Lead() LeadInfo {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.lead.Clone()
}

// Qualify scores the accumulated lead.
func (q *Qualifier) Qualify() QualificationResult {
	return Qualify(q.Lead())
}

// ShouldEscalateToHuman is true for hot leads and for leads with more than
// three needs.
func (q *Qualifier) ShouldEscalateToHuman() bool {
	return ShouldEscalate(q.Lead())
}

// NextQuestion returns the question for the first missing field, or "".
func (q *Qualifier) NextQuestion() string {
	return NextQuestionFor(q.Lead())
}

// NextQuestionFor returns the follow-up question for the first field
// missing from l, or "" when nothing is missing.
func NextQuestionFor(l LeadInfo) string {
	missing := MissingInfo(l)
	if len(missing) == 0 {
		return ""
	}
	return nextQuestions[missing[0]]
}
