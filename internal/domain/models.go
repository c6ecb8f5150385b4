package domain

import "time"

// Block is a top-level assessment section.
type Block string

const (
	BlockCareer   Block = "career"
	BlockAcademic Block = "academic"
)

// Valid reports whether b is a known block.
func (b Block) Valid() bool {
	return b == BlockCareer || b == BlockAcademic
}

// ItemType identifies how an item is answered.
type ItemType string

const (
	ItemMCQ   ItemType = "mcq"
	ItemText  ItemType = "text"
	ItemAudio ItemType = "audio"
	ItemVideo ItemType = "video"
)

// IsMedia reports whether the item is answered with a recording.
func (t ItemType) IsMedia() bool {
	return t == ItemAudio || t == ItemVideo
}

const (
	MinOptions    = 2
	MaxOptions    = 6
	MinDifficulty = 1
	MaxDifficulty = 10
)

// Item is one presentable question.
type Item struct {
	ID     string   `json:"id" bson:"_id"`
	Type   ItemType `json:"type" bson:"type"`
	Prompt string   `json:"question" bson:"question"`
	// Options is only set for multiple-choice items.
	Options []string `json:"options,omitempty" bson:"options,omitempty"`
	// CorrectIndex designates the correct option of a multiple-choice item.
	CorrectIndex int       `json:"correctIndex" bson:"correct_index"`
	Difficulty   int       `json:"difficulty" bson:"difficulty"`
	Block        Block     `json:"block" bson:"block"`
	CreatedAt    time.Time `json:"createdAt,omitempty" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty" bson:"updated_at"`
}

// CorrectOption returns the designated correct option text, if any.
func (i Item) CorrectOption() (string, bool) {
	if i.Type != ItemMCQ || i.CorrectIndex < 0 || i.CorrectIndex >= len(i.Options) {
		return "", false
	}
	return i.Options[i.CorrectIndex], true
}

// HasOption reports whether option is one of the item's options.
func (i Item) HasOption(option string) bool {
	for _, o := range i.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Public strips fields that must not reach test takers.
func (i Item) Public() PublicItem {
	return PublicItem{
		ID:         i.ID,
		Type:       i.Type,
		Prompt:     i.Prompt,
		Options:    i.Options,
		Difficulty: i.Difficulty,
	}
}

// PublicItem is the wire shape of an item during an assessment.
type PublicItem struct {
	ID         string   `json:"id"`
	Type       ItemType `json:"type"`
	Prompt     string   `json:"question"`
	Options    []string `json:"options,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
}

// Trait is a named competency accumulated across a block.
type Trait string

const (
	TraitTeamwork      Trait = "teamwork"
	TraitEmpathy       Trait = "empathy"
	TraitCommunication Trait = "communication"
	TraitLogic         Trait = "logic"
	TraitCreativity    Trait = "creativity"
)

// Traits lists every trait in display order.
var Traits = []Trait{TraitTeamwork, TraitEmpathy, TraitCommunication, TraitLogic, TraitCreativity}

// Traits lists the traits a block accumulates.
func (b Block) Traits() []Trait {
	switch b {
	case BlockCareer:
		return []Trait{TraitTeamwork, TraitEmpathy, TraitCommunication}
	case BlockAcademic:
		return []Trait{TraitLogic, TraitCreativity}
	default:
		return nil
	}
}

// NewSubscores returns a zeroed accumulator for block.
func NewSubscores(block Block) Subscores {
	s := Subscores{}
	for _, trait := range block.Traits() {
		s[trait] = 0
	}
	return s
}

// Subscores maps traits to running totals.
type Subscores map[Trait]int

// Add accumulates delta into s.
func (s Subscores) Add(delta Subscores) {
	for trait, v := range delta {
		s[trait] += v
	}
}

// Clone returns an independent copy.
func (s Subscores) Clone() Subscores {
	out := make(Subscores, len(s))
	for trait, v := range s {
		out[trait] = v
	}
	return out
}

// AnswerRecord is one finalized answer. Records are appended, never mutated.
type AnswerRecord struct {
	ItemID     string    `json:"questionId"`
	Type       ItemType  `json:"type"`
	Answer     Answer    `json:"-"`
	CapturedAt time.Time `json:"timestamp"`
}

// BlockResult is what a block emits on completion.
type BlockResult struct {
	Block     Block          `json:"block"`
	Answers   []AnswerRecord `json:"answers"`
	Subscores Subscores      `json:"subscores"`
}

// Clone deep-copies the result so the receiver cannot observe later changes.
func (r BlockResult) Clone() BlockResult {
	answers := make([]AnswerRecord, len(r.Answers))
	copy(answers, r.Answers)
	return BlockResult{Block: r.Block, Answers: answers, Subscores: r.Subscores.Clone()}
}

// Aggregate is the orchestrator's accumulated output.
type Aggregate struct {
	Career         BlockResult `json:"career"`
	Academic       BlockResult `json:"academic"`
	CognitiveScore int         `json:"cognitiveScore"`
	// CognitivePlayed is false when the game never produced a score.
	CognitivePlayed bool `json:"cognitivePlayed"`
}

// Subscores merges both blocks into one trait map.
func (a Aggregate) Subscores() Subscores {
	out := Subscores{}
	for _, trait := range Traits {
		out[trait] = 0
	}
	out.Add(a.Career.Subscores)
	out.Add(a.Academic.Subscores)
	return out
}

// SentimentScore is one label of a sentiment classification.
type SentimentScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SubmitResult is the adaptive service's reply to a response submission.
type SubmitResult struct {
	UpdatedTheta         float64 `json:"updated_theta"`
	NextRecommendedBlock string  `json:"next_recommended_block,omitempty"`
}

// Career is one recommended occupation.
type Career struct {
	Title       string `json:"title"`
	Match       int    `json:"match"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Recommendations pairs careers with suggested majors.
type Recommendations struct {
	Careers []Career `json:"careers"`
	Majors  []string `json:"majors"`
}

// SkillScore is one point of the competency chart.
type SkillScore struct {
	Skill string `json:"skill"`
	Score int    `json:"score"`
}

// Report is the results screen.
type Report struct {
	Normalized     map[Trait]int `json:"normalized"`
	Skills         []SkillScore  `json:"skills"`
	Careers        []Career      `json:"careers"`
	Majors         []string      `json:"majors"`
	CognitiveScore int           `json:"cognitiveScore"`
	// Dynamic is true when recommendations came from the recommendation service.
	Dynamic bool `json:"dynamic"`
}
