// Package emotion classifies free text into an emotional state and a recommended response mode.
package emotion

import "github.com/hrygo/echomind/store"

type Kind string

const (
	KindJoy         Kind = "joy"
	KindSadness     Kind = "sadness"
	KindAnger       Kind = "anger"
	KindFear        Kind = "fear"
	KindSurprise    Kind = "surprise"
	KindStress      Kind = "stress"
	KindPride       Kind = "pride"
	KindShame       Kind = "shame"
	KindBurnout     Kind = "burnout"
	KindExcitement  Kind = "excitement"
	KindAnxiety     Kind = "anxiety"
	KindFrustration Kind = "frustration"
	KindGratitude   Kind = "gratitude"
	KindNeutral     Kind = "neutral"
)

// Kinds lists every emotion kind the classifier may return.
var Kinds = []Kind{
	KindJoy, KindSadness, KindAnger, KindFear, KindSurprise, KindStress, KindPride,
	KindShame, KindBurnout, KindExcitement, KindAnxiety, KindFrustration, KindGratitude, KindNeutral,
}

type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

var Polarities = []Polarity{PolarityPositive, PolarityNegative, PolarityNeutral}

type ResponseMode string

const (
	ModeAnalyst    ResponseMode = "analyst"
	ModeSupport    ResponseMode = "support"
	ModeMotivator  ResponseMode = "motivator"
	ModeChallenger ResponseMode = "challenger"
	ModeListener   ResponseMode = "listener"
	ModeDefault    ResponseMode = "default"
)

var ResponseModes = []ResponseMode{ModeAnalyst, ModeSupport, ModeMotivator, ModeChallenger, ModeListener, ModeDefault}

func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

func (p Polarity) Valid() bool {
	for _, v := range Polarities {
		if v == p {
			return true
		}
	}
	return false
}

func (m ResponseMode) Valid() bool {
	for _, v := range ResponseModes {
		if v == m {
			return true
		}
	}
	return false
}

// Classification is the emotional reading of one message.
type Classification struct {
	Trigger      *string      `json:"trigger"`
	Emotion      Kind         `json:"emotion"`
	Polarity     Polarity     `json:"polarity"`
	ResponseMode ResponseMode `json:"responseMode"`
	Intensity    float64      `json:"intensity"`
}

const defaultIntensity = 0.5

// Default is the neutral reading used for empty input and every failure path.
func Default() Classification {
	return Classification{
		Emotion:      KindNeutral,
		Intensity:    defaultIntensity,
		Polarity:     PolarityNeutral,
		ResponseMode: ModeDefault,
	}
}

// ToStore converts the classification to its persisted form.
func (c Classification) ToStore() *store.MessageEmotion {
	return &store.MessageEmotion{
		Emotion:      string(c.Emotion),
		Intensity:    c.Intensity,
		Polarity:     string(c.Polarity),
		ResponseMode: string(c.ResponseMode),
		Trigger:      c.Trigger,
	}
}

// FromStore rebuilds a classification, applying the same per-field fallbacks as parsing.
func FromStore(e *store.MessageEmotion) Classification {
	c := Default()
	if e == nil {
		return c
	}
	if k := Kind(e.Emotion); k.Valid() {
		c.Emotion = k
	}
	if p := Polarity(e.Polarity); p.Valid() {
		c.Polarity = p
	}
	if m := ResponseMode(e.ResponseMode); m.Valid() {
		c.ResponseMode = m
	}
	if validIntensity(e.Intensity) {
		c.Intensity = e.Intensity
	}
	c.Trigger = e.Trigger
	return c
}
