package emotion

import (
	"fmt"
	"strings"
)

// responseModePolicy is sent to the model as-is.
const responseModePolicy = `Choose responseMode with this mapping:
- support: sadness, shame, burnout, grief, loneliness
- motivator: excitement, goal-sharing, achievement
- challenger: complacency, avoidance, procrastination
- listener: high-intensity stress, anxiety, overwhelm
- analyst: neutral, technical, planning content
- default: anything else (casual, joy, gratitude)`

func joinKinds() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func joinModes() string {
	names := make([]string, len(ResponseModes))
	for i, m := range ResponseModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

var systemPrompt = fmt.Sprintf(`You classify the emotional content of a single user message.
Reply with one JSON object and nothing else:
{"emotion": string, "intensity": number, "polarity": string, "responseMode": string, "trigger": string}

emotion must be one of: %s
polarity must be one of: positive, negative, neutral
intensity is a number from 0 to 1
responseMode must be one of: %s
trigger is a short phrase naming what caused the feeling, or "" if unclear.

%s`, joinKinds(), joinModes(), responseModePolicy)

// classificationSchema mirrors the JSON object requested above for strict structured output.
type classificationSchema struct {
	Emotion      string  `json:"emotion" jsonschema:"enum=joy,enum=sadness,enum=anger,enum=fear,enum=surprise,enum=stress,enum=pride,enum=shame,enum=burnout,enum=excitement,enum=anxiety,enum=frustration,enum=gratitude,enum=neutral"`
	Intensity    float64 `json:"intensity" jsonschema:"minimum=0,maximum=1"`
	Polarity     string  `json:"polarity" jsonschema:"enum=positive,enum=negative,enum=neutral"`
	ResponseMode string  `json:"responseMode" jsonschema:"enum=analyst,enum=support,enum=motivator,enum=challenger,enum=listener,enum=default"`
	Trigger      string  `json:"trigger"`
}
