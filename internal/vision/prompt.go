package vision

import "fmt"

const promptTemplate = `Look at this image and check the following condition: "%s"

Respond using exactly these three lines and nothing else:
SCENE: <one short sentence describing what you see>
CONDITION: <the condition being checked, restated>
ALERT: <YES or NO>

Rules for ALERT:
- Answer YES when the condition, exactly as worded, is true for this image. Otherwise answer NO.
- Conditions may be negated, for example "no helmet", "person NOT wearing a mask" or "door is not closed".
  A negated condition is true when the named thing is absent, so answer YES in that case.
- Use a single word for ALERT: YES or NO.`

func BuildPrompt(condition string) string {
	return fmt.Sprintf(promptTemplate, condition)
}
