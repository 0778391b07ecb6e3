package catalog

import (
	"fmt"
	"math/rand"
	"strings"
)

// DialogueGenerator produces the long-horizon conversation used by the
// durability level. Output is fully determined by (seed, turns): the same
// inputs produce byte-identical transcripts, so a run can be reproduced
// exactly from its parameters.
type DialogueGenerator struct {
	Seed  int64
	Turns int
}

// dialogue building blocks; indexed deterministically by the seeded source.
var (
	dialogueTopics = []string{
		"the quarterly maintenance schedule",
		"the sensor calibration procedure",
		"the vendor contract renewal",
		"the incident response checklist",
		"the deployment freeze window",
		"the backup rotation policy",
	}
	dialogueFillers = []string{
		"Let me think about that for a moment.",
		"That matches what we discussed earlier.",
		"I want to make sure we are consistent here.",
		"Noted, I will keep that in mind.",
		"Can you confirm the details once more?",
		"That changes how I was thinking about it.",
	}
	factSubjects = []string{
		"the primary contact", "the approval quorum", "the retention period",
		"the rollback deadline", "the escalation channel", "the review cadence",
	}
	factValues = []string{
		"Dana Whitfield", "three reviewers", "ninety days",
		"the last Friday of the month", "the operations bridge", "every second Tuesday",
	}
)

// Generate returns the transcript plus the facts embedded in it. Facts are
// planted at spread-out turns so recalling them requires retaining early
// conversation state across many intervening turns.
func (g *DialogueGenerator) Generate() (string, []string) {
	rng := rand.New(rand.NewSource(g.Seed))

	var sb strings.Builder
	var facts []string

	factEvery := g.Turns / len(factSubjects)
	if factEvery < 1 {
		factEvery = 1
	}

	for turn := 0; turn < g.Turns; turn++ {
		topic := dialogueTopics[rng.Intn(len(dialogueTopics))]

		if turn%factEvery == 0 && len(facts) < len(factSubjects) {
			i := len(facts)
			fact := fmt.Sprintf("%s for %s is %s", factSubjects[i], topic, factValues[i])
			facts = append(facts, fact)
			fmt.Fprintf(&sb, "User (turn %d): Remember this: %s.\n", turn+1, fact)
		} else {
			fmt.Fprintf(&sb, "User (turn %d): Regarding %s, %s\n",
				turn+1, topic, dialogueFillers[rng.Intn(len(dialogueFillers))])
		}

		fmt.Fprintf(&sb, "Assistant (turn %d): %s\n",
			turn+1, dialogueFillers[rng.Intn(len(dialogueFillers))])
	}

	return sb.String(), facts
}
