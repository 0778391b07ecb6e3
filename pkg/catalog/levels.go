package catalog

import (
	"fmt"

	"github.com/XiaoConstantine/crucible/pkg/core"
)

// Builtin returns the standard ten-level capability ladder, ordered from
// single-source recall up to long-horizon durability.
func Builtin() *Catalog {
	c, err := New(
		levelRecall(),
		levelTemporal(),
		levelUpdate(),
		levelContradiction(),
		levelCausal(),
		levelFormat(),
		levelProcedural(),
		levelTransfer(),
		levelTeaching(),
		levelLongHorizon(),
	)
	if err != nil {
		// Builtin definitions are compile-time constants; a failure here is
		// a programming error, not a runtime condition.
		panic(err)
	}
	return c
}

func levelRecall() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L1-recall",
		Name:        "Single-source recall",
		Description: "Learn one document and answer direct factual questions about it.",
		Articles: []core.Article{
			{
				Title: "Meridian Observatory overview",
				Content: "The Meridian Observatory sits at 2,340 meters on the " +
					"eastern ridge of Mount Calder. It operates three telescopes: " +
					"the 4.2-meter Halvorsen reflector, a 1.8-meter survey " +
					"instrument, and a solar tower completed in 1987. The site " +
					"director is Dr. Priya Raghunathan, who took the post in 2019.",
			},
		},
		Questions: []core.Question{
			{
				ID:       "q1",
				Prompt:   "What is the aperture of the Halvorsen reflector?",
				Expected: "4.2 meters",
				Type:     core.QuestionRecall,
			},
			{
				ID:       "q2",
				Prompt:   "Who directs the Meridian Observatory, and since when?",
				Expected: "Dr. Priya Raghunathan, since 2019",
				Type:     core.QuestionRecall,
			},
		},
	}
}

func levelTemporal() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L2-temporal",
		Name:        "Temporal ordering",
		Description: "Track a quantity that changes over time and reason about its trajectory.",
		RequiresTemporalOrdering: true,
		Articles: []core.Article{
			{
				Title: "Reservoir report, March",
				Content: "In March the Ashford reservoir held 18,400 megaliters, " +
					"down from its winter peak. Outflow to the valley was capped " +
					"at 90 megaliters per day.",
			},
			{
				Title: "Reservoir report, June",
				Content: "By June the Ashford reservoir had fallen to 15,100 " +
					"megaliters. The outflow cap was tightened to 60 megaliters " +
					"per day on June 10th.",
			},
			{
				Title: "Reservoir report, September",
				Content: "September storms raised the Ashford reservoir to 16,900 " +
					"megaliters, the first rise of the year. The 60 megaliter cap " +
					"remained in force.",
			},
		},
		Questions: []core.Question{
			{
				ID: "q1",
				Prompt: "How did the Ashford reservoir's volume change between " +
					"March and September? Give the net change in megaliters.",
				Expected: "It fell by a net 1,500 megaliters: 18,400 in March, " +
					"down to 15,100 in June, recovering to 16,900 in September. " +
					"Numeric values take priority over trend prose.",
				Type: core.QuestionTemporal,
			},
			{
				ID:       "q2",
				Prompt:   "What was the outflow cap in August, and when was it set?",
				Expected: "60 megaliters per day, set on June 10th",
				Type:     core.QuestionTemporal,
			},
		},
	}
}

func levelUpdate() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L3-update",
		Name:        "Update handling",
		Description: "Later documents supersede earlier ones where they conflict.",
		RequiresUpdateHandling: true,
		Articles: []core.Article{
			{
				Title: "Transit plan, initial",
				Phase: core.PhaseInitial,
				Content: "The Линия-North transit line will open with 12 stations. " +
					"Fares are set at 2.50 per ride, and service will run from " +
					"5:30 to midnight.",
			},
			{
				Title: "Transit plan, revision",
				Phase: core.PhaseUpdate,
				Content: "Following budget review, the Линия-North line will open " +
					"with 9 stations rather than the earlier figure. Fares are " +
					"unchanged. Service hours now extend to 1:30 am on weekends.",
			},
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "How many stations will the line open with?",
				Expected: "9 stations. The revision supersedes the initial figure " +
					"of 12; an answer of 12 reflects stale data.",
				Type: core.QuestionUpdate,
			},
			{
				ID:       "q2",
				Prompt:   "What is the fare per ride?",
				Expected: "2.50, unchanged across both documents",
				Type:     core.QuestionUpdate,
			},
		},
	}
}

func levelContradiction() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L4-contradiction",
		Name:        "Contradiction detection",
		Description: "Sources disagree; the agent must surface the conflict rather than pick silently.",
		Articles: []core.Article{
			{
				Title: "Survey A",
				Content: "The Kestrel bridge was completed in 1962 according to " +
					"county records, with a main span of 310 meters.",
			},
			{
				Title: "Survey B",
				Content: "Engineering archives list the Kestrel bridge as " +
					"completed in 1965, with a main span of 310 meters.",
			},
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "When was the Kestrel bridge completed?",
				Expected: "The sources conflict: county records say 1962, " +
					"engineering archives say 1965. Full credit requires " +
					"explicitly acknowledging the conflict; partial credit for " +
					"naming one year with a caveat.",
				Type: core.QuestionContradiction,
			},
			{
				ID:       "q2",
				Prompt:   "What is the main span of the bridge?",
				Expected: "310 meters, consistent across both sources",
				Type:     core.QuestionRecall,
			},
		},
	}
}

func levelCausal() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L5-causal",
		Name:        "Causal reasoning",
		Description: "Identify a defensible root cause from observed effects.",
		Articles: []core.Article{
			{
				Title: "Outage timeline",
				Content: "At 02:10 the cache tier began rejecting writes. At " +
					"02:14 request latency doubled. At 02:20 the primary " +
					"database hit its connection ceiling and the site returned " +
					"errors. A config push at 02:05 had halved the cache " +
					"tier's memory limit. Separately, the nightly batch import " +
					"started at 02:00 as usual.",
			},
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "What caused the site outage at 02:20? Explain the chain.",
				Expected: "The 02:05 config push shrank the cache, cache " +
					"rejections pushed reads to the database, which exhausted " +
					"connections. The batch import is an acceptable contributing " +
					"cause if the stated chain is internally consistent; multiple " +
					"independently valid root causes are accepted.",
				Type: core.QuestionCausal,
			},
			{
				ID:     "q2",
				Prompt: "If the config push had been reverted at 02:12, would the outage have occurred?",
				Expected: "Likely not, or in reduced form: the cache would have " +
					"recovered before the database hit its connection ceiling. " +
					"This is a hypothetical; refusing to engage scores zero.",
				Type: core.QuestionHypothetical,
			},
		},
	}
}

func levelFormat() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L6-format",
		Name:        "Format generation",
		Description: "Produce a structured answer containing required fields.",
		Articles: []core.Article{
			{
				Title: "Incident 4417 notes",
				Content: "Incident 4417 opened on May 3rd when the billing " +
					"exporter stalled. Severity was set to 2. Marcos Deng owned " +
					"the response, and the fix shipped on May 5th.",
			},
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "Summarize incident 4417 as a report with fields: id, severity, owner, opened, resolved.",
				Expected: "id 4417, severity 2, owner Marcos Deng, opened May 3, " +
					"resolved May 5. Only presence and correctness of required " +
					"fields is scored; extra optional fields must not reduce the score.",
				Type:           core.QuestionFormat,
				RequiredFields: []string{"id", "severity", "owner", "opened", "resolved"},
			},
		},
	}
}

func levelProcedural() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L7-procedural",
		Name:        "Procedural ordering",
		Description: "Retain a multi-step procedure and reproduce its ordering constraints.",
		Articles: []core.Article{
			{
				Title: "Decommission runbook",
				Content: "To decommission a node: first drain traffic, then " +
					"snapshot local state, then deregister from discovery, then " +
					"revoke credentials, and finally power down. Deregistering " +
					"before the snapshot risks losing the state manifest.",
			},
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "List the decommission steps in order.",
				Expected: "Drain traffic, snapshot local state, deregister from " +
					"discovery, revoke credentials, power down. Order matters.",
				Type: core.QuestionProcedural,
			},
			{
				ID:       "q2",
				Prompt:   "Why must the snapshot precede deregistration?",
				Expected: "Deregistering first risks losing the state manifest.",
				Type:     core.QuestionCausal,
			},
		},
	}
}

func levelTransfer() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L8-transfer",
		Name:        "Cross-domain transfer",
		Description: "Derive a ratio in one domain and carry its direction into another.",
		Articles: []core.Article{
			{
				Title: "Bakery throughput",
				Content: "The bakery's two ovens bake 40 and 60 loaves per hour. " +
					"Doubling staff on the prep line raised total output by 25 " +
					"percent because the ovens, not prep, were already the bottleneck.",
			},
			{
				Title: "Render farm",
				Content: "The render farm has two clusters processing 400 and " +
					"600 frames per hour. A proposal would double the number of " +
					"artists submitting scenes.",
			},
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "Based on the bakery result, what output change should doubling the artists produce?",
				Expected: "A modest increase, bounded well below double - around " +
					"25 percent - because the clusters are the bottleneck, " +
					"mirroring the ovens. The direction of the derived trend is " +
					"the primary correctness signal.",
				Type: core.QuestionTransfer,
			},
		},
	}
}

func levelTeaching() core.CapabilityLevel {
	return core.CapabilityLevel{
		ID:          "L9-teaching",
		Name:        "Teaching transfer",
		Description: "Teach a learner instance the source material through dialogue; graded on coverage.",
		Teaching:    true,
		Articles: []core.Article{
			{
				Title: "Tidefall protocol",
				Content: "The Tidefall protocol has three rules: observations " +
					"are logged within ten minutes, every log entry names two " +
					"witnesses, and disputed entries are escalated to the warden " +
					"rather than edited.",
			},
		},
		RequiredFacts: []string{
			"observations are logged within ten minutes",
			"every log entry names two witnesses",
			"disputed entries are escalated to the warden",
		},
		Questions: []core.Question{
			{
				ID:     "q1",
				Prompt: "Teaching coverage of the Tidefall protocol rules",
				Expected: "The dialogue must convey all three rules: the " +
					"ten-minute logging window, the two-witness requirement, and " +
					"warden escalation for disputes.",
				Type: core.QuestionTeaching,
			},
		},
	}
}

func levelLongHorizon() core.CapabilityLevel {
	gen := &DialogueGenerator{Seed: 42, Turns: 60}
	transcript, facts := gen.Generate()

	questions := make([]core.Question, 0, len(facts))
	for i, fact := range facts {
		questions = append(questions, core.Question{
			ID:       fmt.Sprintf("q%d", i+1),
			Prompt:   fmt.Sprintf("From the long conversation: what is %s?", fact[:indexOfIs(fact)]),
			Expected: fact,
			Type:     core.QuestionRecall,
		})
	}

	return core.CapabilityLevel{
		ID:          "L10-longhorizon",
		Name:        "Long-horizon durability",
		Description: "Retain facts planted early in a long dialogue across many intervening turns.",
		RequiresTemporalOrdering: true,
		Articles: []core.Article{
			{Title: "Long conversation transcript", Content: transcript},
		},
		Questions: questions,
	}
}

// indexOfIs trims a planted fact "X for Y is Z" down to its subject "X for Y".
func indexOfIs(fact string) int {
	for i := 0; i+4 <= len(fact); i++ {
		if fact[i:i+4] == " is " {
			return i
		}
	}
	return len(fact)
}
