package generate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// OutlineGenerator builds a structured template lesson without any network
// access. The content is generic study scaffolding around the topic rather
// than real subject matter, which makes it the fallback when no generation
// service is configured and the generator of choice for tests. Output is
// deterministic for a given request apart from the lesson ID and timestamp.
type OutlineGenerator struct{}

// NewOutlineGenerator returns an offline lesson generator.
func NewOutlineGenerator() *OutlineGenerator {
	return &OutlineGenerator{}
}

// facet is one reusable middle-section template. Title and narration may
// reference the topic with %[1]s.
type facet struct {
	title     string
	points    []string
	narration string
}

// facets are cycled through to fill the middle of the outline. The intro
// and review slides are built separately.
var facets = []facet{
	{
		title: "Key Concepts",
		points: []string{
			"The vocabulary you need before anything else makes sense",
			"How the main ideas of %[1]s relate to each other",
			"What to keep in mind as the lesson builds on these",
		},
		narration: "Every subject has a handful of ideas that everything else hangs off. " +
			"For %[1]s, start by getting comfortable with the core vocabulary, because the " +
			"later sections use these terms without stopping to redefine them. Notice how " +
			"the concepts relate to one another rather than memorizing each in isolation.",
	},
	{
		title: "How It Works",
		points: []string{
			"The mechanism behind %[1]s, one step at a time",
			"Which steps matter most and which are bookkeeping",
			"Where the process can stall or go wrong",
		},
		narration: "With the vocabulary in place, walk through how %[1]s actually works from " +
			"start to finish. Follow the sequence slowly the first time and mark the steps " +
			"that carry the real weight. Most of the difficulty lives in one or two of them, " +
			"and knowing which ones saves you from studying everything equally.",
	},
	{
		title: "Worked Examples",
		points: []string{
			"A simple case of %[1]s worked end to end",
			"A harder case that exercises the edge conditions",
			"What changes between the two and why",
		},
		narration: "Examples turn an abstract description of %[1]s into something you can " +
			"check your understanding against. Work the simple case yourself before reading " +
			"the solution, then try the harder one and compare where your reasoning diverged. " +
			"The difference between the two cases is usually where the insight lives.",
	},
	{
		title: "Common Pitfalls",
		points: []string{
			"Mistakes almost everyone makes when learning %[1]s",
			"Why the intuitive answer is sometimes the wrong one",
			"Habits that prevent the most expensive errors",
		},
		narration: "Certain mistakes come up again and again when people learn %[1]s, and " +
			"knowing them in advance is cheaper than making them. Pay attention to the places " +
			"where intuition points one way and the correct answer goes the other. Those are " +
			"the spots worth slowing down for.",
	},
	{
		title: "Putting It Into Practice",
		points: []string{
			"Where %[1]s shows up outside the textbook",
			"How practitioners apply it day to day",
			"A small exercise you can try on your own",
		},
		narration: "Theory sticks when you see it used. Look at where %[1]s appears in real " +
			"work and how practitioners lean on it without thinking twice. Then try a small " +
			"exercise of your own; even a rough attempt teaches more than another read " +
			"through the material.",
	},
	{
		title: "Going Deeper",
		points: []string{
			"Questions about %[1]s this lesson leaves open",
			"Neighboring topics worth exploring next",
			"How to tell when you are ready to move on",
		},
		narration: "No single lesson covers %[1]s completely, so keep a list of the questions " +
			"it raised for you. The neighboring topics are where those answers live, and " +
			"following one of them is the natural next step. You are ready to move on when " +
			"you can explain the core ideas to someone else without notes.",
	},
}

// introByLevel sets the framing sentence of the opening slide.
var introByLevel = map[string]string{
	LevelBeginner:     "We will take it step by step and define every term as it comes up.",
	LevelIntermediate: "You have seen the basics before, so we will focus on how the pieces fit together.",
	LevelAdvanced:     "We will move through the fundamentals quickly and spend most of the time on the hard parts.",
}

// Generate builds the outline lesson. The context is only checked on
// entry; there is no work here worth interrupting.
func (g *OutlineGenerator) Generate(ctx context.Context, req Request) (*lesson.Presentation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	req = req.normalized()

	topic := displayTopic(req.Topic)
	p := &lesson.Presentation{
		Title:    topic,
		Topic:    req.Topic,
		Level:    req.Level,
		Kind:     req.Kind,
		Language: req.Language,
		Slides:   make([]lesson.Slide, 0, req.SlideCount),
		Quiz:     outlineQuiz(topic),
	}

	p.Slides = append(p.Slides, introSlide(topic, req))
	for i := 0; i < req.SlideCount-2; i++ {
		p.Slides = append(p.Slides, facetSlide(topic, req.Kind, i))
	}
	p.Slides = append(p.Slides, reviewSlide(topic, req.Kind))

	lesson.Normalize(p)
	if err := lesson.Validate(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return p, nil
}

func introSlide(topic string, req Request) lesson.Slide {
	framing := introByLevel[req.Level]
	s := lesson.Slide{
		Title: fmt.Sprintf("Introducing %s", topic),
		Narration: fmt.Sprintf("Welcome. This lesson is an introduction to %s. %s "+
			"Along the way there are short checkpoints to make sure the material is "+
			"landing, so settle in and let the slides carry you through.", topic, framing),
	}
	if req.Kind == lesson.KindSlides {
		s.Points = []string{
			fmt.Sprintf("What %s is and why it matters", topic),
			"How this lesson is organized",
			"What you should be able to do afterwards",
		}
	}
	return s
}

func facetSlide(topic string, kind lesson.Kind, i int) lesson.Slide {
	f := facets[i%len(facets)]
	title := expand(f.title, topic)
	if pass := i / len(facets); pass > 0 {
		title = fmt.Sprintf("%s, Part %d", title, pass+1)
	}
	s := lesson.Slide{
		Title:     title,
		Narration: expand(f.narration, topic),
	}
	if kind == lesson.KindSlides {
		s.Points = make([]string, len(f.points))
		for j, p := range f.points {
			s.Points[j] = expand(p, topic)
		}
	}
	return s
}

func reviewSlide(topic string, kind lesson.Kind) lesson.Slide {
	s := lesson.Slide{
		Title: "Review and Next Steps",
		Narration: fmt.Sprintf("That completes our tour of %s. Run back through the sections "+
			"in your head and notice which ones you can reconstruct and which have gone "+
			"fuzzy already. The fuzzy ones are tomorrow's reading list. When you are ready, "+
			"replay any slide from the timeline or take the lesson again at a harder level.", topic),
	}
	if kind == lesson.KindSlides {
		s.Points = []string{
			"The core ideas, one more time",
			"Which sections deserve a second pass",
			fmt.Sprintf("Where to go after %s", topic),
		}
	}
	return s
}

// outlineQuiz returns study-skill questions. A template generator cannot
// quiz on real subject matter, so these check engagement with the lesson
// structure instead.
func outlineQuiz(topic string) []lesson.QuizQuestion {
	return []lesson.QuizQuestion{
		{
			Prompt: fmt.Sprintf("What is the most useful first step when studying %s?", topic),
			Options: []string{
				"Memorize every detail in order",
				"Get comfortable with the core concepts and vocabulary",
				"Skip ahead to the advanced material",
				"Read the review section only",
			},
			Answer: 1,
			Explanation: "The later sections build on the core vocabulary without " +
				"redefining it, so that foundation pays for itself immediately.",
		},
		{
			Prompt: fmt.Sprintf("When a step of %s feels unintuitive, what does this lesson suggest?", topic),
			Options: []string{
				"Trust your intuition and move on",
				"Slow down, because that is where mistakes concentrate",
				"Skip the step entirely",
				"Restart the lesson from the beginning",
			},
			Answer: 1,
			Explanation: "Places where intuition and the correct answer diverge are " +
				"exactly where the common pitfalls live.",
		},
		{
			Prompt: fmt.Sprintf("How do you know you are ready to move past %s?", topic),
			Options: []string{
				"You finished watching every slide",
				"You can quote the definitions verbatim",
				"You can explain the core ideas to someone else without notes",
				"You scored well on a single quiz",
			},
			Answer: 2,
			Explanation: "Explaining a topic unaided is the quickest honest test of " +
				"whether it has actually stuck.",
		},
	}
}

// expand substitutes the topic into a template.
func expand(tmpl, topic string) string {
	if !strings.Contains(tmpl, "%[1]s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, topic)
}

var topicCaser = cases.Title(language.English)

// displayTopic capitalizes an all-lowercase topic for titles. Topics the
// user already cased, such as acronyms, pass through untouched.
func displayTopic(topic string) string {
	if topic != strings.ToLower(topic) {
		return topic
	}
	return topicCaser.String(topic)
}
