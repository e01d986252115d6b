package advice

import (
	"math/rand"
)

var tips = []string{
	"Drink at least 2 liters of water a day to stay properly hydrated.",
	"Include 5 servings of fruits and vegetables in your daily diet.",
	"Do at least 30 minutes of moderate physical activity 5 days a week.",
	"Sleep 7-8 hours a day to support muscle recovery.",
	"Cut down on ultra-processed foods and added sugars.",
	"Add lean protein to every meal to support muscle recovery.",
	"Practice breathing techniques or meditation to reduce stress.",
	"Set SMART goals: specific, measurable, achievable, relevant and time-bound.",
	"Plan your meals weekly to keep a balanced diet.",
	"Alternate strength and cardio training for complete fitness.",
}

// Tips returns a copy of the catalog.
func Tips() []string {
	c := make([]string, len(tips))
	copy(c, tips)
	return c
}

type Advisor struct {
	randFloat func() float64
}

func NewAdvisor() *Advisor {
	return &Advisor{
		randFloat: rand.Float64,
	}
}

// NewAdvisorWithSource uses randFloat (values in [0, 1)) to pick tips.
func NewAdvisorWithSource(randFloat func() float64) *Advisor {
	return &Advisor{
		randFloat: randFloat,
	}
}

func (a *Advisor) RandomTip() string {
	index := int(a.randFloat() * float64(len(tips)))
	if index >= len(tips) {
		index = len(tips) - 1
	}
	return tips[index]
}
