package domain

import "fmt"

// Performance is the display tier derived from a record's percentage.
type Performance struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

// Tier maps a percentage to its performance tier. Thresholds are fixed:
// 90 Legendary, 75 Excellent, 60 Good, otherwise Complete.
func Tier(percentage float64) Performance {
	switch {
	case percentage >= 90:
		return Performance{Level: "Legendary", Description: "Perfect Strategic Execution"}
	case percentage >= 75:
		return Performance{Level: "Excellent", Description: "Outstanding Performance"}
	case percentage >= 60:
		return Performance{Level: "Good", Description: "Solid Strategic Thinking"}
	default:
		return Performance{Level: "Complete", Description: "Mission Finished"}
	}
}

// Insights are the qualitative strengths and growth-area bullets shown on
// the results view.
type Insights struct {
	Performance Performance `json:"performance"`
	Strengths   []string    `json:"strengths"`
	GrowthAreas []string    `json:"growthAreas"`
}

// ProjectInsights derives the results-view aggregates from a score record.
// Pure and reproducible from the record alone.
func ProjectInsights(record ScoreRecord) Insights {
	insights := Insights{Performance: Tier(record.Percentage)}

	detailed := 0
	perfect := 0
	struggling := 0
	thin := 0
	allJustified := len(record.PerQuestion) > 0
	for _, q := range record.PerQuestion {
		if len(q.Instruction) > 50 {
			detailed++
		}
		if q.RankingScore >= 90 {
			perfect++
		}
		if q.RankingScore < 60 {
			struggling++
		}
		if len(q.Instruction) < 30 {
			thin++
		}
		if q.Instruction == "" {
			allJustified = false
		}
	}

	if record.Percentage >= 90 {
		insights.Strengths = append(insights.Strengths, "Exceptional ranking accuracy")
	} else if record.Percentage >= 75 {
		insights.Strengths = append(insights.Strengths, "Strong overall performance")
	}
	if detailed > 0 {
		insights.Strengths = append(insights.Strengths, "Detailed strategic explanations")
	}
	if perfect > 0 {
		insights.Strengths = append(insights.Strengths, fmt.Sprintf("Perfect scores on %d question(s)", perfect))
	}
	if allJustified {
		insights.Strengths = append(insights.Strengths, "All justifications completed")
	}

	if record.Percentage < 75 {
		insights.GrowthAreas = append(insights.GrowthAreas, "Review ranking criteria and practice")
	}
	if struggling > 0 {
		insights.GrowthAreas = append(insights.GrowthAreas, fmt.Sprintf("%d question(s) need attention", struggling))
	}
	if thin > 0 {
		insights.GrowthAreas = append(insights.GrowthAreas, "Provide more detailed explanations")
	}
	if record.Percentage < 60 {
		insights.GrowthAreas = append(insights.GrowthAreas, "Focus on strategic thinking patterns")
	}

	return insights
}
