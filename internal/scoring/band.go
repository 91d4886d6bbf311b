package scoring

// Band is the presentational bucket an adoption score falls into.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandModerate  Band = "moderate"
	BandLow       Band = "low"
)

type bandEntry struct {
	min            int
	band           Band
	recommendation string
	summary        string
}

// bands is ordered from the highest floor down; the first floor a score reaches wins.
var bands = []bandEntry{
	{
		min:            80,
		band:           BandExcellent,
		recommendation: "Excellent adoption. Continue current practices and consider sharing best practices across teams.",
		summary:        "The airline demonstrates strong digital tool adoption across evaluated systems. User engagement and satisfaction are high, indicating effective implementation strategies.",
	},
	{
		min:            60,
		band:           BandGood,
		recommendation: "Good adoption with room for improvement. Focus on user training and gathering feedback.",
		summary:        "Overall digital adoption is satisfactory with opportunities for improvement. Some tools show strong engagement while others require attention to boost utilization.",
	},
	{
		min:            40,
		band:           BandModerate,
		recommendation: "Moderate adoption. Investigate barriers to usage and consider UX improvements or additional training.",
		summary:        "Digital adoption is below optimal levels. A comprehensive review of training programs and tool usability is recommended to improve engagement.",
	},
	{
		min:            0,
		band:           BandLow,
		recommendation: "Low adoption requires immediate attention. Conduct user interviews to identify pain points and blockers.",
		summary:        "Critical gaps exist in digital tool adoption. Immediate intervention is needed to address usability concerns and user resistance.",
	},
}

// BandFor maps a 0-100 score to its band.
func BandFor(score int) Band {
	return entryFor(score).band
}

// DefaultRecommendation is the static per-tool advice for a score.
func DefaultRecommendation(score int) string {
	return entryFor(score).recommendation
}

// DefaultSummary is the static audit summary for an overall score.
func DefaultSummary(score int) string {
	return entryFor(score).summary
}

func entryFor(score int) bandEntry {
	for _, b := range bands {
		if score >= b.min {
			return b
		}
	}
	return bands[len(bands)-1]
}
