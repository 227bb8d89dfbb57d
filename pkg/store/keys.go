package store

import "github.com/dd0wney/cluso-analytics/pkg/analysis"

// resultKeys lists the distinct (analysis_type, metric_name) pairs of a batch
// in first-seen order.
func resultKeys(results []analysis.AnalysisResult) [][2]string {
	seen := make(map[[2]string]bool)
	var keys [][2]string
	for _, r := range results {
		key := [2]string{r.AnalysisType, r.MetricName}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

func communityAlgorithms(assignments []analysis.CommunityAssignment) []string {
	seen := make(map[string]bool)
	var algs []string
	for _, a := range assignments {
		if !seen[a.Algorithm] {
			seen[a.Algorithm] = true
			algs = append(algs, a.Algorithm)
		}
	}
	return algs
}
