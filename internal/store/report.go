package store

import (
	"math"
	"sort"

	"github.com/smaragdas/softskills/internal/model"
)

type reportAnswer struct {
	id       string
	userID   string
	category model.Category
}

// AgreementReport aggregates auto and human scores per user and category.
// It returns the rows sorted by user then category, plus the sorted list of
// rater IDs seen anywhere (for stable report columns).
func (s *Store) AgreementReport() ([]model.AgreementRow, []string, error) {
	rows, err := s.db.Query(`SELECT id, user_id, category FROM answers ORDER BY user_id, category, created_at`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var answers []reportAnswer
	for rows.Next() {
		var a reportAnswer
		if err := rows.Scan(&a.id, &a.userID, &a.category); err != nil {
			return nil, nil, err
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	autoScores := make(map[string]float64)
	arows, err := s.db.Query(`SELECT answer_id, score FROM auto_ratings`)
	if err != nil {
		return nil, nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var id string
		var score float64
		if err := arows.Scan(&id, &score); err != nil {
			return nil, nil, err
		}
		autoScores[id] = score
	}
	if err := arows.Err(); err != nil {
		return nil, nil, err
	}

	humanScores := make(map[string]map[string]float64)
	raterSet := make(map[string]struct{})
	hrows, err := s.db.Query(`SELECT answer_id, rater_id, score FROM human_ratings`)
	if err != nil {
		return nil, nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var id, rater string
		var score float64
		if err := hrows.Scan(&id, &rater, &score); err != nil {
			return nil, nil, err
		}
		if humanScores[id] == nil {
			humanScores[id] = make(map[string]float64)
		}
		humanScores[id][rater] = score
		raterSet[rater] = struct{}{}
	}
	if err := hrows.Err(); err != nil {
		return nil, nil, err
	}

	raters := make([]string, 0, len(raterSet))
	for r := range raterSet {
		raters = append(raters, r)
	}
	sort.Strings(raters)

	type key struct {
		user     string
		category model.Category
	}
	type accum struct {
		n          int
		autoSum    float64
		autoN      int
		humanSum   float64
		humanN     int
		bothN      int
		withinHalf int
		raterSums  map[string]float64
		raterNs    map[string]int
	}
	groups := make(map[key]*accum)
	var order []key

	for _, a := range answers {
		k := key{a.userID, a.category}
		g := groups[k]
		if g == nil {
			g = &accum{raterSums: make(map[string]float64), raterNs: make(map[string]int)}
			groups[k] = g
			order = append(order, k)
		}
		g.n++

		auto, hasAuto := autoScores[a.id]
		if hasAuto {
			g.autoSum += auto
			g.autoN++
		}

		if byRater := humanScores[a.id]; len(byRater) > 0 {
			sum := 0.0
			for rater, score := range byRater {
				sum += score
				g.raterSums[rater] += score
				g.raterNs[rater]++
			}
			mean := sum / float64(len(byRater))
			g.humanSum += mean
			g.humanN++
			if hasAuto {
				g.bothN++
				if math.Abs(auto-mean) <= 0.5 {
					g.withinHalf++
				}
			}
		}
	}

	result := make([]model.AgreementRow, 0, len(order))
	for _, k := range order {
		g := groups[k]
		row := model.AgreementRow{
			UserID:     k.user,
			Category:   k.category,
			NAnswers:   g.n,
			RaterMeans: make(map[string]float64, len(g.raterSums)),
		}
		if g.autoN > 0 {
			m := g.autoSum / float64(g.autoN)
			row.AutoMean = &m
		}
		if g.humanN > 0 {
			m := g.humanSum / float64(g.humanN)
			row.HumanMean = &m
		}
		if row.AutoMean != nil && row.HumanMean != nil {
			d := *row.AutoMean - *row.HumanMean
			row.Delta = &d
		}
		if g.bothN > 0 {
			share := float64(g.withinHalf) / float64(g.bothN)
			row.AgreementWithinHalf = &share
		}
		for rater, sum := range g.raterSums {
			row.RaterMeans[rater] = sum / float64(g.raterNs[rater])
		}
		result = append(result, row)
	}

	return result, raters, nil
}
