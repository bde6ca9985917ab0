package model

// AgreementRow is one user-by-category line of the agreement report.
type AgreementRow struct {
	UserID              string
	Category            Category
	NAnswers            int
	AutoMean            *float64
	HumanMean           *float64
	Delta               *float64
	AgreementWithinHalf *float64
	RaterMeans          map[string]float64
}
