package analysis

// KeywordCategory is a topic whose keywords, when present in both a clause
// and a law excerpt, make the pair relevant
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// Boost adds Weight to a pair's relevance when all three term sets match
type Boost struct {
	Name   string
	Clause Terms
	Law    Terms
	Source Terms
	Weight float64
}

// Tables holds the constants that drive relevance scoring
type Tables struct {
	Categories     []KeywordCategory
	CategoryWeight float64
	Boosts         []Boost
	// Threshold is exclusive: a pair scoring exactly Threshold is discarded
	Threshold float64
	MaxScore  float64
}

const (
	defaultCategoryWeight = 0.3
	defaultBoostWeight    = 0.6
	defaultThreshold      = 0.3
	defaultMaxScore       = 1.0
)

// DefaultTables returns the production keyword tables and boost rules
func DefaultTables() Tables {
	return Tables{
		Categories: []KeywordCategory{
			{Name: "arbitration", Keywords: []string{"arbitration", "dispute", "london", "english law"}},
			{Name: "e_signature", Keywords: []string{"signature", "electronic", "typed name", "scanned"}},
			{Name: "data", Keywords: []string{"data", "collect", "sell", "monetize", "singapore"}},
			{Name: "ip", Keywords: []string{"derivative", "modification", "enhancement", "property"}},
		},
		CategoryWeight: defaultCategoryWeight,
		Boosts: []Boost{
			{
				Name:   "london_article_87",
				Clause: Terms{All: []string{"london"}},
				Law:    Terms{All: []string{"article (87)"}},
				Weight: defaultBoostWeight,
			},
			{
				Name:   "data_sale_data_law",
				Clause: Terms{All: []string{"sell", "data"}},
				Source: Terms{All: []string{"data"}},
				Weight: defaultBoostWeight,
			},
			{
				Name:   "typed_name_esignature_law",
				Clause: Terms{All: []string{"typed name"}},
				Source: Terms{All: []string{"electronic"}},
				Weight: defaultBoostWeight,
			},
		},
		Threshold: defaultThreshold,
		MaxScore:  defaultMaxScore,
	}
}
