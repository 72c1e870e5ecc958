package quality

type ProductSummary struct {
	ProductID int64 `json:"product_id"`
	Total     int   `json:"total"`
	Pass      int   `json:"pass"`
	Fail      int   `json:"fail"`
}

// SummarizeQualityByProduct counts the tests for productID. Anything that is
// not a pass, pending tests included, counts as a fail.
func SummarizeQualityByProduct(productID int64, tests []*Test) ProductSummary {
	s := ProductSummary{ProductID: productID}
	for _, t := range tests {
		if t.ProductID != productID {
			continue
		}
		s.Total++
		if t.Result == ResultPass {
			s.Pass++
		} else {
			s.Fail++
		}
	}
	return s
}
