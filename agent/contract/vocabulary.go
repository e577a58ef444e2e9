package contract

type Vocabulary struct {
	Domain   Domain
	Keywords []string
}

var vocabularies = map[Domain][]string{
	DomainSales:    {"date", "product", "category", "revenue", "region"},
	DomainCustomer: {"customer_id", "segment", "lifetime_value", "churn_risk", "region"},
}

// VocabularyFor returns a copy of the keyword list for d.
func VocabularyFor(d Domain) (Vocabulary, error) {
	kws, ok := vocabularies[d]
	if !ok {
		return Vocabulary{}, UnknownDomain(string(d))
	}
	return Vocabulary{Domain: d, Keywords: append([]string(nil), kws...)}, nil
}

// Vocabularies returns all vocabularies in routing order.
func Vocabularies() []Vocabulary {
	out := make([]Vocabulary, 0, len(vocabularies))
	for _, d := range Domains() {
		v, _ := VocabularyFor(d)
		out = append(out, v)
	}
	return out
}
