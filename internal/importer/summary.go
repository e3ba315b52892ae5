package importer

// Summary: içe aktarımın sonucu. Tek tek başarısız siparişler Errors'ta listelenir.
type Summary struct {
	JobID           uint       `json:"job_id"`
	BatchID         string     `json:"batch_id"`
	Format          SourceType `json:"format"`
	Created         int        `json:"created"`
	Skipped         int        `json:"skipped"`
	BranchesCreated int        `json:"branches_created"`
	CreatedOrders   []string   `json:"created_orders"`
	SkippedOrders   []string   `json:"skipped_orders"`
	Errors          []Issue    `json:"errors"`
}

func newSummary(batchID string) *Summary {
	return &Summary{
		BatchID:       batchID,
		CreatedOrders: []string{},
		SkippedOrders: []string{},
		Errors:        []Issue{},
	}
}

func (s *Summary) addIssues(errs []error) {
	for _, err := range errs {
		s.Errors = append(s.Errors, issueFromError(err))
	}
}
