package cases

import "time"

// Merge applies a partial update onto a case: every present, non-null
// leaf in the partial overwrites the matching field, absent leaves stay
// untouched. Last-writer-wins per field, not per record, so two updates
// touching disjoint fields both apply without loss. LastUpdated is
// always bumped. Status is never taken from the partial; only the
// webhook transition table changes it.
func Merge(c *Case, p PartialUpdate, now time.Time) {
	if r := p.Result; r != nil {
		if r.RobustSummary != nil {
			v := *r.RobustSummary
			c.Analysis.RobustSummary = &v
		}
		if r.ShortSummary != nil {
			v := *r.ShortSummary
			c.Analysis.ShortSummary = &v
		}
		if r.TransactionCount != nil {
			c.Analysis.TransactionCount = *r.TransactionCount
		}
		if r.IsBot != nil {
			c.Analysis.IsBot = *r.IsBot
		}
		if f := r.FinancialData; f != nil {
			if f.TotalUsdValue != nil {
				c.Financial.TotalUSDValue = *f.TotalUsdValue
			}
			if f.NearBalance != nil {
				c.Financial.NearBalance = *f.NearBalance
			}
			if f.DefiValue != nil {
				c.Financial.DefiValue = *f.DefiValue
			}
		}
	}
	c.LastUpdated = now
}
