package sales

import "math"

// supervisorShare is the supervisor's cut of the agent commission.
const supervisorShare = 0.10

// Commission computes both commission amounts for a sale. The product's
// base rate is a percentage of the premium; the supervisor earns a fixed
// share of the agent's amount. Both values are rounded to cents and frozen
// on the sale row, so later product rate changes never touch past sales.
func Commission(premium, basePct float64) (agent, supervisor float64) {
	agent = round2(premium * basePct / 100)
	supervisor = round2(agent * supervisorShare)
	return agent, supervisor
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
