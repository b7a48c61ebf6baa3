package allocation

import (
	"fmt"

	"brewsignal/pkg/contracts/domain"
)

// Explain returns up to three lines: the decision driver, the demand and market signal,
// then a confidence or feasibility note.
func Explain(r domain.AllocationResult) []string {
	lines := make([]string, 0, 3)

	switch {
	case !r.FitGatePassed:
		lines = append(lines, fmt.Sprintf("Fit gate failed (%.0f): entity does not meet minimum brand fit criteria", r.FitGateScore))
	case r.TimingUrgency >= 70:
		lines = append(lines, fmt.Sprintf("High timing urgency (%.0f): start BD now or risk missing the launch window", r.TimingUrgency))
	case r.TimingUrgency >= 50:
		lines = append(lines, fmt.Sprintf("Moderate timing urgency (%.0f): window is approaching, monitor closely", r.TimingUrgency))
	default:
		lines = append(lines, fmt.Sprintf("Low timing urgency (%.0f): no immediate pressure to start BD", r.TimingUrgency))
	}

	switch {
	case r.DemandTrajectory >= 65 && r.MarketGap >= 60:
		lines = append(lines, fmt.Sprintf("Strong demand trajectory (%.0f) with open market gap (%.0f)", r.DemandTrajectory, r.MarketGap))
	case r.DemandTrajectory >= 50:
		lines = append(lines, fmt.Sprintf("Moderate demand (%.0f), market gap at %.0f", r.DemandTrajectory, r.MarketGap))
	default:
		lines = append(lines, fmt.Sprintf("Weak demand trajectory (%.0f), market gap at %.0f", r.DemandTrajectory, r.MarketGap))
	}

	switch {
	case r.ConfidenceMultiplier < 0.5:
		lines = append(lines, fmt.Sprintf("Low data confidence (%.0f%%): score significantly discounted", r.ConfidenceMultiplier*100))
	case r.Feasibility < 40:
		lines = append(lines, fmt.Sprintf("Feasibility concern (%.0f): difficult rightsholder or limited platform presence", r.Feasibility))
	default:
		lines = append(lines, fmt.Sprintf("Feasibility OK (%.0f), confidence %.0f%%", r.Feasibility, r.ConfidenceMultiplier*100))
	}

	return lines
}
