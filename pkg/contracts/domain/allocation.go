package domain

// Decision is the Stage 1 outcome for a BD slot
type Decision string

const (
	DecisionStart   Decision = "START"
	DecisionMonitor Decision = "MONITOR"
	DecisionReject  Decision = "REJECT"
)

// AllocationResult is the Stage 1 score breakdown and decision
type AllocationResult struct {
	FitGateScore         float64  `json:"fit_gate_score"`
	FitGatePassed        bool     `json:"fit_gate_passed"`
	TimingUrgency        float64  `json:"timing_urgency"`
	DemandTrajectory     float64  `json:"demand_trajectory"`
	MarketGap            float64  `json:"market_gap"`
	Feasibility          float64  `json:"feasibility"`
	RawScore             float64  `json:"raw_score"`
	ConfidenceMultiplier float64  `json:"confidence_multiplier"`
	BDScore              float64  `json:"bd_score"`
	Decision             Decision `json:"decision"`
	Explanations         []string `json:"explanations"`
}
