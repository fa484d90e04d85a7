package httpapi

import (
	"github.com/MaxShih147/brew-signal/internal/config"
	"github.com/MaxShih147/brew-signal/internal/indicator"
	"github.com/MaxShih147/brew-signal/internal/scoring"
)

func indicatorSet(in indicator.Input) []indicator.Indicator {
	return indicator.Compute(in)
}

func opportunityWeights(c config.OpportunityConfig) scoring.OpportunityWeights {
	return scoring.OpportunityWeights{
		WDemand: c.WDemand, WDiffusion: c.WDiffusion, WFit: c.WFit,
		RSupply: c.RSupply, RGatekeeper: c.RGatekeeper,
		TimingLo: c.TimingLo, TimingHi: c.TimingHi, K: c.K,
	}
}

func bdWeights(c config.BDConfig) scoring.BDWeights {
	return scoring.BDWeights{
		BTiming: c.BTiming, BDemand: c.BDemand, BMarket: c.BMarket, BFeasibility: c.BFeasibility,
		FitGate: c.FitGate, TauStart: c.TauStart, TauMonitor: c.TauMonitor, Gamma: c.Gamma,
	}
}

func launchWeights(c config.LaunchConfig) scoring.LaunchWeights {
	return scoring.LaunchWeights{
		WDemand: c.WDemand, WEvent: c.WEvent, WSaturation: c.WSaturation, WOpsRisk: c.WOpsRisk,
		EventPeakWeeks: c.EventPeakWeeks, EventSigmaWeeks: c.EventSigmaWeeks,
	}
}
