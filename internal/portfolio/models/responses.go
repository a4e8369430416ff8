package models

// UserResponse is the read view of a UserRecord.
type UserResponse struct {
	OwnerID            string   `json:"owner_id"`
	RequiredSpread     Spread   `json:"required_spread"`
	NearIntentsAddress string   `json:"near_intents_address"`
	Activities         []string `json:"activities"`
}

// AgentPortfoliosResponse lists the owners an agent may act for.
type AgentPortfoliosResponse struct {
	AgentID    string   `json:"agent_id"`
	Portfolios []string `json:"portfolios"`
}

func ToUserResponse(u *UserRecord) UserResponse {
	activities := u.Activities
	if activities == nil {
		activities = []string{}
	}
	return UserResponse{
		OwnerID:            u.OwnerID,
		RequiredSpread:     u.RequiredSpread,
		NearIntentsAddress: u.LinkedAddress,
		Activities:         activities,
	}
}

func ToAgentPortfoliosResponse(a *AgentRecord) AgentPortfoliosResponse {
	return AgentPortfoliosResponse{AgentID: a.AgentID, Portfolios: a.Portfolios()}
}
