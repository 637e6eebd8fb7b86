package gql

// Operation is a single persisted-query GQL call. Twitch's web client never
// ships GQL query text; it ships a SHA-256 hash of a query the backend
// already has cached, which is what PersistedQuery carries.
type Operation struct {
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Extensions    Extensions             `json:"extensions"`
}

type Extensions struct {
	PersistedQuery PersistedQuery `json:"persistedQuery"`
}

type PersistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

func newOperation(name, hash string) Operation {
	return Operation{
		OperationName: name,
		Extensions: Extensions{
			PersistedQuery: PersistedQuery{
				Version:    1,
				SHA256Hash: hash,
			},
		},
	}
}

func (o Operation) WithVariables(vars map[string]interface{}) Operation {
	o.Variables = vars
	return o
}

var (
	WithIsStreamLiveQuery = newOperation(
		"WithIsStreamLiveQuery",
		"04e46329a6786ff3a81c01c50bfa5d725902507a0deb83b0edbf7abe7a3716ea",
	)

	PlaybackAccessToken = newOperation(
		"PlaybackAccessToken",
		"3093517e37e4f4cb48906155bcd894150aef92617939236d2508f3375ab732ce",
	)

	VideoPlayerStreamInfoOverlayChannel = newOperation(
		"VideoPlayerStreamInfoOverlayChannel",
		"a5f2e34d626a9f4f5c0204f910bab2194948a9502089be558bb6e779a9e1b3d2",
	)

	ClaimCommunityPoints = newOperation(
		"ClaimCommunityPoints",
		"46aaeebe02c99afdf4fc97c7c0cba964124bf6b0af229395f1f6d1feed05b3d0",
	)

	CommunityMomentCalloutClaim = newOperation(
		"CommunityMomentCallout_Claim",
		"e2d67415aead910f7f9ceb45a77b750a1e1d9622c936d832328a0689e054db62",
	)

	DropsPageClaimDropRewards = newOperation(
		"DropsPage_ClaimDropRewards",
		"a455deea71bdc9015b78eb49f4acfbce8baa7ccbedd28e549bb025bd0f751930",
	)

	ChannelPointsContext = newOperation(
		"ChannelPointsContext",
		"1530a003a7d374b0380b79db0be0534f30ff46e61cffa2bc0e2468a909fbc024",
	)

	JoinRaid = newOperation(
		"JoinRaid",
		"c6a332a86d1087fbbb1a8623aa01bd1313d2386e7c63be60fdb2d1901f01a4ae",
	)

	Inventory = newOperation(
		"Inventory",
		"d86775d0ef16a63a33ad52e80eaff963b2d5b72fada7c991504a57496e1d8e4b",
	).WithVariables(map[string]interface{}{"fetchRewardCampaigns": true})

	MakePrediction = newOperation(
		"MakePrediction",
		"b44682ecc88358817009f20e69d75081b1e58825bb40aa53d5dbadcc17c881d8",
	)

	ViewerDropsDashboard = newOperation(
		"ViewerDropsDashboard",
		"5a4da2ab3d5b47c9f9ce864e727b2cb346af1e3ea8b897fe8f704a97ff017619",
	).WithVariables(map[string]interface{}{"fetchRewardCampaigns": true})

	DropCampaignDetails = newOperation(
		"DropCampaignDetails",
		"f6396f5ffdde867a8f6f6da18286e4baf02e5b98d14689a69b5af320a4c7b7b8",
	)

	DropsHighlightServiceAvailableDrops = newOperation(
		"DropsHighlightService_AvailableDrops",
		"9a62a09bce5b53e26e64a671e530bc599cb6aab1e5ba3cbd5d85966d3940716f",
	)

	GetIDFromLogin = newOperation(
		"GetIDFromLogin",
		"94e82a7b1e3c21e186daa73ee2afc4b8f23bade1fbbff6fe8ac133f50a2f58ca",
	)

	ChannelFollows = newOperation(
		"ChannelFollows",
		"eecf815273d3d949e5cf0085cc5084cd8a1b5b7b6f7990cf43cb0beadf546907",
	).WithVariables(map[string]interface{}{"limit": 100, "order": "ASC"})

	UserPointsContribution = newOperation(
		"UserPointsContribution",
		"23ff2c2d60708379131178742327ead913b93b1bd6f665517a6d9085b73f661f",
	)

	ContributeCommunityPointsCommunityGoal = newOperation(
		"ContributeCommunityPointsCommunityGoal",
		"5774f0ea5d89587d73021a2e03c3c44777d903840c608754a1be519f51e37bb6",
	)
)
