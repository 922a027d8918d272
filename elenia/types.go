package elenia

type cognitoResponse struct {
	AuthenticationResult struct {
		AccessToken string `json:"AccessToken"`
	} `json:"AuthenticationResult"`
}

type customerDataResponse struct {
	Token         string                  `json:"token"`
	CustomerDatas map[string]customerData `json:"customer_datas"`
}

type customerData struct {
	MeteringPoints []meteringPoint `json:"meteringpoints"`
}

type meteringPoint struct {
	GSRN                  string  `json:"gsrn"`
	AdditionalInformation string  `json:"additional_information"`
	Device                *device `json:"device"`
}

type device struct {
	Name string `json:"name"`
}

type account struct {
	APIToken        string
	CustomerID      string
	ConsumptionGSRN string
	ProductionGSRN  string
}
