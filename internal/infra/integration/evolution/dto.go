package evolution

type SendTextRequest struct {
	Number      string      `json:"number"`      // Ex: "5511999999999"
	TextMessage TextMessage `json:"textMessage"` // Formato da Evolution API v1
}

type TextMessage struct {
	Text string `json:"text"`
}

type SendTextResponse struct {
	Key struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Status string `json:"status"`
}

type ConnectionStateResponse struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		State        string `json:"state"` // open, connecting, close
	} `json:"instance"`
}
