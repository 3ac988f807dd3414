package explorer

import "encoding/json"

// Transaction is one bridge transfer record as returned by the explorer API.
type Transaction struct {
	// DepositKey is the deposit address + memo composite, the dedup identity
	DepositKey string `json:"depositAddressAndMemo"`
	// OriginAsset and DestinationAsset are raw protocol-specific asset ids
	OriginAsset      string `json:"originAsset"`
	DestinationAsset string `json:"destinationAsset"`
	// AmountInUSD / AmountOutUSD are USD-denominated amounts
	AmountInUSD  float64 `json:"amountInUsd"`
	AmountOutUSD float64 `json:"amountOutUsd"`
	// CreatedAt is the source-chain event time, ISO-8601 with a possible Z suffix
	CreatedAt      string `json:"createdAt"`
	DepositAddress string `json:"depositAddress"`
	Status         string `json:"status"`
	// IntentHashes is passed through verbatim; the upstream shape varies
	IntentHashes json.RawMessage `json:"intentHashes"`
}

// page covers the enveloped response shape some API deployments return.
type page struct {
	Data []Transaction `json:"data"`
}
